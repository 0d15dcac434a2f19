package auth

import (
	"context"
	"log/slog"

	"crosswalk.app/api/core/config"
)

const AppleIssuer = "https://appleid.apple.com"

// AppleVerifier checks Sign in with Apple identity tokens.
type AppleVerifier struct {
	jwks *jwksVerifier
}

func NewAppleVerifier(cfg config.AuthConfig) (*AppleVerifier, error) {
	v, err := newJWKSVerifier(JWKSConfig{
		JWKSURL:        cfg.AppleJWKSURL,
		Audiences:      cfg.AppleAudiences,
		AllowedIssuers: []string{AppleIssuer},
	})
	if err != nil {
		return nil, err
	}
	return &AppleVerifier{jwks: v}, nil
}

func (v *AppleVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	claims, err := v.jwks.verify(ctx, token)
	if err != nil {
		slog.InfoContext(ctx, "apple identity token rejected", "error", err)
		return Identity{}, ErrInvalidAssertion
	}

	identity := Identity{Provider: ProviderApple, Subject: claims.Subject}
	if claims.Email != "" {
		identity.Email = &claims.Email
	}
	return identity, nil
}
