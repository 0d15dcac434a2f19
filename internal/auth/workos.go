package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/workos/workos-go/v6/pkg/usermanagement"

	"crosswalk.app/api/core/config"
)

// UserLookup resolves a WorkOS user id to its profile. Access tokens carry no email.
type UserLookup func(ctx context.Context, userID string) (usermanagement.User, error)

type WorkOSOption func(*workosOptions)

type workosOptions struct {
	jwks   *JWKSConfig
	lookup UserLookup
}

// WithWorkOSJWKS overrides the key set location derived from the client id.
func WithWorkOSJWKS(cfg JWKSConfig) WorkOSOption {
	return func(o *workosOptions) { o.jwks = &cfg }
}

func WithUserLookup(fn UserLookup) WorkOSOption {
	return func(o *workosOptions) { o.lookup = fn }
}

// WorkOSVerifier checks AuthKit access tokens issued for the configured client.
type WorkOSVerifier struct {
	jwks   *jwksVerifier
	lookup UserLookup
}

func NewWorkOSVerifier(cfg config.WorkOSConfig, opts ...WorkOSOption) (*WorkOSVerifier, error) {
	var o workosOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.jwks == nil {
		usermanagement.SetAPIKey(cfg.APIKey)
		u, err := usermanagement.GetJWKSURL(cfg.ClientID)
		if err != nil {
			return nil, fmt.Errorf("workos jwks url: %w", err)
		}
		o.jwks = &JWKSConfig{JWKSURL: u.String()}
	}
	if o.lookup == nil {
		o.lookup = func(ctx context.Context, userID string) (usermanagement.User, error) {
			return usermanagement.GetUser(ctx, usermanagement.GetUserOpts{User: userID})
		}
	}

	v, err := newJWKSVerifier(*o.jwks)
	if err != nil {
		return nil, err
	}
	return &WorkOSVerifier{jwks: v, lookup: o.lookup}, nil
}

func (v *WorkOSVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	claims, err := v.jwks.verify(ctx, token)
	if err != nil {
		slog.InfoContext(ctx, "workos access token rejected", "error", err)
		return Identity{}, ErrInvalidAssertion
	}

	identity := Identity{Provider: ProviderWorkOS, Subject: claims.Subject}
	if claims.Email != "" {
		identity.Email = &claims.Email
		return identity, nil
	}

	user, err := v.lookup(ctx, claims.Subject)
	if err != nil {
		slog.WarnContext(ctx, "workos user lookup failed", "workos_id", claims.Subject, "error", err)
		return identity, nil
	}
	if user.Email != "" {
		identity.Email = &user.Email
	}
	return identity, nil
}
