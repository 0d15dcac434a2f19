package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultJWKSCacheTTL = time.Hour
	defaultHTTPTimeout  = 10 * time.Second
)

var (
	errMissingKeyID  = errors.New("token header missing kid")
	errUnknownKeyID  = errors.New("no signing key for kid")
	errInvalidIssuer = errors.New("token issuer not allowed")
	errMissingSub    = errors.New("token missing subject")
)

// JWKSConfig configures an RS256 verifier backed by a remote key set.
type JWKSConfig struct {
	JWKSURL        string
	Audiences      []string
	AllowedIssuers []string
	HTTPClient     *http.Client
	CacheTTL       time.Duration
	Clock          func() time.Time
}

type jwksClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// jwksVerifier validates RS256 tokens against keys fetched from a JWKS endpoint.
// Keys are cached and refetched on TTL expiry or when an unknown kid shows up.
type jwksVerifier struct {
	cfg    JWKSConfig
	client *http.Client
	clock  func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func newJWKSVerifier(cfg JWKSConfig) (*jwksVerifier, error) {
	if cfg.JWKSURL == "" {
		return nil, errors.New("jwks url is required")
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultJWKSCacheTTL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &jwksVerifier{cfg: cfg, client: client, clock: clock}, nil
}

func (v *jwksVerifier) verify(ctx context.Context, token string) (*jwksClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(v.clock),
		jwt.WithExpirationRequired(),
	}

	claims := &jwksClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errMissingKeyID
		}
		return v.lookupKey(ctx, kid)
	}, opts...)
	if err != nil {
		return nil, err
	}

	if len(v.cfg.AllowedIssuers) > 0 && !slices.Contains(v.cfg.AllowedIssuers, claims.Issuer) {
		return nil, errInvalidIssuer
	}
	if len(v.cfg.Audiences) > 0 && !intersects(v.cfg.Audiences, claims.Audience) {
		return nil, jwt.ErrTokenInvalidAudience
	}
	if claims.Subject == "" {
		return nil, errMissingSub
	}
	return claims, nil
}

func (v *jwksVerifier) lookupKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	fresh := v.clock().Sub(v.fetchedAt) < v.cfg.CacheTTL
	v.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	if err := v.refreshKeys(ctx); err != nil {
		if ok {
			// Stale keys stay usable while the endpoint is unreachable.
			slog.WarnContext(ctx, "jwks refresh failed, using cached key",
				"url", v.cfg.JWKSURL, "error", err)
			return key, nil
		}
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if key, ok := v.keys[kid]; ok {
		return key, nil
	}
	return nil, errUnknownKeyID
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (v *jwksVerifier) refreshKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.JWKSURL, nil)
	if err != nil {
		return fmt.Errorf("build jwks request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fetch jwks: status %d: %s", resp.StatusCode, body)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		pub, err := toRSAPublicKey(k)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed jwk", "kid", k.Kid, "error", err)
			continue
		}
		keys[k.Kid] = pub
	}

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = v.clock()
	v.mu.Unlock()

	slog.DebugContext(ctx, "jwks refreshed", "url", v.cfg.JWKSURL, "keys", len(keys))
	return nil
}

func toRSAPublicKey(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() <= 1 {
		return nil, errors.New("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: int(e.Int64())}, nil
}

func intersects(allowed []string, got jwt.ClaimStrings) bool {
	for _, a := range got {
		if slices.Contains(allowed, a) {
			return true
		}
	}
	return false
}
