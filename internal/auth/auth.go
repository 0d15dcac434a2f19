package auth

import (
	"context"
	"errors"
)

// ErrInvalidAssertion is returned for any identity token that fails verification.
// Callers map it to 401 without exposing the underlying reason.
var ErrInvalidAssertion = errors.New("invalid identity assertion")

type Provider string

const (
	ProviderApple  Provider = "apple"
	ProviderWorkOS Provider = "workos"
)

// Identity is the verified subject of a third-party identity token.
type Identity struct {
	Provider Provider
	Subject  string
	Email    *string
}

type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
