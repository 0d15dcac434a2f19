package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"crosswalk.app/api/common/id"
	"crosswalk.app/api/common/logger"
	"crosswalk.app/api/internal/auth"
	"crosswalk.app/api/internal/model"
	"crosswalk.app/api/internal/store"
)

// Attempts at picking a free random username before giving up on the sign-up.
const usernameAttempts = 5

type Session struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

type AuthService interface {
	// SignIn verifies a third-party identity token, finds or creates the user and issues a session token.
	SignIn(ctx context.Context, provider auth.Provider, identityToken string) (*Session, error)
	// Authenticate resolves a session token to a user id.
	Authenticate(ctx context.Context, token string) (int64, error)
}

// SessionTokens issues and parses the session tokens handed to clients.
type SessionTokens interface {
	Issue(userID int64) (string, time.Time, error)
	Parse(token string) (int64, error)
}

type authService struct {
	userStore store.UserStore
	verifiers map[auth.Provider]auth.IdentityVerifier
	tokens    SessionTokens
}

func NewAuthService(userStore store.UserStore, verifiers map[auth.Provider]auth.IdentityVerifier, tokens SessionTokens) AuthService {
	return &authService{
		userStore: userStore,
		verifiers: verifiers,
		tokens:    tokens,
	}
}

func (s *authService) SignIn(ctx context.Context, provider auth.Provider, identityToken string) (*Session, error) {
	if strings.TrimSpace(identityToken) == "" {
		return nil, validation("Identity token required")
	}
	verifier, ok := s.verifiers[provider]
	if !ok {
		return nil, notFound(fmt.Sprintf("Sign in with %s is not enabled", provider))
	}

	identity, err := verifier.Verify(ctx, identityToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidAssertion) {
			return nil, &Error{Kind: ErrUnauthorized, Message: "Authentication failed"}
		}
		return nil, fmt.Errorf("verifying identity: %w", err)
	}

	user, err := s.findOrCreate(ctx, identity)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing session token: %w", err)
	}

	slog.InfoContext(ctx, "user signed in",
		"user_id", user.ID,
		"provider", provider)

	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *authService) findOrCreate(ctx context.Context, identity auth.Identity) (*model.User, error) {
	user, err := s.lookupBySubject(ctx, identity)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	for attempt := 1; ; attempt++ {
		user = &model.User{
			ID:    id.New(),
			Email: identity.Email,
			Name:  logger.Ptr(auth.GenerateUsername()),
		}
		switch identity.Provider {
		case auth.ProviderApple:
			user.AppleUserID = &identity.Subject
		case auth.ProviderWorkOS:
			user.WorkOSUserID = &identity.Subject
		}

		err = s.userStore.Create(ctx, user)
		if err == nil {
			slog.InfoContext(ctx, "user created",
				"user_id", user.ID,
				"provider", identity.Provider)
			return user, nil
		}
		if !errors.Is(err, store.ErrDuplicate) || attempt == usernameAttempts {
			slog.ErrorContext(ctx, "failed to create user",
				"error", err,
				"provider", identity.Provider,
				"attempt", attempt)
			return nil, fmt.Errorf("creating user: %w", err)
		}
		// Either the random name collided or a concurrent sign-in created the user.
		if existing, lookupErr := s.lookupBySubject(ctx, identity); lookupErr == nil {
			return existing, nil
		}
	}
}

func (s *authService) lookupBySubject(ctx context.Context, identity auth.Identity) (*model.User, error) {
	switch identity.Provider {
	case auth.ProviderApple:
		return s.userStore.GetByAppleID(ctx, identity.Subject)
	case auth.ProviderWorkOS:
		return s.userStore.GetByWorkOSID(ctx, identity.Subject)
	default:
		return nil, fmt.Errorf("unknown identity provider %q", identity.Provider)
	}
}

func (s *authService) Authenticate(_ context.Context, token string) (int64, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return 0, ErrUnauthorized
	}
	return userID, nil
}
