package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"crosswalk.app/api/internal/auth"
	"crosswalk.app/api/internal/model"
	"crosswalk.app/api/internal/store"
)

type UserService interface {
	Get(ctx context.Context, id int64) (*model.User, error)
	Rename(ctx context.Context, id int64, name string) (*model.User, error)
	// RandomizeName assigns a freshly generated username.
	RandomizeName(ctx context.Context, id int64) (*model.User, error)
}

type userService struct {
	userStore store.UserStore
}

func NewUserService(userStore store.UserStore) UserService {
	return &userService{userStore: userStore}
}

func (s *userService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("User not found")
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}

func (s *userService) Rename(ctx context.Context, id int64, name string) (*model.User, error) {
	if n := len([]rune(name)); n < 2 || n > 20 {
		return nil, validation("Username must be 2-20 characters")
	}
	if !auth.ValidUsername(name) {
		return nil, validation("Username can only contain letters, numbers, _ and -")
	}

	taken, err := s.userStore.NameTaken(ctx, name, id)
	if err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if taken {
		return nil, conflict("Username is already taken")
	}

	return s.update(ctx, id, name)
}

func (s *userService) RandomizeName(ctx context.Context, id int64) (*model.User, error) {
	var lastErr error
	for range usernameAttempts {
		user, err := s.update(ctx, id, auth.GenerateUsername())
		if !errors.Is(err, ErrConflict) {
			return user, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *userService) update(ctx context.Context, id int64, name string) (*model.User, error) {
	user, err := s.userStore.UpdateName(ctx, id, name)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, notFound("User not found")
		case errors.Is(err, store.ErrDuplicate):
			return nil, conflict("Username is already taken")
		}
		slog.ErrorContext(ctx, "failed to update username", "error", err, "user_id", id)
		return nil, fmt.Errorf("updating username: %w", err)
	}
	slog.InfoContext(ctx, "username updated", "user_id", id)
	return user, nil
}
