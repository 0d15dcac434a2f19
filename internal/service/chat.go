package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"crosswalk.app/api/common/logger"
	"crosswalk.app/api/internal/model"
	"crosswalk.app/api/internal/vibe"
)

// ChatAgent runs one agent turn. Satisfied by *vibe.Agent.
type ChatAgent interface {
	Run(ctx context.Context, req vibe.Request, emit vibe.Emitter) (*vibe.Result, error)
}

// TurnLocker serializes turns per vibe. Satisfied by vibe.TurnLock.
type TurnLocker interface {
	Acquire(ctx context.Context, vibeID int64) (release func(), err error)
}

type chatDeps struct {
	agent ChatAgent
	locks TurnLocker
}

// ChatTurn is a validated message holding its vibe's turn lock.
type ChatTurn struct {
	agent   ChatAgent
	vibe    model.Vibe
	userID  int64
	message string

	releaseOnce sync.Once
	release     func()
}

func (s *vibeService) StartChat(ctx context.Context, userID, vibeID int64, message string) (*ChatTurn, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, validation("Message is required")
	}
	if s.chat.agent == nil {
		return nil, &Error{Kind: ErrExternal, Message: "Vibe chat is not configured"}
	}

	v, err := s.owned(ctx, userID, vibeID)
	if err != nil {
		return nil, err
	}

	release, err := s.chat.locks.Acquire(ctx, v.ID)
	if err != nil {
		if errors.Is(err, vibe.ErrTurnInProgress) {
			return nil, conflict("A message is already being processed for this vibe")
		}
		return nil, fmt.Errorf("acquiring turn lock: %w", err)
	}

	return &ChatTurn{
		agent:   s.chat.agent,
		vibe:    *v,
		userID:  userID,
		message: message,
		release: release,
	}, nil
}

// Run streams the turn to emit and releases the lock. The agent runs detached
// from ctx cancellation so a client disconnect never interrupts a commit;
// detached reports the disconnect to the agent instead.
func (t *ChatTurn) Run(ctx context.Context, emit vibe.Emitter, detached func() bool) (*vibe.Result, error) {
	defer t.Close()

	ctx = logger.WithLogFields(context.WithoutCancel(ctx), logger.LogFields{
		UserID: &t.userID,
		VibeID: &t.vibe.ID,
		Branch: &t.vibe.BranchName,
	})

	res, err := t.agent.Run(ctx, vibe.Request{
		Vibe:     t.vibe,
		UserID:   t.userID,
		Message:  t.message,
		Detached: detached,
	}, emit)
	if err != nil {
		slog.WarnContext(ctx, "vibe turn failed", "error", err)
		return nil, err
	}
	return res, nil
}

// Close releases the turn lock. Safe to call more than once.
func (t *ChatTurn) Close() {
	t.releaseOnce.Do(t.release)
}
