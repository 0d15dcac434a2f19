package store

import (
	"context"
	"errors"

	"crosswalk.app/api/internal/geo"
	"crosswalk.app/api/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint rejects a write
var ErrDuplicate = errors.New("duplicate")

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByAppleID(ctx context.Context, appleUserID string) (*model.User, error)
	GetByWorkOSID(ctx context.Context, workosUserID string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	UpdateName(ctx context.Context, id int64, name string) (*model.User, error)
	NameTaken(ctx context.Context, name string, exceptID int64) (bool, error)
}

// DropStore defines the contract for drop data access.
// Reads return drops with author name and high-five count filled in.
type DropStore interface {
	GetByID(ctx context.Context, id int64) (*model.Drop, error)
	Create(ctx context.Context, drop *model.Drop) error
	Delete(ctx context.Context, id int64) error
	ListActive(ctx context.Context, limit int32) ([]model.Drop, error)
	ListActiveInBox(ctx context.Context, box geo.Box, limit int32) ([]model.Drop, error)
}

// HighfiveStore defines the contract for high-five data access
type HighfiveStore interface {
	Create(ctx context.Context, hf *model.Highfive) error // ErrDuplicate when already given
	Delete(ctx context.Context, dropID, userID int64) error
	Exists(ctx context.Context, dropID, userID int64) (bool, error)
	Count(ctx context.Context, dropID int64) (int64, error)
}

// NotificationStore defines the contract for notification data access
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID int64, limit int32) ([]model.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

// VibeStore defines the contract for vibe data access. Deleted vibes are invisible.
type VibeStore interface {
	GetByID(ctx context.Context, id int64) (*model.Vibe, error)
	Create(ctx context.Context, vibe *model.Vibe) error
	ListByUser(ctx context.Context, userID int64) ([]model.Vibe, error)
	SoftDelete(ctx context.Context, id int64) error
}

// VibeMessageStore defines the contract for conversation transcripts.
// Messages are tombstoned, never removed.
type VibeMessageStore interface {
	Create(ctx context.Context, msg *model.VibeMessage) error
	ListRecent(ctx context.Context, vibeID int64, limit int) ([]model.VibeMessage, error)
	ListActive(ctx context.Context, vibeID int64) ([]model.VibeMessage, error)
	SoftDeleteByVibe(ctx context.Context, vibeID int64) (int64, error)
	CountAll(ctx context.Context, vibeID int64) (int64, error)
}
