package store

import (
	"context"

	"crosswalk.app/api/core/db/sqlc"
	"crosswalk.app/api/internal/model"
)

type vibeMessageStore struct {
	queries *sqlc.Queries
}

func newVibeMessageStore(queries *sqlc.Queries) VibeMessageStore {
	return &vibeMessageStore{queries: queries}
}

func (s *vibeMessageStore) Create(ctx context.Context, msg *model.VibeMessage) error {
	row, err := s.queries.CreateVibeMessage(ctx, sqlc.CreateVibeMessageParams{
		ID:      msg.ID,
		VibeID:  msg.VibeID,
		UserID:  msg.UserID,
		Role:    string(msg.Role),
		Content: msg.Content,
	})
	if err != nil {
		return mapError(err)
	}
	*msg = toVibeMessageModel(row)
	return nil
}

// ListRecent returns the newest non-empty live messages, oldest first.
func (s *vibeMessageStore) ListRecent(ctx context.Context, vibeID int64, limit int) ([]model.VibeMessage, error) {
	rows, err := s.queries.ListRecentVibeMessages(ctx, sqlc.ListRecentVibeMessagesParams{
		VibeID: vibeID,
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, err
	}
	return toVibeMessageModels(rows), nil
}

func (s *vibeMessageStore) ListActive(ctx context.Context, vibeID int64) ([]model.VibeMessage, error) {
	rows, err := s.queries.ListActiveVibeMessages(ctx, vibeID)
	if err != nil {
		return nil, err
	}
	return toVibeMessageModels(rows), nil
}

func (s *vibeMessageStore) SoftDeleteByVibe(ctx context.Context, vibeID int64) (int64, error) {
	return s.queries.SoftDeleteVibeMessages(ctx, vibeID)
}

// CountAll includes tombstoned messages.
func (s *vibeMessageStore) CountAll(ctx context.Context, vibeID int64) (int64, error) {
	return s.queries.CountAllVibeMessages(ctx, vibeID)
}

func toVibeMessageModels(rows []sqlc.VibeMessage) []model.VibeMessage {
	out := make([]model.VibeMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, toVibeMessageModel(row))
	}
	return out
}

func toVibeMessageModel(row sqlc.VibeMessage) model.VibeMessage {
	return model.VibeMessage{
		ID:        row.ID,
		VibeID:    row.VibeID,
		UserID:    row.UserID,
		Role:      model.VibeRole(row.Role),
		Content:   row.Content,
		CreatedAt: row.CreatedAt.Time,
		DeletedAt: toTimePointer(row.DeletedAt),
	}
}
