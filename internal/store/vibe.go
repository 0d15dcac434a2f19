package store

import (
	"context"

	"crosswalk.app/api/core/db/sqlc"
	"crosswalk.app/api/internal/model"
)

type vibeStore struct {
	queries *sqlc.Queries
}

func newVibeStore(queries *sqlc.Queries) VibeStore {
	return &vibeStore{queries: queries}
}

func (s *vibeStore) GetByID(ctx context.Context, id int64) (*model.Vibe, error) {
	row, err := s.queries.GetVibe(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	v := toVibeModel(row)
	return &v, nil
}

func (s *vibeStore) Create(ctx context.Context, vibe *model.Vibe) error {
	row, err := s.queries.CreateVibe(ctx, sqlc.CreateVibeParams{
		ID:         vibe.ID,
		UserID:     vibe.UserID,
		Name:       vibe.Name,
		BranchName: vibe.BranchName,
	})
	if err != nil {
		return mapError(err)
	}
	*vibe = toVibeModel(row)
	return nil
}

func (s *vibeStore) ListByUser(ctx context.Context, userID int64) ([]model.Vibe, error) {
	rows, err := s.queries.ListVibesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	vibes := make([]model.Vibe, 0, len(rows))
	for _, row := range rows {
		vibes = append(vibes, toVibeModel(row))
	}
	return vibes, nil
}

func (s *vibeStore) SoftDelete(ctx context.Context, id int64) error {
	return s.queries.SoftDeleteVibe(ctx, id)
}

func toVibeModel(row sqlc.Vibe) model.Vibe {
	return model.Vibe{
		ID:         row.ID,
		UserID:     row.UserID,
		Name:       row.Name,
		BranchName: row.BranchName,
		CreatedAt:  row.CreatedAt.Time,
		DeletedAt:  toTimePointer(row.DeletedAt),
	}
}
