package store

import (
	"context"

	"crosswalk.app/api/core/db/sqlc"
	"crosswalk.app/api/internal/model"
)

type highfiveStore struct {
	queries *sqlc.Queries
}

func newHighfiveStore(queries *sqlc.Queries) HighfiveStore {
	return &highfiveStore{queries: queries}
}

func (s *highfiveStore) Create(ctx context.Context, hf *model.Highfive) error {
	row, err := s.queries.CreateHighfive(ctx, sqlc.CreateHighfiveParams{
		ID:     hf.ID,
		DropID: hf.DropID,
		UserID: hf.UserID,
	})
	if err != nil {
		return mapError(err)
	}
	hf.CreatedAt = row.CreatedAt.Time
	return nil
}

func (s *highfiveStore) Delete(ctx context.Context, dropID, userID int64) error {
	n, err := s.queries.DeleteHighfive(ctx, sqlc.DeleteHighfiveParams{DropID: dropID, UserID: userID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *highfiveStore) Exists(ctx context.Context, dropID, userID int64) (bool, error) {
	return s.queries.HasHighfived(ctx, sqlc.HasHighfivedParams{DropID: dropID, UserID: userID})
}

func (s *highfiveStore) Count(ctx context.Context, dropID int64) (int64, error) {
	return s.queries.CountHighfives(ctx, dropID)
}
