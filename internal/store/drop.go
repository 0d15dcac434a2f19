package store

import (
	"context"

	"crosswalk.app/api/core/db/sqlc"
	"crosswalk.app/api/internal/geo"
	"crosswalk.app/api/internal/model"
)

type dropStore struct {
	queries *sqlc.Queries
}

func newDropStore(queries *sqlc.Queries) DropStore {
	return &dropStore{queries: queries}
}

func (s *dropStore) GetByID(ctx context.Context, id int64) (*model.Drop, error) {
	row, err := s.queries.GetDrop(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	d := toDropModel(row.Drop, row.UserName, row.HighfiveCount)
	return &d, nil
}

func (s *dropStore) Create(ctx context.Context, drop *model.Drop) error {
	row, err := s.queries.CreateDrop(ctx, sqlc.CreateDropParams{
		ID:        drop.ID,
		UserID:    drop.UserID,
		Message:   drop.Message,
		Latitude:  drop.Latitude,
		Longitude: drop.Longitude,
		Range:     string(drop.Range),
		Effect:    string(drop.Effect),
		ExpiresAt: toNullableTimestamp(drop.ExpiresAt),
	})
	if err != nil {
		return mapError(err)
	}
	userName := drop.UserName
	*drop = toDropModel(row, &userName, 0)
	return nil
}

func (s *dropStore) Delete(ctx context.Context, id int64) error {
	return s.queries.DeleteDrop(ctx, id)
}

func (s *dropStore) ListActive(ctx context.Context, limit int32) ([]model.Drop, error) {
	rows, err := s.queries.ListActiveDrops(ctx, limit)
	if err != nil {
		return nil, err
	}
	drops := make([]model.Drop, 0, len(rows))
	for _, row := range rows {
		drops = append(drops, toDropModel(row.Drop, row.UserName, row.HighfiveCount))
	}
	return drops, nil
}

func (s *dropStore) ListActiveInBox(ctx context.Context, box geo.Box, limit int32) ([]model.Drop, error) {
	rows, err := s.queries.ListActiveDropsInBox(ctx, sqlc.ListActiveDropsInBoxParams{
		MinLat:   box.MinLat,
		MaxLat:   box.MaxLat,
		MinLng:   box.MinLng,
		MaxLng:   box.MaxLng,
		RowLimit: limit,
	})
	if err != nil {
		return nil, err
	}
	drops := make([]model.Drop, 0, len(rows))
	for _, row := range rows {
		drops = append(drops, toDropModel(row.Drop, row.UserName, row.HighfiveCount))
	}
	return drops, nil
}

func toDropModel(row sqlc.Drop, userName *string, highfives int64) model.Drop {
	author := model.User{Name: userName}
	return model.Drop{
		ID:            row.ID,
		UserID:        row.UserID,
		Message:       row.Message,
		Latitude:      row.Latitude,
		Longitude:     row.Longitude,
		Range:         model.RangeClass(row.Range),
		Effect:        model.Effect(row.Effect),
		ExpiresAt:     toTimePointer(row.ExpiresAt),
		CreatedAt:     row.CreatedAt.Time,
		UserName:      author.DisplayName(),
		HighfiveCount: highfives,
	}
}
