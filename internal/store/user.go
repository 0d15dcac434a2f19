package store

import (
	"context"

	"crosswalk.app/api/core/db/sqlc"
	"crosswalk.app/api/internal/model"
)

type userStore struct {
	queries *sqlc.Queries
}

func newUserStore(queries *sqlc.Queries) UserStore {
	return &userStore{queries: queries}
}

func (s *userStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row, err := s.queries.GetUser(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return toUserModel(row), nil
}

func (s *userStore) GetByAppleID(ctx context.Context, appleUserID string) (*model.User, error) {
	row, err := s.queries.GetUserByAppleID(ctx, &appleUserID)
	if err != nil {
		return nil, mapError(err)
	}
	return toUserModel(row), nil
}

func (s *userStore) GetByWorkOSID(ctx context.Context, workosUserID string) (*model.User, error) {
	row, err := s.queries.GetUserByWorkOSID(ctx, &workosUserID)
	if err != nil {
		return nil, mapError(err)
	}
	return toUserModel(row), nil
}

func (s *userStore) Create(ctx context.Context, user *model.User) error {
	row, err := s.queries.CreateUser(ctx, sqlc.CreateUserParams{
		ID:           user.ID,
		AppleUserID:  user.AppleUserID,
		WorkosUserID: user.WorkOSUserID,
		Email:        user.Email,
		Name:         user.Name,
	})
	if err != nil {
		return mapError(err)
	}
	*user = *toUserModel(row)
	return nil
}

func (s *userStore) UpdateName(ctx context.Context, id int64, name string) (*model.User, error) {
	row, err := s.queries.UpdateUserName(ctx, sqlc.UpdateUserNameParams{ID: id, Name: &name})
	if err != nil {
		return nil, mapError(err)
	}
	return toUserModel(row), nil
}

func (s *userStore) NameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	return s.queries.UserNameTaken(ctx, sqlc.UserNameTakenParams{Name: &name, ID: exceptID})
}

func toUserModel(row sqlc.User) *model.User {
	return &model.User{
		ID:           row.ID,
		AppleUserID:  row.AppleUserID,
		WorkOSUserID: row.WorkosUserID,
		Email:        row.Email,
		Name:         row.Name,
		CreatedAt:    row.CreatedAt.Time,
	}
}
