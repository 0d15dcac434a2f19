package store

import (
	"context"

	"crosswalk.app/api/core/db/sqlc"
	"crosswalk.app/api/internal/model"
)

type notificationStore struct {
	queries *sqlc.Queries
}

func newNotificationStore(queries *sqlc.Queries) NotificationStore {
	return &notificationStore{queries: queries}
}

func (s *notificationStore) Create(ctx context.Context, n *model.Notification) error {
	row, err := s.queries.CreateNotification(ctx, sqlc.CreateNotificationParams{
		ID:         n.ID,
		UserID:     n.UserID,
		Type:       string(n.Type),
		DropID:     n.DropID,
		FromUserID: n.FromUserID,
	})
	if err != nil {
		return mapError(err)
	}
	fromName := n.FromUserName
	*n = toNotificationModel(row, &fromName)
	return nil
}

func (s *notificationStore) ListByUser(ctx context.Context, userID int64, limit int32) ([]model.Notification, error) {
	rows, err := s.queries.ListNotifications(ctx, sqlc.ListNotificationsParams{UserID: userID, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]model.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, toNotificationModel(row.Notification, row.FromUserName))
	}
	return out, nil
}

func (s *notificationStore) CountUnread(ctx context.Context, userID int64) (int64, error) {
	return s.queries.CountUnreadNotifications(ctx, userID)
}

// MarkRead returns ErrNotFound when the notification is missing or belongs to someone else.
func (s *notificationStore) MarkRead(ctx context.Context, id, userID int64) error {
	n, err := s.queries.MarkNotificationRead(ctx, sqlc.MarkNotificationReadParams{ID: id, UserID: userID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *notificationStore) MarkAllRead(ctx context.Context, userID int64) error {
	return s.queries.MarkAllNotificationsRead(ctx, userID)
}

func toNotificationModel(row sqlc.Notification, fromUserName *string) model.Notification {
	from := model.User{Name: fromUserName}
	return model.Notification{
		ID:           row.ID,
		UserID:       row.UserID,
		Type:         model.NotificationType(row.Type),
		DropID:       row.DropID,
		FromUserID:   row.FromUserID,
		FromUserName: from.DisplayName(),
		Read:         row.Read,
		CreatedAt:    row.CreatedAt.Time,
	}
}
