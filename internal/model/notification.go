package model

import "time"

type NotificationType string

const NotificationTypeHighfive NotificationType = "highfive"

type Notification struct {
	ID           int64            `json:"id,string"`
	UserID       int64            `json:"user_id,string"`
	Type         NotificationType `json:"type"`
	DropID       *int64           `json:"drop_id,omitempty,string"`
	FromUserID   *int64           `json:"from_user_id,omitempty,string"`
	FromUserName string           `json:"from_user_name"`
	Read         bool             `json:"read"`
	CreatedAt    time.Time        `json:"created_at"`
}
