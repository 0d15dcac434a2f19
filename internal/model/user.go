package model

import "time"

type User struct {
	ID           int64     `json:"id,string"`
	AppleUserID  *string   `json:"-"`
	WorkOSUserID *string   `json:"-"`
	Email        *string   `json:"email,omitempty"`
	Name         *string   `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayName returns the username, or "Anonymous" before one is chosen.
func (u *User) DisplayName() string {
	if u == nil || u.Name == nil || *u.Name == "" {
		return "Anonymous"
	}
	return *u.Name
}
