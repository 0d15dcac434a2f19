package model

import "time"

type VibeRole string

const (
	VibeRoleUser      VibeRole = "user"
	VibeRoleAssistant VibeRole = "assistant"
)

// Vibe is a user's agent workspace, bound 1:1 to a source-control branch.
type Vibe struct {
	ID         int64      `json:"id,string"`
	UserID     int64      `json:"user_id,string"`
	Name       string     `json:"name"`
	BranchName string     `json:"branch_name"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"-"`
}

type VibeMessage struct {
	ID        int64      `json:"id,string"`
	VibeID    int64      `json:"vibe_id,string"`
	UserID    int64      `json:"user_id,string"`
	Role      VibeRole   `json:"role"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"-"`
}
