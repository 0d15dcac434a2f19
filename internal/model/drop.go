package model

import (
	"time"
	"unicode/utf8"
)

type (
	RangeClass string
	Effect     string
)

const (
	RangeClose    RangeClass = "close"
	RangeFar      RangeClass = "far"
	RangeAnywhere RangeClass = "anywhere"
)

const (
	EffectNone     Effect = "none"
	EffectConfetti Effect = "confetti"
	EffectRainbow  Effect = "rainbow"
	EffectStars    Effect = "stars"
	EffectSpooky   Effect = "spooky"
	EffectGross    Effect = "gross"
	EffectUhOh     Effect = "uhoh"
)

const (
	MaxDropMessageLength = 280
	// Authors may delete a drop only this long after posting it.
	DropDeleteWindow = 15 * time.Minute
)

func (r RangeClass) Valid() bool {
	switch r {
	case RangeClose, RangeFar, RangeAnywhere:
		return true
	}
	return false
}

func (e Effect) Valid() bool {
	switch e {
	case EffectNone, EffectConfetti, EffectRainbow, EffectStars, EffectSpooky, EffectGross, EffectUhOh:
		return true
	}
	return false
}

type Drop struct {
	ID            int64      `json:"id,string"`
	UserID        int64      `json:"user_id,string"`
	Message       string     `json:"message"`
	Latitude      float64    `json:"latitude"`
	Longitude     float64    `json:"longitude"`
	Range         RangeClass `json:"range"`
	Effect        Effect     `json:"effect"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UserName      string     `json:"user_name"`
	HighfiveCount int64      `json:"highfive_count"`
}

// Expired reports whether the drop has passed its expiry at now.
func (d *Drop) Expired(now time.Time) bool {
	return d.ExpiresAt != nil && !d.ExpiresAt.After(now)
}

// Deletable reports whether userID may still delete the drop at now.
func (d *Drop) Deletable(userID int64, now time.Time) bool {
	return d.UserID == userID && now.Sub(d.CreatedAt) <= DropDeleteWindow
}

// ValidDropMessage checks the trimmed message length in characters.
func ValidDropMessage(msg string) bool {
	n := utf8.RuneCountInString(msg)
	return n > 0 && n <= MaxDropMessageLength
}

type Highfive struct {
	ID        int64     `json:"id,string"`
	DropID    int64     `json:"drop_id,string"`
	UserID    int64     `json:"user_id,string"`
	CreatedAt time.Time `json:"created_at"`
}
