package vibe

import (
	"context"
	"strings"
	"sync"
	"time"

	"crosswalk.app/api/internal/model"
)

// MemoryTranscript keeps a conversation in process. Used by the CLI, which
// has no database.
type MemoryTranscript struct {
	mu       sync.Mutex
	messages []model.VibeMessage
	nextID   int64
}

func NewMemoryTranscript() *MemoryTranscript {
	return &MemoryTranscript{}
}

func (m *MemoryTranscript) ListRecent(_ context.Context, vibeID int64, limit int) ([]model.VibeMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.VibeMessage
	for _, msg := range m.messages {
		if msg.VibeID != vibeID || msg.DeletedAt != nil || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		out = append(out, msg)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *MemoryTranscript) Create(_ context.Context, msg *model.VibeMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.ID == 0 {
		m.nextID++
		msg.ID = m.nextID
	}
	msg.CreatedAt = time.Now()
	m.messages = append(m.messages, *msg)
	return nil
}

// All returns every stored message, including tombstoned ones.
func (m *MemoryTranscript) All() []model.VibeMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.VibeMessage(nil), m.messages...)
}
