package realtime

import (
	"sort"
	"strings"
)

// Cursor maps a channel to the last stream id seen on it. "$" means only
// new messages.
type Cursor map[string]string

// NewCursor starts every channel at "$", then applies the positions encoded
// in lastID (as produced by Cursor.String) for the channels it knows.
func NewCursor(channels []string, lastID string) Cursor {
	cur := make(Cursor, len(channels))
	for _, ch := range channels {
		cur[ch] = "$"
	}
	for _, part := range strings.Split(lastID, ",") {
		ch, id, ok := strings.Cut(strings.TrimSpace(part), "@")
		if !ok || id == "" {
			continue
		}
		if _, known := cur[ch]; known {
			cur[ch] = id
		}
	}
	return cur
}

// Channels returns the channel names in a stable order.
func (c Cursor) Channels() []string {
	out := make([]string, 0, len(c))
	for ch := range c {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// String encodes the cursor for the last_id query parameter, skipping
// channels still at "$".
func (c Cursor) String() string {
	var parts []string
	for _, ch := range c.Channels() {
		if id := c[ch]; id != "$" {
			parts = append(parts, ch+"@"+id)
		}
	}
	return strings.Join(parts, ",")
}
