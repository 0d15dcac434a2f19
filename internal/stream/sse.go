// Package stream writes server-sent events.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

var ErrStreamingUnsupported = errors.New("streaming not supported")

// SSE writes events to one client. Once the client is gone every write is
// dropped silently, so producers can keep running without checking.
type SSE struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	done    <-chan struct{}
	closed  bool
}

// New sets the event-stream headers on w. done is closed when the client
// disconnects, usually the request context's Done channel.
func New(w http.ResponseWriter, done <-chan struct{}) (*SSE, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	SetHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &SSE{w: w, flusher: flusher, done: done}, nil
}

func SetHeaders(w http.ResponseWriter) {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
}

// Data writes an unnamed event, the form the chat client reads.
func (s *SSE) Data(data any) {
	s.write("", "", data)
}

// Send writes a named event with an optional id.
func (s *SSE) Send(event, id string, data any) {
	s.write(event, id, data)
}

// Ping keeps idle proxies from closing the connection.
func (s *SSE) Ping() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone() {
		return
	}
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		s.closed = true
		return
	}
	s.flusher.Flush()
}

// Closed reports whether the client went away.
func (s *SSE) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gone()
}

func (s *SSE) write(event, id string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone() {
		return
	}

	var b strings.Builder
	if event != "" {
		fmt.Fprintf(&b, "event: %s\n", event)
	}
	if id != "" {
		fmt.Fprintf(&b, "id: %s\n", id)
	}
	for _, line := range strings.Split(marshalPayload(data), "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	if _, err := fmt.Fprint(s.w, b.String()); err != nil {
		s.closed = true
		return
	}
	s.flusher.Flush()
}

func (s *SSE) gone() bool {
	if s.closed {
		return true
	}
	select {
	case <-s.done:
		s.closed = true
	default:
	}
	return s.closed
}

func marshalPayload(data any) string {
	switch payload := data.(type) {
	case string:
		return payload
	case []byte:
		return string(payload)
	case json.RawMessage:
		return string(payload)
	default:
		bytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Sprintf("%v", data)
		}
		return string(bytes)
	}
}
