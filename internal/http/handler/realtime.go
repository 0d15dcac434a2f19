package handler

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"crosswalk.app/api/internal/http/middleware"
	"crosswalk.app/api/internal/realtime"
	"crosswalk.app/api/internal/stream"
)

// Subscriber reads realtime channels from a cursor. Satisfied by *realtime.Subscriber.
type Subscriber interface {
	Read(ctx context.Context, cur realtime.Cursor) ([]realtime.Message, error)
}

type RealtimeHandler struct {
	subscriber Subscriber
	streams    StreamTracker
	retryDelay time.Duration
}

func NewRealtimeHandler(subscriber Subscriber, streams StreamTracker) *RealtimeHandler {
	if streams == nil {
		streams = nopStreams{}
	}
	return &RealtimeHandler{
		subscriber: subscriber,
		streams:    streams,
		retryDelay: time.Second,
	}
}

// Stream follows the public drops channel and the caller's private channel.
// Each event id is a resumable cursor for the last_id query parameter.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	if h.subscriber == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime not configured"})
		return
	}

	channels := []string{realtime.ChannelDrops, realtime.UserChannel(middleware.UserID(ctx))}
	cur := realtime.NewCursor(channels, c.Query("last_id"))

	sse, err := stream.New(c.Writer, ctx.Done())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}
	defer h.streams.StreamOpened()()

	sse.Send("ping", "", "ready")

	for !sse.Closed() {
		pos := maps.Clone(cur)
		msgs, err := h.subscriber.Read(ctx, cur)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.WarnContext(ctx, "realtime read failed", "error", err)
			sse.Send("error", "", gin.H{"error": "stream interrupted"})
			select {
			case <-ctx.Done():
				return
			case <-time.After(h.retryDelay):
			}
			continue
		}

		if len(msgs) == 0 {
			sse.Ping()
			continue
		}
		for _, m := range msgs {
			pos[m.Channel] = m.ID
			sse.Send(m.Event, pos.String(), m.Data)
		}
	}
}
