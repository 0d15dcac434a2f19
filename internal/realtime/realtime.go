// Package realtime fans out drop and high-five events over Redis streams.
// Delivery is best effort: publish failures are logged, never returned.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ChannelDrops = "drops"

	EventNewDrop    = "new_drop"
	EventDeleteDrop = "delete_drop"
	EventHighfive   = "highfive"

	streamPrefix = "crosswalk:realtime:"
)

// UserChannel is the private channel of one user.
func UserChannel(userID int64) string {
	return "user-" + strconv.FormatInt(userID, 10)
}

type Publisher interface {
	Publish(ctx context.Context, channel, event string, payload any)
}

type Message struct {
	ID      string          `json:"id"`
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
}

type redisPublisher struct {
	client *redis.Client
	maxLen int64
}

// NewRedisPublisher appends to one stream per channel, trimmed to about maxLen entries.
func NewRedisPublisher(client *redis.Client, maxLen int64) Publisher {
	if maxLen <= 0 {
		maxLen = 1000
	}
	return &redisPublisher{client: client, maxLen: maxLen}
}

func (p *redisPublisher) Publish(ctx context.Context, channel, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode realtime event", "channel", channel, "event", event, "error", err)
		return
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamPrefix + channel,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"event": event,
			"data":  string(data),
		},
	}).Err(); err != nil {
		slog.WarnContext(ctx, "failed to publish realtime event", "channel", channel, "event", event, "error", err)
		return
	}

	slog.DebugContext(ctx, "published realtime event", "channel", channel, "event", event)
}

// Subscriber reads channel streams from a cursor.
type Subscriber struct {
	client *redis.Client
	block  time.Duration
}

func NewSubscriber(client *redis.Client, block time.Duration) *Subscriber {
	if block <= 0 {
		block = 25 * time.Second
	}
	return &Subscriber{client: client, block: block}
}

// Read blocks until a message arrives on any channel of cur or the block
// timeout passes, in which case it returns no messages and no error.
// cur is advanced past every returned message.
func (s *Subscriber) Read(ctx context.Context, cur Cursor) ([]Message, error) {
	channels := cur.Channels()
	streams := make([]string, 0, len(channels)*2)
	for _, ch := range channels {
		streams = append(streams, streamPrefix+ch)
	}
	for _, ch := range channels {
		streams = append(streams, cur[ch])
	}

	res, err := s.client.XRead(ctx, &redis.XReadArgs{
		Streams: streams,
		Block:   s.block,
		Count:   100,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("reading realtime streams: %w", err)
	}

	msgs := decodeStreams(res)
	for _, m := range msgs {
		cur[m.Channel] = m.ID
	}
	return msgs, nil
}

func decodeStreams(res []redis.XStream) []Message {
	var out []Message
	for _, stream := range res {
		channel := strings.TrimPrefix(stream.Stream, streamPrefix)
		for _, xm := range stream.Messages {
			event, _ := xm.Values["event"].(string)
			data, _ := xm.Values["data"].(string)
			if !json.Valid([]byte(data)) {
				data = "null"
			}
			out = append(out, Message{
				ID:      xm.ID,
				Channel: channel,
				Event:   event,
				Data:    json.RawMessage(data),
			})
		}
	}
	return out
}
