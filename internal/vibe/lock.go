package vibe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"crosswalk.app/api/common/id"
)

// ErrTurnInProgress is returned when another turn holds the vibe.
var ErrTurnInProgress = errors.New("a turn is already running for this vibe")

// TurnLock serialises turns per vibe so two turns never write the same branch.
type TurnLock interface {
	// Acquire returns a release func, or ErrTurnInProgress.
	Acquire(ctx context.Context, vibeID int64) (release func(), err error)
}

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry out only if this holder still owns the key.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type redisTurnLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTurnLock locks with SET NX PX. The TTL bounds how long a crashed
// holder can block the vibe; a live holder extends it every ttl/3 until release.
func NewRedisTurnLock(client *redis.Client, ttl time.Duration) TurnLock {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisTurnLock{client: client, ttl: ttl}
}

func (l *redisTurnLock) Acquire(ctx context.Context, vibeID int64) (func(), error) {
	key := turnLockKey(vibeID)
	token := strconv.FormatInt(id.New(), 10)

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring turn lock: %w", err)
	}
	if !ok {
		return nil, ErrTurnInProgress
	}

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		keepAlive(context.WithoutCancel(ctx), l.ttl/3, stop, func(ctx context.Context) (bool, error) {
			n, err := extendScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
			return n == 1, err
		})
	}()

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(stop)
			<-stopped

			// The turn may outlive the request context.
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(rctx, l.client, []string{key}, token).Err(); err != nil {
				slog.WarnContext(rctx, "failed to release turn lock", "vibe_id", vibeID, "error", err)
			}
		})
	}
	return release, nil
}

// keepAlive calls extend every interval until stop is closed or extend
// reports that the lock is no longer held.
func keepAlive(ctx context.Context, interval time.Duration, stop <-chan struct{}, extend func(context.Context) (bool, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ectx, cancel := context.WithTimeout(ctx, 5*time.Second)
		held, err := extend(ectx)
		cancel()
		if err != nil {
			slog.WarnContext(ctx, "failed to extend turn lock", "error", err)
			continue
		}
		if !held {
			slog.ErrorContext(ctx, "turn lock expired while the turn was still running")
			return
		}
	}
}

func turnLockKey(vibeID int64) string {
	return "crosswalk:vibe:turn:" + strconv.FormatInt(vibeID, 10)
}

// LocalTurnLock is an in-process TurnLock for the CLI and tests.
type LocalTurnLock struct {
	mu   sync.Mutex
	held map[int64]struct{}
}

func NewLocalTurnLock() *LocalTurnLock {
	return &LocalTurnLock{held: make(map[int64]struct{})}
}

func (l *LocalTurnLock) Acquire(_ context.Context, vibeID int64) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[vibeID]; busy {
		return nil, ErrTurnInProgress
	}
	l.held[vibeID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, vibeID)
			l.mu.Unlock()
		})
	}, nil
}
