package deploy

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

type breakerProvider struct {
	next Provider
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker stops hammering the provider after consecutive failures.
// While open, Status fails fast with gobreaker.ErrOpenState.
func WithBreaker(next Provider, name string) Provider {
	if IsDisabled(next) {
		return next
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("deploy circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &breakerProvider{next: next, cb: cb}
}

func (b *breakerProvider) Status(ctx context.Context, branch string) (Status, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Status(ctx, branch)
	})
	if err != nil {
		return Status{}, err
	}
	return out.(Status), nil
}
