package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSettings configures WithBreaker.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
	// OnStateChange is called in addition to the default log line.
	OnStateChange func(name string, from, to gobreaker.State)
}

func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:             name,
		MaxRequests:      2,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

type breakerClient struct {
	next AgentClient
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker guards an AgentClient with a circuit breaker. Once the provider keeps
// failing, calls fail fast with gobreaker.ErrOpenState instead of waiting on timeouts.
// Caller cancellations and 4xx responses do not count as failures.
func WithBreaker(next AgentClient, s BreakerSettings) AgentClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("llm circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
			if s.OnStateChange != nil {
				s.OnStateChange(name, from, to)
			}
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			if status, ok := statusCode(err); ok && status < 500 && status != 429 {
				return true
			}
			return false
		},
	})
	return &breakerClient{next: next, cb: cb}
}

func (b *breakerClient) ChatWithTools(ctx context.Context, req AgentRequest) (*AgentResponse, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.ChatWithTools(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return out.(*AgentResponse), nil
}

func (b *breakerClient) Model() string {
	return b.next.Model()
}
