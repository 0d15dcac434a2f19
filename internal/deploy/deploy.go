// Package deploy reports the preview deployment state of a branch.
package deploy

import (
	"context"
	"fmt"

	"crosswalk.app/api/core/config"
)

type State string

const (
	StateQueued   State = "QUEUED"
	StateBuilding State = "BUILDING"
	StateReady    State = "READY"
	StateError    State = "ERROR"
	StateNotFound State = "NOT_FOUND"
)

// Terminal reports whether polling can stop.
func (s State) Terminal() bool {
	return s == StateReady || s == StateError
}

type Status struct {
	State State  `json:"state"`
	URL   string `json:"url,omitempty"`
}

// Provider looks up the latest deployment built from a branch.
type Provider interface {
	Status(ctx context.Context, branch string) (Status, error)
}

// New returns the provider selected by cfg, or a provider that never finds
// anything when deployments are not configured.
func New(cfg config.DeployConfig, scm config.SCMConfig) (Provider, error) {
	if !cfg.Enabled() {
		return Disabled{}, nil
	}
	switch cfg.Provider {
	case "vercel":
		return NewVercel(cfg), nil
	case "gitlab":
		return NewGitLabPipelines(scm)
	default:
		return nil, fmt.Errorf("unsupported deploy provider %q", cfg.Provider)
	}
}

// Disabled is used when no deployment provider is configured.
type Disabled struct{}

func (Disabled) Status(context.Context, string) (Status, error) {
	return Status{State: StateNotFound}, nil
}

// IsDisabled reports whether p can never report a deployment, looking
// through any breaker wrapping it.
func IsDisabled(p Provider) bool {
	switch v := p.(type) {
	case nil, Disabled, *Disabled:
		return true
	case *breakerProvider:
		return IsDisabled(v.next)
	default:
		return false
	}
}
