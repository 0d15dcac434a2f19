package vibe

import (
	"context"
	"log/slog"
	"time"

	"crosswalk.app/api/internal/deploy"
)

var deploymentMessages = map[deploy.State]string{
	deploy.StateQueued:   "🚀 Deployment queued...",
	deploy.StateBuilding: "🔨 Building preview...",
	deploy.StateReady:    "✅ Preview ready!",
	deploy.StateError:    "❌ Build failed",
}

// pollDeployment follows the preview build of the branch after a commit.
// It emits on state changes only and stops at READY, ERROR or when the
// attempt budget runs out. Provider errors count as "nothing new yet".
func (a *Agent) pollDeployment(ctx context.Context, t *turn) {
	branch := t.req.Vibe.BranchName
	last := deploy.StateQueued
	a.emitDeployment(t, deploy.Status{State: last})

	ticker := time.NewTicker(a.cfg.DeployPollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= a.cfg.DeployPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status, err := a.deploy.Status(ctx, branch)
		if err != nil {
			slog.DebugContext(ctx, "deployment status unavailable",
				"attempt", attempt,
				"error", err)
			continue
		}

		if status.State == last || status.State == deploy.StateNotFound {
			continue
		}
		last = status.State
		a.emitDeployment(t, status)

		if status.State.Terminal() {
			slog.InfoContext(ctx, "deployment settled",
				"state", string(status.State),
				"attempts", attempt)
			return
		}
	}

	slog.InfoContext(ctx, "deployment polling gave up",
		"last_state", string(last),
		"attempts", a.cfg.DeployPollAttempts)
}

func (a *Agent) emitDeployment(t *turn, status deploy.Status) {
	a.metrics.ObserveDeploymentState(string(status.State))
	ev := &DeploymentEvent{State: status.State}
	if status.State == deploy.StateReady {
		ev.URL = status.URL
	}
	t.emit.Emit(Event{
		Type:            EventDeployment,
		Message:         deploymentMessages[status.State],
		DeploymentEvent: ev,
	})
}
