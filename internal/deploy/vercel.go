package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crosswalk.app/api/core/config"
)

type Vercel struct {
	httpClient *http.Client
	baseURL    string
	token      string
	teamID     string
	projectID  string
}

func NewVercel(cfg config.DeployConfig) *Vercel {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := strings.TrimSuffix(cfg.VercelBaseURL, "/")
	if base == "" {
		base = "https://api.vercel.com"
	}
	return &Vercel{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		token:      cfg.VercelToken,
		teamID:     cfg.VercelTeamID,
		projectID:  cfg.VercelProject,
	}
}

type vercelDeployment struct {
	UID        string            `json:"uid"`
	URL        string            `json:"url"`
	State      string            `json:"state"`
	ReadyState string            `json:"readyState"`
	Meta       map[string]string `json:"meta"`
	CreatedAt  int64             `json:"createdAt"`
}

// Status returns the newest deployment whose git ref is branch.
func (v *Vercel) Status(ctx context.Context, branch string) (Status, error) {
	params := url.Values{}
	params.Set("limit", "20")
	params.Set("projectId", v.projectID)
	if v.teamID != "" {
		params.Set("teamId", v.teamID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/v6/deployments?"+params.Encode(), nil)
	if err != nil {
		return Status{}, fmt.Errorf("building vercel request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+v.token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("listing vercel deployments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Status{}, fmt.Errorf("vercel deployments: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Deployments []vercelDeployment `json:"deployments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Status{}, fmt.Errorf("decoding vercel deployments: %w", err)
	}

	var latest *vercelDeployment
	for i := range payload.Deployments {
		d := &payload.Deployments[i]
		if d.Meta["githubCommitRef"] != branch && d.Meta["gitlabCommitRef"] != branch {
			continue
		}
		if latest == nil || d.CreatedAt > latest.CreatedAt {
			latest = d
		}
	}
	if latest == nil {
		return Status{State: StateNotFound}, nil
	}

	state := latest.State
	if state == "" {
		state = latest.ReadyState
	}
	status := Status{State: mapVercelState(state)}
	if status.State == StateReady && latest.URL != "" {
		status.URL = "https://" + latest.URL
	}

	slog.DebugContext(ctx, "vercel deployment status",
		"branch", branch,
		"deployment", latest.UID,
		"state", state)
	return status, nil
}

func mapVercelState(s string) State {
	switch strings.ToUpper(s) {
	case "QUEUED", "INITIALIZING":
		return StateQueued
	case "BUILDING":
		return StateBuilding
	case "READY":
		return StateReady
	case "ERROR", "CANCELED":
		return StateError
	default:
		return StateNotFound
	}
}
