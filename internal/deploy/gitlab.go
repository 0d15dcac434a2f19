package deploy

import (
	"context"
	"fmt"
	"strings"

	"crosswalk.app/api/core/config"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// GitLabPipelines treats the newest pipeline on the branch as its deployment.
type GitLabPipelines struct {
	client  *gitlab.Client
	project string
}

func NewGitLabPipelines(cfg config.SCMConfig) (*GitLabPipelines, error) {
	instance := strings.TrimSuffix(cfg.BaseURL, "/")
	if instance == "" {
		instance = "https://gitlab.com"
	}
	client, err := gitlab.NewClient(cfg.Token, gitlab.WithBaseURL(instance+"/api/v4"))
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}
	return &GitLabPipelines{client: client, project: cfg.Project}, nil
}

func (p *GitLabPipelines) Status(ctx context.Context, branch string) (Status, error) {
	pipelines, _, err := p.client.Pipelines.ListProjectPipelines(p.project, &gitlab.ListProjectPipelinesOptions{
		ListOptions: gitlab.ListOptions{PerPage: 1},
		Ref:         gitlab.Ptr(branch),
		OrderBy:     gitlab.Ptr("id"),
		Sort:        gitlab.Ptr("desc"),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return Status{}, fmt.Errorf("listing pipelines for %s: %w", branch, err)
	}
	if len(pipelines) == 0 {
		return Status{State: StateNotFound}, nil
	}

	latest := pipelines[0]
	status := Status{State: mapPipelineStatus(latest.Status)}
	if status.State == StateReady {
		status.URL = latest.WebURL
	}
	return status, nil
}

func mapPipelineStatus(s string) State {
	switch s {
	case "created", "waiting_for_resource", "preparing", "pending", "scheduled", "manual":
		return StateQueued
	case "running":
		return StateBuilding
	case "success":
		return StateReady
	case "failed", "canceled", "skipped":
		return StateError
	default:
		return StateNotFound
	}
}
