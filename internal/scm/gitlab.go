package scm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"crosswalk.app/api/common/logger"
	"crosswalk.app/api/core/config"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const defaultGitLabURL = "https://gitlab.com"

type gitLabGateway struct {
	client     *gitlab.Client
	project    string
	production string
	webURL     string
}

// NewGitLabGateway targets cfg.Project on the instance at cfg.BaseURL (gitlab.com when empty).
func NewGitLabGateway(cfg config.SCMConfig) (Gateway, error) {
	if cfg.Token == "" || cfg.Project == "" {
		return nil, fmt.Errorf("gitlab gateway needs a token and a project")
	}

	instance := strings.TrimSuffix(cfg.BaseURL, "/")
	if instance == "" {
		instance = defaultGitLabURL
	}

	client, err := gitlab.NewClient(cfg.Token, gitlab.WithBaseURL(instance+"/api/v4"))
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}

	return &gitLabGateway{
		client:     client,
		project:    cfg.Project,
		production: productionBranch(cfg),
		webURL:     instance + "/" + cfg.Project,
	}, nil
}

func (g *gitLabGateway) ProductionBranch() string {
	return g.production
}

func (g *gitLabGateway) TreeURL(branch string) string {
	return g.webURL + "/-/tree/" + url.PathEscape(branch)
}

func (g *gitLabGateway) CreateBranch(ctx context.Context, name string) (*Branch, error) {
	ctx = g.logCtx(ctx, name)

	created, _, err := g.client.Branches.CreateBranch(g.project, &gitlab.CreateBranchOptions{
		Branch: gitlab.Ptr(name),
		Ref:    gitlab.Ptr(g.production),
	}, gitlab.WithContext(ctx))
	if err == nil {
		slog.InfoContext(ctx, "branch created", "from", g.production)
		return g.toBranch(created), nil
	}

	// GitLab answers 400 "Branch already exists"; confirm by reading it back.
	existing, resp, getErr := g.client.Branches.GetBranch(g.project, name, gitlab.WithContext(ctx))
	if getErr == nil {
		slog.DebugContext(ctx, "branch already exists")
		return g.toBranch(existing), nil
	}
	if !isStatus(resp, http.StatusNotFound) {
		slog.WarnContext(ctx, "branch lookup after failed create also failed", "error", getErr)
	}
	return nil, &Error{Op: "create branch", Branch: name, Err: err}
}

func (g *gitLabGateway) GetFile(ctx context.Context, path, branch string) (*File, error) {
	f, resp, err := g.client.RepositoryFiles.GetFile(g.project, path, &gitlab.GetFileOptions{
		Ref: gitlab.Ptr(branch),
	}, gitlab.WithContext(ctx))
	if err != nil {
		if isStatus(resp, http.StatusNotFound) {
			return nil, nil
		}
		return nil, &Error{Op: "get file " + path, Branch: branch, Err: err}
	}

	content := f.Content
	if f.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(f.Content)
		if err != nil {
			return nil, &Error{Op: "decode file " + path, Branch: branch, Err: err}
		}
		content = string(decoded)
	}

	return &File{Path: f.FilePath, Content: content, SHA: f.BlobID}, nil
}

func (g *gitLabGateway) CommitFiles(ctx context.Context, branch string, changes []FileChange, message string) (*Commit, error) {
	ctx = g.logCtx(ctx, branch)
	if len(changes) == 0 {
		return nil, &Error{Op: "commit", Branch: branch, Err: errors.New("no changes")}
	}

	actions := make([]*gitlab.CommitActionOptions, 0, len(changes))
	for _, ch := range changes {
		action, err := g.fileAction(ctx, branch, ch)
		if err != nil {
			return nil, &Error{Op: "commit", Branch: branch, Err: err}
		}
		opt := &gitlab.CommitActionOptions{
			Action:   gitlab.Ptr(action),
			FilePath: gitlab.Ptr(ch.Path),
		}
		if action != gitlab.FileDelete {
			opt.Content = gitlab.Ptr(ch.Content)
		}
		actions = append(actions, opt)
	}

	c, _, err := g.client.Commits.CreateCommit(g.project, &gitlab.CreateCommitOptions{
		Branch:        gitlab.Ptr(branch),
		CommitMessage: gitlab.Ptr(message),
		Actions:       actions,
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, &Error{Op: "commit", Branch: branch, Err: err}
	}

	slog.InfoContext(ctx, "files committed", "sha", c.ID, "files", len(changes))
	return &Commit{SHA: c.ID, URL: c.WebURL}, nil
}

// fileAction maps an upsert to create or update, which GitLab distinguishes.
func (g *gitLabGateway) fileAction(ctx context.Context, branch string, ch FileChange) (gitlab.FileActionValue, error) {
	switch ch.Action {
	case ActionDelete:
		return gitlab.FileDelete, nil
	case ActionUpsert:
		_, resp, err := g.client.RepositoryFiles.GetFileMetaData(g.project, ch.Path, &gitlab.GetFileMetaDataOptions{
			Ref: gitlab.Ptr(branch),
		}, gitlab.WithContext(ctx))
		if err == nil {
			return gitlab.FileUpdate, nil
		}
		if isStatus(resp, http.StatusNotFound) {
			return gitlab.FileCreate, nil
		}
		return "", fmt.Errorf("checking %s: %w", ch.Path, err)
	default:
		return "", fmt.Errorf("unknown action %q for %s", ch.Action, ch.Path)
	}
}

func (g *gitLabGateway) CompareBranch(ctx context.Context, branch string) Comparison {
	ahead, _, err := g.client.Repositories.Compare(g.project, &gitlab.CompareOptions{
		From: gitlab.Ptr(g.production),
		To:   gitlab.Ptr(branch),
	}, gitlab.WithContext(ctx))
	if err != nil {
		warnDecorative(ctx, "compare", branch, err)
		return Comparison{}
	}

	out := Comparison{AheadBy: len(ahead.Commits), Files: []string{}}
	for _, d := range ahead.Diffs {
		path := d.NewPath
		if d.DeletedFile {
			path = d.OldPath
		}
		out.Files = append(out.Files, path)
	}

	behind, _, err := g.client.Repositories.Compare(g.project, &gitlab.CompareOptions{
		From: gitlab.Ptr(branch),
		To:   gitlab.Ptr(g.production),
	}, gitlab.WithContext(ctx))
	if err != nil {
		warnDecorative(ctx, "compare behind", branch, err)
		return out
	}
	out.BehindBy = len(behind.Commits)
	return out
}

func (g *gitLabGateway) CreatePullRequest(ctx context.Context, branch, title, body string) (*PullRequest, error) {
	ctx = g.logCtx(ctx, branch)

	open, _, err := g.client.MergeRequests.ListProjectMergeRequests(g.project, &gitlab.ListProjectMergeRequestsOptions{
		State:        gitlab.Ptr("opened"),
		SourceBranch: gitlab.Ptr(branch),
		TargetBranch: gitlab.Ptr(g.production),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, &Error{Op: "list merge requests", Branch: branch, Err: err}
	}
	if len(open) > 0 {
		slog.DebugContext(ctx, "reusing open merge request", "iid", open[0].IID)
		return &PullRequest{Number: int64(open[0].IID), URL: open[0].WebURL}, nil
	}

	mr, _, err := g.client.MergeRequests.CreateMergeRequest(g.project, &gitlab.CreateMergeRequestOptions{
		Title:        gitlab.Ptr(title),
		Description:  gitlab.Ptr(body),
		SourceBranch: gitlab.Ptr(branch),
		TargetBranch: gitlab.Ptr(g.production),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, &Error{Op: "create merge request", Branch: branch, Err: err}
	}

	slog.InfoContext(ctx, "merge request opened", "iid", mr.IID)
	return &PullRequest{Number: int64(mr.IID), URL: mr.WebURL}, nil
}

// ResetBranchToProduction deletes and recreates the branch; GitLab has no force ref update.
func (g *gitLabGateway) ResetBranchToProduction(ctx context.Context, branch string) error {
	ctx = g.logCtx(ctx, branch)
	if branch == g.production {
		return &Error{Op: "reset", Branch: branch, Err: errors.New("refusing to reset the production branch")}
	}

	resp, err := g.client.Branches.DeleteBranch(g.project, branch, gitlab.WithContext(ctx))
	if err != nil && !isStatus(resp, http.StatusNotFound) {
		return &Error{Op: "reset", Branch: branch, Err: err}
	}

	if _, _, err := g.client.Branches.CreateBranch(g.project, &gitlab.CreateBranchOptions{
		Branch: gitlab.Ptr(branch),
		Ref:    gitlab.Ptr(g.production),
	}, gitlab.WithContext(ctx)); err != nil {
		return &Error{Op: "reset", Branch: branch, Err: err}
	}

	slog.InfoContext(ctx, "branch reset to production")
	return nil
}

func (g *gitLabGateway) ListFiles(ctx context.Context, path, branch string) []Entry {
	opt := &gitlab.ListTreeOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
		Ref:         gitlab.Ptr(branch),
	}
	if p := strings.Trim(path, "/"); p != "" {
		opt.Path = gitlab.Ptr(p)
	}

	nodes, _, err := g.client.Repositories.ListTree(g.project, opt, gitlab.WithContext(ctx))
	if err != nil {
		warnDecorative(ctx, "list tree", branch, err)
		return []Entry{}
	}

	entries := make([]Entry, 0, len(nodes))
	for _, n := range nodes {
		kind := EntryFile
		if n.Type == "tree" {
			kind = EntryDir
		}
		entries = append(entries, Entry{Name: n.Name, Path: n.Path, Kind: kind})
	}
	return entries
}

func (g *gitLabGateway) toBranch(b *gitlab.Branch) *Branch {
	out := &Branch{Name: b.Name, URL: b.WebURL}
	if b.Commit != nil {
		out.SHA = b.Commit.ID
	}
	if out.URL == "" {
		out.URL = g.TreeURL(b.Name)
	}
	return out
}

func (g *gitLabGateway) logCtx(ctx context.Context, branch string) context.Context {
	return logger.WithLogFields(ctx, logger.LogFields{
		Branch:    logger.Ptr(branch),
		Component: "crosswalk.scm.gitlab",
	})
}

func isStatus(resp *gitlab.Response, code int) bool {
	return resp != nil && resp.Response != nil && resp.StatusCode == code
}
