package scm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"crosswalk.app/api/common/logger"
	"crosswalk.app/api/core/config"
	"github.com/google/go-github/v66/github"
)

const defaultGitHubWebURL = "https://github.com"

type gitHubGateway struct {
	client     *github.Client
	owner      string
	repo       string
	production string
	webURL     string
}

// NewGitHubGateway targets cfg.Owner/cfg.Repo. A cfg.BaseURL selects a GitHub Enterprise instance.
func NewGitHubGateway(cfg config.SCMConfig) (Gateway, error) {
	if cfg.Token == "" || cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github gateway needs a token, owner and repo")
	}

	client := github.NewClient(nil).WithAuthToken(cfg.Token)
	webURL := defaultGitHubWebURL
	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("configuring github enterprise urls: %w", err)
		}
		webURL = strings.TrimSuffix(strings.TrimSuffix(cfg.BaseURL, "/"), "/api/v3")
	}

	return newGitHubGateway(client, cfg, webURL), nil
}

func newGitHubGateway(client *github.Client, cfg config.SCMConfig, webURL string) *gitHubGateway {
	return &gitHubGateway{
		client:     client,
		owner:      cfg.Owner,
		repo:       cfg.Repo,
		production: productionBranch(cfg),
		webURL:     webURL,
	}
}

func (g *gitHubGateway) ProductionBranch() string {
	return g.production
}

func (g *gitHubGateway) TreeURL(branch string) string {
	return fmt.Sprintf("%s/%s/%s/tree/%s", g.webURL, g.owner, g.repo, branch)
}

func (g *gitHubGateway) CreateBranch(ctx context.Context, name string) (*Branch, error) {
	ctx = g.logCtx(ctx, name)

	base, err := g.headSHA(ctx, g.production)
	if err != nil {
		return nil, &Error{Op: "create branch", Branch: name, Err: err}
	}

	_, resp, err := g.client.Git.CreateRef(ctx, g.owner, g.repo, &github.Reference{
		Ref:    github.Ptr("refs/heads/" + name),
		Object: &github.GitObject{SHA: github.Ptr(base)},
	})
	if err == nil {
		slog.InfoContext(ctx, "branch created", "from", g.production, "sha", base)
		return &Branch{Name: name, SHA: base, URL: g.TreeURL(name)}, nil
	}

	// 422 "Reference already exists".
	if githubStatus(resp) == http.StatusUnprocessableEntity {
		if sha, getErr := g.headSHA(ctx, name); getErr == nil {
			slog.DebugContext(ctx, "branch already exists")
			return &Branch{Name: name, SHA: sha, URL: g.TreeURL(name)}, nil
		}
	}
	return nil, &Error{Op: "create branch", Branch: name, Err: err}
}

func (g *gitHubGateway) GetFile(ctx context.Context, path, branch string) (*File, error) {
	file, _, resp, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path, &github.RepositoryContentGetOptions{
		Ref: branch,
	})
	if err != nil {
		if githubStatus(resp) == http.StatusNotFound {
			return nil, nil
		}
		return nil, &Error{Op: "get file " + path, Branch: branch, Err: err}
	}
	// A directory at path is not a file.
	if file == nil {
		return nil, nil
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, &Error{Op: "decode file " + path, Branch: branch, Err: err}
	}
	return &File{Path: file.GetPath(), Content: content, SHA: file.GetSHA()}, nil
}

func (g *gitHubGateway) CommitFiles(ctx context.Context, branch string, changes []FileChange, message string) (*Commit, error) {
	ctx = g.logCtx(ctx, branch)
	if len(changes) == 0 {
		return nil, &Error{Op: "commit", Branch: branch, Err: errors.New("no changes")}
	}

	head, err := g.headSHA(ctx, branch)
	if err != nil {
		return nil, &Error{Op: "commit", Branch: branch, Err: err}
	}

	parent, _, err := g.client.Git.GetCommit(ctx, g.owner, g.repo, head)
	if err != nil {
		return nil, &Error{Op: "commit", Branch: branch, Err: fmt.Errorf("reading head commit: %w", err)}
	}

	entries := make([]*github.TreeEntry, 0, len(changes))
	for _, ch := range changes {
		entry := &github.TreeEntry{
			Path: github.Ptr(ch.Path),
			Mode: github.Ptr("100644"),
			Type: github.Ptr("blob"),
		}
		switch ch.Action {
		case ActionUpsert:
			entry.Content = github.Ptr(ch.Content)
		case ActionDelete:
			// nil SHA and nil Content serialize as "sha": null, which deletes the path.
		default:
			return nil, &Error{Op: "commit", Branch: branch, Err: fmt.Errorf("unknown action %q for %s", ch.Action, ch.Path)}
		}
		entries = append(entries, entry)
	}

	tree, _, err := g.client.Git.CreateTree(ctx, g.owner, g.repo, parent.GetTree().GetSHA(), entries)
	if err != nil {
		return nil, &Error{Op: "commit", Branch: branch, Err: fmt.Errorf("creating tree: %w", err)}
	}

	commit, _, err := g.client.Git.CreateCommit(ctx, g.owner, g.repo, &github.Commit{
		Message: github.Ptr(message),
		Tree:    &github.Tree{SHA: tree.SHA},
		Parents: []*github.Commit{{SHA: github.Ptr(head)}},
	}, nil)
	if err != nil {
		return nil, &Error{Op: "commit", Branch: branch, Err: fmt.Errorf("creating commit: %w", err)}
	}

	if _, _, err := g.client.Git.UpdateRef(ctx, g.owner, g.repo, &github.Reference{
		Ref:    github.Ptr("refs/heads/" + branch),
		Object: &github.GitObject{SHA: commit.SHA},
	}, false); err != nil {
		return nil, &Error{Op: "commit", Branch: branch, Err: fmt.Errorf("moving branch: %w", err)}
	}

	slog.InfoContext(ctx, "files committed", "sha", commit.GetSHA(), "files", len(changes))
	return &Commit{SHA: commit.GetSHA(), URL: commit.GetHTMLURL()}, nil
}

func (g *gitHubGateway) CompareBranch(ctx context.Context, branch string) Comparison {
	cmp, _, err := g.client.Repositories.CompareCommits(ctx, g.owner, g.repo, g.production, branch, nil)
	if err != nil {
		warnDecorative(ctx, "compare", branch, err)
		return Comparison{}
	}

	out := Comparison{
		AheadBy:  cmp.GetAheadBy(),
		BehindBy: cmp.GetBehindBy(),
		Files:    make([]string, 0, len(cmp.Files)),
	}
	for _, f := range cmp.Files {
		out.Files = append(out.Files, f.GetFilename())
	}
	return out
}

func (g *gitHubGateway) CreatePullRequest(ctx context.Context, branch, title, body string) (*PullRequest, error) {
	ctx = g.logCtx(ctx, branch)

	open, _, err := g.client.PullRequests.List(ctx, g.owner, g.repo, &github.PullRequestListOptions{
		State: "open",
		Head:  g.owner + ":" + branch,
		Base:  g.production,
	})
	if err != nil {
		return nil, &Error{Op: "list pull requests", Branch: branch, Err: err}
	}
	if len(open) > 0 {
		slog.DebugContext(ctx, "reusing open pull request", "number", open[0].GetNumber())
		return &PullRequest{Number: int64(open[0].GetNumber()), URL: open[0].GetHTMLURL()}, nil
	}

	pr, _, err := g.client.PullRequests.Create(ctx, g.owner, g.repo, &github.NewPullRequest{
		Title: github.Ptr(title),
		Head:  github.Ptr(branch),
		Base:  github.Ptr(g.production),
		Body:  github.Ptr(body),
	})
	if err != nil {
		return nil, &Error{Op: "create pull request", Branch: branch, Err: err}
	}

	slog.InfoContext(ctx, "pull request opened", "number", pr.GetNumber())
	return &PullRequest{Number: int64(pr.GetNumber()), URL: pr.GetHTMLURL()}, nil
}

func (g *gitHubGateway) ResetBranchToProduction(ctx context.Context, branch string) error {
	ctx = g.logCtx(ctx, branch)
	if branch == g.production {
		return &Error{Op: "reset", Branch: branch, Err: errors.New("refusing to reset the production branch")}
	}

	sha, err := g.headSHA(ctx, g.production)
	if err != nil {
		return &Error{Op: "reset", Branch: branch, Err: err}
	}

	if _, _, err := g.client.Git.UpdateRef(ctx, g.owner, g.repo, &github.Reference{
		Ref:    github.Ptr("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.Ptr(sha)},
	}, true); err != nil {
		return &Error{Op: "reset", Branch: branch, Err: err}
	}

	slog.InfoContext(ctx, "branch reset to production", "sha", sha)
	return nil
}

func (g *gitHubGateway) ListFiles(ctx context.Context, path, branch string) []Entry {
	_, dir, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, strings.Trim(path, "/"), &github.RepositoryContentGetOptions{
		Ref: branch,
	})
	if err != nil {
		warnDecorative(ctx, "list contents", branch, err)
		return []Entry{}
	}

	entries := make([]Entry, 0, len(dir))
	for _, item := range dir {
		kind := EntryFile
		if item.GetType() == "dir" {
			kind = EntryDir
		}
		entries = append(entries, Entry{Name: item.GetName(), Path: item.GetPath(), Kind: kind})
	}
	return entries
}

func (g *gitHubGateway) headSHA(ctx context.Context, branch string) (string, error) {
	ref, _, err := g.client.Git.GetRef(ctx, g.owner, g.repo, "refs/heads/"+branch)
	if err != nil {
		return "", fmt.Errorf("reading ref %s: %w", branch, err)
	}
	return ref.GetObject().GetSHA(), nil
}

func (g *gitHubGateway) logCtx(ctx context.Context, branch string) context.Context {
	return logger.WithLogFields(ctx, logger.LogFields{
		Branch:    logger.Ptr(branch),
		Component: "crosswalk.scm.github",
	})
}

func githubStatus(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
