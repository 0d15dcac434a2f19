// Package scm talks to the repository host that stores the app's source.
// Every vibe works on its own branch, created from and compared against the
// production branch.
package scm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"crosswalk.app/api/core/config"
)

type Action string

const (
	ActionUpsert Action = "upsert"
	ActionDelete Action = "delete"
)

type EntryKind string

const (
	EntryFile EntryKind = "file"
	EntryDir  EntryKind = "dir"
)

type Branch struct {
	Name string `json:"name"`
	SHA  string `json:"sha"`
	URL  string `json:"url"`
}

type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	// SHA identifies the blob revision the content was read at.
	SHA string `json:"sha"`
}

type FileChange struct {
	Path    string
	Content string // ignored for ActionDelete
	Action  Action
}

type Commit struct {
	SHA string `json:"sha"`
	URL string `json:"url"`
}

// ShortSHA is the 7-character form shown to users.
func (c *Commit) ShortSHA() string {
	if len(c.SHA) > 7 {
		return c.SHA[:7]
	}
	return c.SHA
}

// Comparison is a branch's divergence from production. Recomputed on every request.
type Comparison struct {
	AheadBy  int      `json:"ahead_by"`
	BehindBy int      `json:"behind_by"`
	Files    []string `json:"files"`
}

type PullRequest struct {
	Number int64  `json:"number"`
	URL    string `json:"url"`
}

type Entry struct {
	Name string    `json:"name"`
	Path string    `json:"path"`
	Kind EntryKind `json:"type"`
}

// Gateway hides the host API behind branch, file, diff and pull-request operations.
//
// Mutating calls (CreateBranch, CommitFiles, CreatePullRequest, ResetBranchToProduction)
// return *Error on failure. Read-only calls used for status display swallow host
// failures: CompareBranch returns a zero Comparison and ListFiles an empty list.
type Gateway interface {
	// CreateBranch branches from production. An existing branch is returned as is.
	CreateBranch(ctx context.Context, name string) (*Branch, error)
	// GetFile returns nil, nil when the file does not exist on branch.
	GetFile(ctx context.Context, path, branch string) (*File, error)
	// CommitFiles applies all changes in one commit on top of the branch head.
	CommitFiles(ctx context.Context, branch string, changes []FileChange, message string) (*Commit, error)
	CompareBranch(ctx context.Context, branch string) Comparison
	// CreatePullRequest returns the open pull request for branch if there already is one.
	CreatePullRequest(ctx context.Context, branch, title, body string) (*PullRequest, error)
	// ResetBranchToProduction force-moves branch to the production head, discarding its commits.
	ResetBranchToProduction(ctx context.Context, branch string) error
	ListFiles(ctx context.Context, path, branch string) []Entry
	// TreeURL is the web URL for browsing branch.
	TreeURL(branch string) string
	ProductionBranch() string
}

// Error reports a failed host operation.
type Error struct {
	Op     string
	Branch string
	Err    error
}

func (e *Error) Error() string {
	if e.Branch == "" {
		return fmt.Sprintf("scm %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("scm %s on %s: %v", e.Op, e.Branch, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrUnsupportedProvider is returned by New for an unknown SCM_PROVIDER.
var ErrUnsupportedProvider = errors.New("unsupported scm provider")

// New builds the gateway selected by cfg.Provider.
func New(cfg config.SCMConfig) (Gateway, error) {
	switch cfg.Provider {
	case "gitlab":
		return NewGitLabGateway(cfg)
	case "github":
		return NewGitHubGateway(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}

func productionBranch(cfg config.SCMConfig) string {
	if cfg.ProductionBranch == "" {
		return "main"
	}
	return cfg.ProductionBranch
}

func warnDecorative(ctx context.Context, op, branch string, err error) {
	slog.WarnContext(ctx, "scm status lookup failed, returning empty result",
		"op", op,
		"branch", branch,
		"error", err)
}
