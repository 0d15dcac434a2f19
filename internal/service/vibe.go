package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"crosswalk.app/api/common"
	"crosswalk.app/api/common/id"
	"crosswalk.app/api/common/logger"
	"crosswalk.app/api/internal/deploy"
	"crosswalk.app/api/internal/model"
	"crosswalk.app/api/internal/scm"
	"crosswalk.app/api/internal/store"
	"crosswalk.app/api/internal/vibe"
)

const (
	defaultVibeName     = "New Vibe"
	maxBranchIdentity   = 30
	comparisonFanout    = 4
	previewSourceDeploy = "deployment"
	previewSourceTree   = "repository"
)

// VibeView is a vibe with its branch's divergence from production, recomputed per request.
type VibeView struct {
	model.Vibe
	HasChanges   bool     `json:"has_changes"`
	ChangedFiles []string `json:"changed_files"`
	AheadBy      int      `json:"ahead_by"`
	BehindBy     int      `json:"behind_by"`
}

type PreviewInfo struct {
	PreviewURL string       `json:"preview_url"`
	Branch     string       `json:"branch"`
	Source     string       `json:"source"`
	State      deploy.State `json:"state"`
	Message    string       `json:"message,omitempty"`
}

type VibeService interface {
	List(ctx context.Context, userID int64) ([]VibeView, error)
	Create(ctx context.Context, userID int64, name string) (*VibeView, error)
	Get(ctx context.Context, userID, vibeID int64) (*VibeView, error)
	Delete(ctx context.Context, userID, vibeID int64) error
	Messages(ctx context.Context, userID, vibeID int64) ([]model.VibeMessage, error)
	// Revert resets the branch to production and tombstones the transcript.
	Revert(ctx context.Context, userID, vibeID int64) error
	PreviewURL(ctx context.Context, userID, vibeID int64) (*PreviewInfo, error)
	Files(ctx context.Context, userID, vibeID int64, path string) ([]scm.Entry, error)
	File(ctx context.Context, userID, vibeID int64, path string) (*scm.File, error)
	CreatePullRequest(ctx context.Context, userID, vibeID int64, title, body string) (*scm.PullRequest, error)
	// StartChat validates a message and claims the vibe's turn lock. The returned
	// ChatTurn must be run or closed.
	StartChat(ctx context.Context, userID, vibeID int64, message string) (*ChatTurn, error)
}

type vibeService struct {
	vibes    store.VibeStore
	messages store.VibeMessageStore
	users    store.UserStore
	gateway  scm.Gateway
	deploys  deploy.Provider
	chat     chatDeps
	now      func() time.Time
}

func NewVibeService(
	vibes store.VibeStore,
	messages store.VibeMessageStore,
	users store.UserStore,
	gateway scm.Gateway,
	deploys deploy.Provider,
	agent ChatAgent,
	locks TurnLocker,
) VibeService {
	if deploys == nil {
		deploys = deploy.Disabled{}
	}
	if locks == nil {
		locks = vibe.NewLocalTurnLock()
	}
	return &vibeService{
		vibes:    vibes,
		messages: messages,
		users:    users,
		gateway:  gateway,
		deploys:  deploys,
		chat:     chatDeps{agent: agent, locks: locks},
		now:      time.Now,
	}
}

func (s *vibeService) List(ctx context.Context, userID int64) ([]VibeView, error) {
	vibes, err := s.vibes.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing vibes: %w", err)
	}

	views := make([]VibeView, len(vibes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(comparisonFanout)
	for i := range vibes {
		g.Go(func() error {
			views[i] = s.view(gctx, vibes[i])
			return nil
		})
	}
	_ = g.Wait()
	return views, nil
}

func (s *vibeService) Create(ctx context.Context, userID int64, name string) (*VibeView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultVibeName
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	var email *string
	if user != nil {
		email = user.Email
	}
	branch := BranchName(userID, email, s.now())

	ctx = logger.WithLogFields(ctx, logger.LogFields{Branch: &branch})
	if _, err := s.gateway.CreateBranch(ctx, branch); err != nil {
		slog.ErrorContext(ctx, "failed to create vibe branch", "error", err)
		return nil, external("Failed to create branch", err)
	}

	v := &model.Vibe{
		ID:         id.New(),
		UserID:     userID,
		Name:       name,
		BranchName: branch,
	}
	if err := s.vibes.Create(ctx, v); err != nil {
		slog.ErrorContext(ctx, "failed to create vibe", "error", err)
		return nil, fmt.Errorf("creating vibe: %w", err)
	}

	slog.InfoContext(ctx, "vibe created", "vibe_id", v.ID)
	return &VibeView{Vibe: *v, ChangedFiles: []string{}}, nil
}

func (s *vibeService) Get(ctx context.Context, userID, vibeID int64) (*VibeView, error) {
	v, err := s.owned(ctx, userID, vibeID)
	if err != nil {
		return nil, err
	}
	view := s.view(ctx, *v)
	return &view, nil
}

func (s *vibeService) Delete(ctx context.Context, userID, vibeID int64) error {
	if _, err := s.owned(ctx, userID, vibeID); err != nil {
		return err
	}
	if err := s.vibes.SoftDelete(ctx, vibeID); err != nil {
		return fmt.Errorf("deleting vibe: %w", err)
	}
	slog.InfoContext(ctx, "vibe deleted", "vibe_id", vibeID)
	return nil
}

func (s *vibeService) Messages(ctx context.Context, userID, vibeID int64) ([]model.VibeMessage, error) {
	if _, err := s.owned(ctx, userID, vibeID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListActive(ctx, vibeID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return msgs, nil
}

func (s *vibeService) Revert(ctx context.Context, userID, vibeID int64) error {
	v, err := s.owned(ctx, userID, vibeID)
	if err != nil {
		return err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{VibeID: &v.ID, Branch: &v.BranchName})

	// A revert rewrites the branch and the transcript, so it takes the turn lock.
	release, err := s.chat.locks.Acquire(ctx, v.ID)
	if err != nil {
		if errors.Is(err, vibe.ErrTurnInProgress) {
			return conflict("A message is being processed for this vibe, try again when it finishes")
		}
		return fmt.Errorf("acquiring turn lock: %w", err)
	}
	defer release()

	if err := s.gateway.ResetBranchToProduction(ctx, v.BranchName); err != nil {
		slog.ErrorContext(ctx, "failed to reset vibe branch", "error", err)
		return external("Failed to revert", err)
	}

	cleared, err := s.messages.SoftDeleteByVibe(ctx, v.ID)
	if err != nil {
		return fmt.Errorf("clearing transcript: %w", err)
	}

	slog.InfoContext(ctx, "vibe reverted", "messages_cleared", cleared)
	return nil
}

func (s *vibeService) PreviewURL(ctx context.Context, userID, vibeID int64) (*PreviewInfo, error) {
	v, err := s.owned(ctx, userID, vibeID)
	if err != nil {
		return nil, err
	}

	status, err := s.deploys.Status(ctx, v.BranchName)
	if err != nil {
		slog.WarnContext(ctx, "deployment status lookup failed", "error", err, "branch", v.BranchName)
		status = deploy.Status{State: deploy.StateNotFound}
	}

	if status.State == deploy.StateReady && status.URL != "" {
		return &PreviewInfo{
			PreviewURL: status.URL,
			Branch:     v.BranchName,
			Source:     previewSourceDeploy,
			State:      status.State,
		}, nil
	}
	return &PreviewInfo{
		PreviewURL: s.gateway.TreeURL(v.BranchName),
		Branch:     v.BranchName,
		Source:     previewSourceTree,
		State:      status.State,
		Message:    "No deployment found yet. Push a commit to trigger a preview.",
	}, nil
}

func (s *vibeService) Files(ctx context.Context, userID, vibeID int64, path string) ([]scm.Entry, error) {
	v, err := s.owned(ctx, userID, vibeID)
	if err != nil {
		return nil, err
	}
	entries := s.gateway.ListFiles(ctx, path, v.BranchName)
	if entries == nil {
		entries = []scm.Entry{}
	}
	return entries, nil
}

func (s *vibeService) File(ctx context.Context, userID, vibeID int64, path string) (*scm.File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, validation("Path is required")
	}
	v, err := s.owned(ctx, userID, vibeID)
	if err != nil {
		return nil, err
	}

	file, err := s.gateway.GetFile(ctx, path, v.BranchName)
	if err != nil {
		return nil, external("Failed to get file", err)
	}
	if file == nil {
		return nil, notFound("File not found")
	}
	return file, nil
}

func (s *vibeService) CreatePullRequest(ctx context.Context, userID, vibeID int64, title, body string) (*scm.PullRequest, error) {
	v, err := s.owned(ctx, userID, vibeID)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{VibeID: &v.ID, Branch: &v.BranchName})

	cmp := s.gateway.CompareBranch(ctx, v.BranchName)
	if cmp.AheadBy == 0 {
		return nil, validation("No changes to submit")
	}

	if strings.TrimSpace(title) == "" {
		name := "a user"
		if user, err := s.users.GetByID(ctx, userID); err == nil && user.Name != nil {
			name = *user.Name
		}
		title = "Vibe changes from " + name
	}
	if strings.TrimSpace(body) == "" {
		body = pullRequestBody(v, cmp.Files)
	}

	pr, err := s.gateway.CreatePullRequest(ctx, v.BranchName, title, body)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create pull request", "error", err)
		return nil, external("Failed to create PR", err)
	}

	slog.InfoContext(ctx, "pull request ready", "number", pr.Number)
	return pr, nil
}

// owned hides vibes of other users behind the same NotFound as missing ones.
func (s *vibeService) owned(ctx context.Context, userID, vibeID int64) (*model.Vibe, error) {
	v, err := s.vibes.GetByID(ctx, vibeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Vibe not found")
		}
		return nil, fmt.Errorf("getting vibe: %w", err)
	}
	if v.UserID != userID || v.DeletedAt != nil {
		return nil, notFound("Vibe not found")
	}
	return v, nil
}

func (s *vibeService) view(ctx context.Context, v model.Vibe) VibeView {
	cmp := s.gateway.CompareBranch(ctx, v.BranchName)
	files := cmp.Files
	if files == nil {
		files = []string{}
	}
	return VibeView{
		Vibe:         v,
		HasChanges:   cmp.AheadBy > 0,
		ChangedFiles: files,
		AheadBy:      cmp.AheadBy,
		BehindBy:     cmp.BehindBy,
	}
}

// BranchName derives "vibe/<identity>-<base36 millis>" from the owner's email, or id when there is none.
func BranchName(userID int64, email *string, now time.Time) string {
	var address string
	if email != nil {
		address = *email
	}
	identity, err := common.Slugify(address, strconv.FormatInt(userID, 10))
	if err != nil {
		identity = "walker"
	}
	identity = common.TruncateSlug(identity, maxBranchIdentity)
	return fmt.Sprintf("vibe/%s-%s", identity, strconv.FormatInt(now.UnixMilli(), 36))
}

func pullRequestBody(v *model.Vibe, files []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Changes made in the vibe %q.\n\nFiles changed:\n", v.Name)
	for _, f := range files {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	return strings.TrimRight(b.String(), "\n")
}
