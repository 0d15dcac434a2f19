// Package vibe runs the chat turns that let a user change the app's code.
//
// A turn replays the conversation, lets the model call read_file, write_file
// and list_files against the vibe's branch until it answers without tools,
// persists both sides of the exchange and, when something was committed,
// follows the preview deployment until it settles.
package vibe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"crosswalk.app/api/common/id"
	"crosswalk.app/api/common/llm"
	"crosswalk.app/api/common/logger"
	"crosswalk.app/api/core/config"
	"crosswalk.app/api/internal/deploy"
	"crosswalk.app/api/internal/model"
	"crosswalk.app/api/internal/scm"
)

const (
	placeholderWrote    = "Done! I've made the changes you requested."
	placeholderReviewed = "I've reviewed the code. Let me know what changes you'd like!"

	msgModelFailed      = "Failed to get AI response"
	msgModelUnavailable = "AI temporarily unavailable, please try again"

	toolsUsedPreview = 100
)

// Turn outcomes recorded in metrics.
const (
	OutcomeCompleted = "completed"
	OutcomeRepaired  = "repaired"
	OutcomeCeiling   = "ceiling"
	OutcomeDetached  = "detached"
	OutcomeError     = "error"
)

// Transcript is the conversation store as the agent needs it.
type Transcript interface {
	// ListRecent returns the latest limit non-deleted, non-empty messages, oldest first.
	ListRecent(ctx context.Context, vibeID int64, limit int) ([]model.VibeMessage, error)
	Create(ctx context.Context, msg *model.VibeMessage) error
}

// Recorder receives turn metrics.
type Recorder interface {
	ObserveVibeTurn(outcome string)
	ObserveToolCall(tool, result string)
	ObserveDeploymentState(state string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveVibeTurn(string)         {}
func (nopRecorder) ObserveToolCall(string, string) {}
func (nopRecorder) ObserveDeploymentState(string)  {}

type Agent struct {
	llm        llm.AgentClient
	scm        scm.Gateway
	deploy     deploy.Provider
	transcript Transcript
	cfg        config.VibeConfig
	promises   *PromiseMatcher
	metrics    Recorder
}

type Option func(*Agent)

func WithRecorder(r Recorder) Option {
	return func(a *Agent) {
		if r != nil {
			a.metrics = r
		}
	}
}

func NewAgent(client llm.AgentClient, gateway scm.Gateway, provider deploy.Provider, transcript Transcript, cfg config.VibeConfig, opts ...Option) (*Agent, error) {
	pattern := cfg.PromisePattern
	if pattern == "" {
		pattern = config.DefaultPromisePattern
	}
	promises, err := NewPromiseMatcher(pattern)
	if err != nil {
		return nil, err
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 20
	}
	if cfg.RepairIterations <= 0 {
		cfg.RepairIterations = cfg.MaxIterations
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	if cfg.DeployPollInterval <= 0 {
		cfg.DeployPollInterval = 3 * time.Second
	}
	if cfg.DeployPollAttempts <= 0 {
		cfg.DeployPollAttempts = 30
	}
	if provider == nil {
		provider = deploy.Disabled{}
	}

	a := &Agent{
		llm:        client,
		scm:        gateway,
		deploy:     provider,
		transcript: transcript,
		cfg:        cfg,
		promises:   promises,
		metrics:    nopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Request is one user message sent to a vibe.
type Request struct {
	Vibe    model.Vibe
	UserID  int64
	Message string
	// Detached reports whether the client went away. Only consulted when
	// CancelOnDisconnect is set, and only before a model call.
	Detached func() bool
}

// Result is what the turn produced.
type Result struct {
	Message    string
	ToolsUsed  []string
	Wrote      bool
	Iterations int
	Repaired   bool
	Outcome    string
}

// turn is the mutable state of one Run.
type turn struct {
	req        Request
	tools      *Tools
	emit       Emitter
	system     string
	toolsUsed  []string
	wrote      bool
	iterations int
	repaired   bool
}

// Run executes one turn and streams its progress to emit. The returned error
// is non-nil only when the turn failed, in which case an error event has
// already been emitted.
func (a *Agent) Run(ctx context.Context, req Request, emit Emitter) (*Result, error) {
	branch := req.Vibe.BranchName
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:    logger.Ptr(req.UserID),
		VibeID:    logger.Ptr(req.Vibe.ID),
		Branch:    logger.Ptr(branch),
		Component: "crosswalk.vibe.agent",
	})

	sc := logger.StartSpan(ctx, "vibe.turn", trace.WithAttributes(
		attribute.Int64("vibe.id", req.Vibe.ID),
		attribute.String("vibe.branch", branch),
	))
	defer sc.End()
	ctx = sc.Context()

	t := &turn{
		req:    req,
		tools:  NewTools(a.scm, branch),
		emit:   emit,
		system: systemPrompt(branch, a.scm.ProductionBranch()),
	}

	res, err := a.run(ctx, t)
	if err != nil {
		sc.RecordError(err)
		a.metrics.ObserveVibeTurn(OutcomeError)
		return nil, err
	}

	sc.SetAttributes(
		attribute.String("vibe.outcome", res.Outcome),
		attribute.Int("vibe.iterations", res.Iterations),
		attribute.Bool("vibe.wrote", res.Wrote),
	)
	a.metrics.ObserveVibeTurn(res.Outcome)
	return res, nil
}

func (a *Agent) run(ctx context.Context, t *turn) (*Result, error) {
	history, err := a.transcript.ListRecent(ctx, t.req.Vibe.ID, a.cfg.HistoryLimit)
	if err != nil {
		t.emit.Emit(errorEvent(msgModelFailed))
		return nil, fmt.Errorf("loading history: %w", err)
	}

	if err := a.save(ctx, t, model.VibeRoleUser, t.req.Message); err != nil {
		t.emit.Emit(errorEvent(msgModelFailed))
		return nil, fmt.Errorf("saving user message: %w", err)
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: t.system})
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		messages = append(messages, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: t.req.Message})

	slog.DebugContext(ctx, "vibe turn starting",
		"history", len(history),
		"message", logger.Truncate(t.req.Message, 100))

	t.emit.Emit(statusEvent("Thinking..."))

	resp, err := a.complete(ctx, t, messages)
	if err != nil {
		t.emit.Emit(errorEvent(msgModelFailed))
		return nil, fmt.Errorf("vibe turn first call: %w", err)
	}

	outcome := OutcomeCompleted
	for resp.WantsTools() {
		if t.iterations >= a.cfg.MaxIterations {
			slog.WarnContext(ctx, "vibe turn hit iteration ceiling",
				"iterations", t.iterations)
			outcome = OutcomeCeiling
			break
		}
		t.iterations++

		messages = append(messages, assistantMessage(resp))
		messages = append(messages, a.runTools(ctx, t, resp.ToolCalls)...)

		if a.detached(t) {
			slog.InfoContext(ctx, "client disconnected, stopping before next model call",
				"iterations", t.iterations)
			outcome = OutcomeDetached
			resp = &llm.AgentResponse{}
			break
		}

		t.emit.Emit(statusEvent("Processing..."))

		resp, err = a.complete(ctx, t, messages)
		if err != nil {
			t.emit.Emit(errorEvent(msgModelUnavailable))
			return nil, fmt.Errorf("vibe turn iteration %d: %w", t.iterations, err)
		}
	}

	slog.InfoContext(ctx, "vibe tool loop completed",
		"iterations", t.iterations,
		"finish_reason", resp.FinishReason,
		"wrote", t.wrote)

	text := resp.Content
	if a.shouldRepair(t, outcome, text) {
		repaired, err := a.repair(ctx, t, messages, resp)
		if err != nil {
			slog.WarnContext(ctx, "forced continuation failed, keeping original reply", "error", err)
		} else {
			text = repaired
			outcome = OutcomeRepaired
		}
	}

	if strings.TrimSpace(text) == "" {
		if t.wrote {
			text = placeholderWrote
		} else {
			text = placeholderReviewed
		}
	}

	if err := a.save(ctx, t, model.VibeRoleAssistant, text); err != nil {
		// The commits already happened; the reply is still worth delivering.
		slog.ErrorContext(ctx, "failed to save assistant message", "error", err)
	}

	comparison := a.scm.CompareBranch(ctx, t.req.Vibe.BranchName)

	if t.wrote && !deploy.IsDisabled(a.deploy) {
		a.pollDeployment(ctx, t)
	}

	toolsUsed := t.toolsUsed
	if toolsUsed == nil {
		toolsUsed = []string{}
	}
	changed := comparison.Files
	if changed == nil {
		changed = []string{}
	}
	t.emit.Emit(Event{
		Type:    EventDone,
		Message: text,
		DoneEvent: &DoneEvent{
			ToolsUsed: toolsUsed,
			Vibe: Summary{
				ID:           t.req.Vibe.ID,
				Name:         t.req.Vibe.Name,
				BranchName:   t.req.Vibe.BranchName,
				HasChanges:   comparison.AheadBy > 0,
				ChangedFiles: changed,
				AheadBy:      comparison.AheadBy,
			},
		},
	})

	return &Result{
		Message:    text,
		ToolsUsed:  toolsUsed,
		Wrote:      t.wrote,
		Iterations: t.iterations,
		Repaired:   t.repaired,
		Outcome:    outcome,
	}, nil
}

func (a *Agent) shouldRepair(t *turn, outcome, text string) bool {
	return a.cfg.RepairEnabled &&
		outcome == OutcomeCompleted &&
		!t.wrote &&
		a.promises.PromisedChanges(text)
}

func (a *Agent) detached(t *turn) bool {
	return a.cfg.CancelOnDisconnect && t.req.Detached != nil && t.req.Detached()
}

func (a *Agent) complete(ctx context.Context, t *turn, messages []llm.Message) (*llm.AgentResponse, error) {
	resp, err := a.llm.ChatWithTools(ctx, llm.AgentRequest{
		Messages:  messages,
		Tools:     t.tools.Definitions(),
		MaxTokens: a.cfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &llm.AgentResponse{}, nil
	}
	return resp, nil
}

// runTools executes the calls of one response in order and returns the
// tool-result messages, paired with their calls by ID. Calls run one at a
// time because every write moves the same branch ref.
func (a *Agent) runTools(ctx context.Context, t *turn, calls []llm.ToolCall) []llm.Message {
	results := make([]llm.Message, 0, len(calls))

	for _, call := range calls {
		name := ToolName(call.Name)
		p := argPath(call.Arguments)

		t.emit.Emit(Event{
			Type:      EventToolStart,
			Message:   name.startMessage(p),
			ToolEvent: &ToolEvent{Tool: name, Path: p},
		})

		sc := logger.StartSpan(ctx, "vibe.tool", trace.WithAttributes(
			attribute.String("tool.name", call.Name),
			attribute.String("tool.call_id", call.ID),
		))
		res := t.tools.Execute(sc.Context(), call)
		if res.IsError {
			sc.SetAttributes(attribute.Bool("tool.error", true))
		}
		sc.End()

		if res.IsError {
			slog.WarnContext(ctx, "vibe tool failed",
				"tool", call.Name,
				"path", p,
				"error", logger.Truncate(res.Content, 200))
			a.metrics.ObserveToolCall(call.Name, "error")
			t.emit.Emit(Event{
				Type:      EventToolEnd,
				Message:   fmt.Sprintf("❌ Failed: %s", call.Name),
				ToolEvent: &ToolEvent{Tool: name, Path: p, Success: logger.Ptr(false)},
			})
			results = append(results, llm.ToolResult(call.ID, res.Content, true))
			continue
		}

		if res.Wrote {
			t.wrote = true
		}
		result := "ok"
		if res.NotFound {
			result = "not_found"
		}
		a.metrics.ObserveToolCall(call.Name, result)

		t.emit.Emit(Event{
			Type:      EventToolEnd,
			Message:   name.endMessage(p),
			ToolEvent: &ToolEvent{Tool: name, Path: p, Success: logger.Ptr(!res.NotFound)},
		})

		t.toolsUsed = append(t.toolsUsed, fmt.Sprintf("[%s] %s...", call.Name, preview(res.Content, toolsUsedPreview)))
		results = append(results, llm.ToolResult(call.ID, res.Content, false))
	}

	return results
}

// save persists a transcript message. Empty content is never stored since
// completion services reject empty turns on replay.
func (a *Agent) save(ctx context.Context, t *turn, role model.VibeRole, content string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	return a.transcript.Create(ctx, &model.VibeMessage{
		ID:      id.New(),
		VibeID:  t.req.Vibe.ID,
		UserID:  t.req.UserID,
		Role:    role,
		Content: content,
	})
}

func assistantMessage(resp *llm.AgentResponse) llm.Message {
	return llm.Message{
		Role:      llm.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	}
}

// preview cuts s to at most n bytes without splitting a UTF-8 sequence.
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
