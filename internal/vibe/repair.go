package vibe

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"crosswalk.app/api/common/llm"
)

// PromiseMatcher recognises replies that announce an edit ("I'll now update
// the header") so a turn that wrote nothing can be pushed to follow through.
type PromiseMatcher struct {
	re *regexp.Regexp
}

func NewPromiseMatcher(pattern string) (*PromiseMatcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling promise pattern: %w", err)
	}
	return &PromiseMatcher{re: re}, nil
}

// PromisedChanges reports whether text announces a change.
func (m *PromiseMatcher) PromisedChanges(text string) bool {
	return m != nil && m.re.MatchString(text)
}

// repair runs one forced continuation after a reply that promised an edit
// but made none. It returns the continuation's final text. Errors are
// returned to the caller, which keeps the original reply.
func (a *Agent) repair(ctx context.Context, t *turn, messages []llm.Message, last *llm.AgentResponse) (string, error) {
	slog.InfoContext(ctx, "reply promised changes without writing, forcing continuation")
	t.emit.Emit(statusEvent("Completing changes..."))
	t.repaired = true

	messages = append(messages, assistantMessage(last))
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: repairPrompt})

	resp, err := a.complete(ctx, t, messages)
	if err != nil {
		return "", fmt.Errorf("repair call: %w", err)
	}

	for i := 0; resp.WantsTools() && i < a.cfg.RepairIterations; i++ {
		messages = append(messages, assistantMessage(resp))
		messages = append(messages, a.runTools(ctx, t, resp.ToolCalls)...)

		resp, err = a.complete(ctx, t, messages)
		if err != nil {
			return "", fmt.Errorf("repair call: %w", err)
		}
	}

	return resp.Content, nil
}
