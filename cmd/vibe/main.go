package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"crosswalk.app/api/common/id"
	"crosswalk.app/api/common/llm"
	"crosswalk.app/api/common/logger"
	"crosswalk.app/api/core/config"
	"crosswalk.app/api/internal/deploy"
	"crosswalk.app/api/internal/model"
	"crosswalk.app/api/internal/scm"
	"crosswalk.app/api/internal/service"
	"crosswalk.app/api/internal/vibe"
)

// vibe runs agent turns against a branch from the terminal. The transcript
// lives in memory, so every invocation starts a fresh conversation.
func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg)

	if err := id.Init(2); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize id generator: %v\n", err)
		os.Exit(1)
	}

	if !cfg.LLM.Enabled() {
		fmt.Fprintln(os.Stderr, "VIBE_LLM_API_KEY is required")
		os.Exit(1)
	}
	client, err := llm.NewAgentClient(llm.Config{
		Provider:        cfg.LLM.Provider,
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		ReasoningEffort: llm.ReasoningEffort(cfg.LLM.ReasoningEffort),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create LLM client: %v\n", err)
		os.Exit(1)
	}

	gateway, err := scm.New(cfg.SCM)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create SCM gateway: %v\n", err)
		os.Exit(1)
	}

	deploys, err := deploy.New(cfg.Deploy, cfg.SCM)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Deployments: disabled (%v)\n", err)
		deploys = deploy.Disabled{}
	}

	// Branch to work on; a fresh vibe branch is created when unset.
	branch := os.Getenv("VIBE_BRANCH")
	if branch == "" {
		branch = service.BranchName(0, nil, time.Now())
	}
	if _, err := gateway.CreateBranch(ctx, branch); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create branch %s: %v\n", branch, err)
		os.Exit(1)
	}

	transcript := vibe.NewMemoryTranscript()
	agent, err := vibe.NewAgent(client, gateway, deploys, transcript, cfg.Vibe)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create agent: %v\n", err)
		os.Exit(1)
	}

	v := model.Vibe{ID: id.New(), Name: "cli", BranchName: branch, CreatedAt: time.Now()}
	locks := vibe.NewLocalTurnLock()

	fmt.Fprintf(os.Stderr, "\nVibe CLI ready (branch=%s, model=%s)\n", branch, client.Model())
	fmt.Fprintln(os.Stderr, "Describe a change (or 'quit' to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "quit" || message == "exit" || message == "q" {
			break
		}

		release, err := locks.Acquire(ctx, v.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		res, err := agent.Run(ctx, vibe.Request{Vibe: v, Message: message}, vibe.EmitterFunc(printEvent))
		release()
		if err != nil {
			continue
		}

		fmt.Println(res.Message)
		fmt.Fprintf(os.Stderr, "--- %s after %d iteration(s), tools: %s\n", res.Outcome, res.Iterations, strings.Join(res.ToolsUsed, ", "))
		fmt.Println()
	}

	fmt.Fprintf(os.Stderr, "Goodbye! Changes are on %s\n", gateway.TreeURL(branch))
}

func printEvent(e vibe.Event) {
	switch {
	case e.ToolEvent != nil:
		fmt.Fprintf(os.Stderr, "  [%s] %s %s\n", e.Type, e.ToolEvent.Tool, e.ToolEvent.Path)
	case e.DeploymentEvent != nil:
		fmt.Fprintf(os.Stderr, "  [%s] %s %s\n", e.Type, e.DeploymentEvent.State, e.DeploymentEvent.URL)
	case e.Type == vibe.EventError:
		fmt.Fprintf(os.Stderr, "Error: %s\n", e.Message)
	case e.Type == vibe.EventStatus:
		fmt.Fprintf(os.Stderr, "  %s\n", e.Message)
	}
}
