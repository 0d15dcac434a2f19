package vibe

import (
	"context"
	"fmt"
	"path"
	"strings"

	"crosswalk.app/api/common/llm"
	"crosswalk.app/api/internal/scm"
)

// ToolName is the closed set of tools the model may call.
type ToolName string

const (
	ToolReadFile  ToolName = "read_file"
	ToolWriteFile ToolName = "write_file"
	ToolListFiles ToolName = "list_files"
)

type ReadFileParams struct {
	Path string `json:"path" jsonschema:"required,description=The file path relative to the repo root e.g. 'frontend/src/components/MapView.tsx'"`
}

type WriteFileParams struct {
	Path          string `json:"path" jsonschema:"required,description=The file path relative to the repo root"`
	Content       string `json:"content" jsonschema:"required,description=The complete new content for the file"`
	CommitMessage string `json:"commit_message" jsonschema:"required,description=A short descriptive commit message for this change"`
}

type ListFilesParams struct {
	Path string `json:"path" jsonschema:"required,description=The directory path relative to repo root e.g. 'frontend/src/components'"`
}

// ToolResult is what a tool call hands back to the model.
type ToolResult struct {
	Content string
	// IsError marks a failed call. The model sees the content flagged as an error.
	IsError bool
	// NotFound marks a read of a path that exists on neither branch.
	NotFound bool
	// Wrote is set when a commit landed on the branch.
	Wrote bool
}

// Tools executes tool calls against one vibe branch.
type Tools struct {
	scm         scm.Gateway
	branch      string
	definitions []llm.Tool
}

func NewTools(gateway scm.Gateway, branch string) *Tools {
	return &Tools{
		scm:    gateway,
		branch: branch,
		definitions: []llm.Tool{
			{
				Name:        string(ToolReadFile),
				Description: "Read the contents of a file from the repository. Use this to understand existing code before making changes.",
				Parameters:  llm.GenerateSchema[ReadFileParams](),
			},
			{
				Name:        string(ToolWriteFile),
				Description: "Write or update a file in the repository. The change is committed to the user's branch.",
				Parameters:  llm.GenerateSchema[WriteFileParams](),
			},
			{
				Name:        string(ToolListFiles),
				Description: "List files in a directory to explore the codebase structure.",
				Parameters:  llm.GenerateSchema[ListFilesParams](),
			},
		},
	}
}

func (t *Tools) Definitions() []llm.Tool {
	return t.definitions
}

// Execute runs one call. Transport and argument errors come back as
// error-flagged results; Execute itself never fails.
func (t *Tools) Execute(ctx context.Context, call llm.ToolCall) ToolResult {
	var (
		res ToolResult
		err error
	)

	switch name := ToolName(call.Name); name {
	case ToolReadFile:
		res, err = t.readFile(ctx, call.Arguments)
	case ToolWriteFile:
		res, err = t.writeFile(ctx, call.Arguments)
	case ToolListFiles:
		res, err = t.listFiles(ctx, call.Arguments)
	default:
		return ToolResult{Content: fmt.Sprintf("Unknown tool: %s", call.Name), IsError: true}
	}

	if err != nil {
		return ToolResult{Content: fmt.Sprintf("Error executing %s: %v", call.Name, err), IsError: true}
	}
	return res
}

func (t *Tools) readFile(ctx context.Context, arguments string) (ToolResult, error) {
	params, err := llm.ParseToolArguments[ReadFileParams](arguments)
	if err != nil {
		return ToolResult{}, err
	}
	p := cleanPath(params.Path)
	if p == "" {
		return ToolResult{}, fmt.Errorf("path is required")
	}

	file, err := t.scm.GetFile(ctx, p, t.branch)
	if err != nil {
		return ToolResult{}, err
	}
	if file == nil {
		// New branches only carry files the agent has touched.
		file, err = t.scm.GetFile(ctx, p, t.scm.ProductionBranch())
		if err != nil {
			return ToolResult{}, err
		}
	}
	if file == nil {
		return ToolResult{Content: fmt.Sprintf("File not found: %s", p), NotFound: true}, nil
	}
	return ToolResult{Content: file.Content}, nil
}

func (t *Tools) writeFile(ctx context.Context, arguments string) (ToolResult, error) {
	params, err := llm.ParseToolArguments[WriteFileParams](arguments)
	if err != nil {
		return ToolResult{}, err
	}
	p := cleanPath(params.Path)
	if p == "" {
		return ToolResult{}, fmt.Errorf("path is required")
	}
	message := strings.TrimSpace(params.CommitMessage)
	if message == "" {
		message = "Update " + p
	}

	commit, err := t.scm.CommitFiles(ctx, t.branch, []scm.FileChange{
		{Path: p, Content: params.Content, Action: scm.ActionUpsert},
	}, message)
	if err != nil {
		return ToolResult{}, err
	}

	return ToolResult{
		Content: fmt.Sprintf("✅ Committed!\nPath: %s\nCommit: %s", p, commit.ShortSHA()),
		Wrote:   true,
	}, nil
}

func (t *Tools) listFiles(ctx context.Context, arguments string) (ToolResult, error) {
	params, err := llm.ParseToolArguments[ListFilesParams](arguments)
	if err != nil {
		return ToolResult{}, err
	}
	p := cleanPath(params.Path)

	entries := t.scm.ListFiles(ctx, p, t.branch)
	if len(entries) == 0 {
		return ToolResult{Content: fmt.Sprintf("No files found in: %s", params.Path)}, nil
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		icon := "📄"
		if e.Kind == scm.EntryDir {
			icon = "📁"
		}
		lines = append(lines, icon+" "+e.Name)
	}
	return ToolResult{Content: strings.Join(lines, "\n")}, nil
}

// startMessage is the progress line shown while the tool runs.
func (n ToolName) startMessage(p string) string {
	switch n {
	case ToolReadFile:
		return fmt.Sprintf("📖 Reading %s...", path.Base(p))
	case ToolWriteFile:
		return fmt.Sprintf("✏️ Writing %s...", path.Base(p))
	case ToolListFiles:
		if p == "" {
			p = "root"
		}
		return fmt.Sprintf("📁 Listing %s...", p)
	default:
		return fmt.Sprintf("Running %s...", n)
	}
}

func (n ToolName) endMessage(p string) string {
	switch n {
	case ToolReadFile:
		return fmt.Sprintf("📖 Read %s", path.Base(p))
	case ToolWriteFile:
		return fmt.Sprintf("✅ Saved %s", path.Base(p))
	case ToolListFiles:
		return "📁 Listed files"
	default:
		return fmt.Sprintf("Ran %s", n)
	}
}

// argPath pulls the path argument out of any tool call, for progress events.
func argPath(arguments string) string {
	params, err := llm.ParseToolArguments[ListFilesParams](arguments)
	if err != nil {
		return ""
	}
	return params.Path
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "./")
	return strings.Trim(p, "/")
}
