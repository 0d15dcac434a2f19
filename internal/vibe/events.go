package vibe

import "crosswalk.app/api/internal/deploy"

type EventType string

const (
	EventStatus     EventType = "status"
	EventToolStart  EventType = "tool_start"
	EventToolEnd    EventType = "tool_end"
	EventDeployment EventType = "deployment"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

// Event is one progress update of a turn. Exactly one done or error event
// ends every turn; the payload pointers are flattened into the JSON object.
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`

	*ToolEvent
	*DeploymentEvent
	*DoneEvent
}

type ToolEvent struct {
	Tool    ToolName `json:"tool"`
	Path    string   `json:"path,omitempty"`
	Success *bool    `json:"success,omitempty"`
}

type DeploymentEvent struct {
	State deploy.State `json:"state"`
	URL   string       `json:"url,omitempty"`
}

type DoneEvent struct {
	ToolsUsed []string `json:"toolsUsed"`
	Vibe      Summary  `json:"vibe"`
}

// Summary is the vibe as the client sees it after a turn.
type Summary struct {
	ID           int64    `json:"id,string"`
	Name         string   `json:"name"`
	BranchName   string   `json:"branchName"`
	HasChanges   bool     `json:"hasChanges"`
	ChangedFiles []string `json:"changedFiles"`
	AheadBy      int      `json:"aheadBy"`
}

// Terminal reports whether e ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// Emitter receives the events of one turn in order.
type Emitter interface {
	Emit(Event)
}

type EmitterFunc func(Event)

func (f EmitterFunc) Emit(e Event) { f(e) }

func statusEvent(msg string) Event {
	return Event{Type: EventStatus, Message: msg}
}

func errorEvent(msg string) Event {
	return Event{Type: EventError, Message: msg}
}
