// Package stream defines the typed events carried by Code Swap streaming
// responses and decodes them from raw frames. Two independent schemas exist:
// the chat schema shared by single and compare mode, and the crew schema.
// A stream never mixes schemas.
package stream

// Chat event types (single and compare mode).
const (
	EventStart    = "start"
	EventDelta    = "delta"
	EventDone     = "done"
	EventComplete = "complete"
	EventError    = "error"
)

// Crew event types.
const (
	EventCrewStart      = "crew_start"
	EventPlan           = "plan"
	EventAgentStart     = "agent_start"
	EventAgentDelta     = "agent_delta"
	EventAgentDone      = "agent_done"
	EventSynthesisDelta = "synthesis_delta"
	EventCrewDone       = "crew_done"
)

// Sides discriminate the two panels in compare mode.
const (
	SideLeft  = "left"
	SideRight = "right"
)

// Usage is the server-reported token usage attached to a terminal event.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// ChatEvent is the JSON envelope for single/compare streams. Side is empty in
// single mode; in compare mode it routes the event to one panel.
type ChatEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Provider  string `json:"provider,omitempty"`
	ModelID   string `json:"modelId,omitempty"`
	Side      string `json:"side,omitempty"`
	Text      string `json:"text,omitempty"`
	Message   string `json:"message,omitempty"`
	Usage     *Usage `json:"usage,omitempty"`
}

// Terminal reports whether the event ends its unit's stream.
func (e ChatEvent) Terminal() bool {
	switch e.Type {
	case EventDone, EventComplete, EventError:
		return true
	}
	return false
}

// PlanSubtask is one entry of a crew plan event.
type PlanSubtask struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	AssignTo    string `json:"assignTo"`
}

// CrewEvent is the JSON envelope for crew streams. Agents are identified by
// name, never by index. Cost, Tokens, and TotalCost are pointers so an absent
// field is distinguishable from zero; reducers merge field-by-field.
type CrewEvent struct {
	Type      string        `json:"type"`
	SessionID string        `json:"sessionId,omitempty"`
	Agents    []string      `json:"agents,omitempty"`
	Subtasks  []PlanSubtask `json:"subtasks,omitempty"`
	Agent     string        `json:"agent,omitempty"`
	SubtaskID string        `json:"subtaskId,omitempty"`
	Model     string        `json:"model,omitempty"`
	Text      string        `json:"text,omitempty"`
	Cost      *float64      `json:"cost,omitempty"`
	Tokens    *int          `json:"tokens,omitempty"`
	TotalCost *float64      `json:"totalCost,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// Terminal reports whether the event ends the crew stream.
func (e CrewEvent) Terminal() bool {
	return e.Type == EventCrewDone || e.Type == EventError
}
