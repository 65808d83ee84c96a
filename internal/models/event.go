package models

import (
	"time"
)

// InteractionKind tags the role of a single agent interaction event
type InteractionKind string

const (
	KindUserInput InteractionKind = "UserInput"
	KindToolCall  InteractionKind = "ToolCall"
	KindMcpCall   InteractionKind = "McpCall"
	KindSkillCall InteractionKind = "SkillCall"
	KindReasoning InteractionKind = "Reasoning"
	KindResult    InteractionKind = "Result"
	KindError     InteractionKind = "Error"
)

// InteractionKinds lists every accepted kind, in canonical order
var InteractionKinds = []InteractionKind{
	KindUserInput,
	KindToolCall,
	KindMcpCall,
	KindSkillCall,
	KindReasoning,
	KindResult,
	KindError,
}

// Valid reports whether k is a member of the closed kind enumeration
func (k InteractionKind) Valid() bool {
	for _, known := range InteractionKinds {
		if k == known {
			return true
		}
	}
	return false
}

// InteractionEvent represents one agent action or observation in the event store.
// Events are immutable once ingested; ordering within a task is by TS ascending,
// ties broken by ID.
type InteractionEvent struct {
	ID          string          `json:"id" db:"id"`
	WorkspaceID string          `json:"workspace_id" db:"workspace_id"`
	AgentName   string          `json:"agent_name" db:"agent_name"`
	TaskID      string          `json:"task_id" db:"task_id"`
	Kind        InteractionKind `json:"interaction_kind" db:"interaction_kind"`
	Message     *string         `json:"message,omitempty" db:"message"`
	PayloadJSON *string         `json:"payload_json,omitempty" db:"payload_json"`
	ResultJSON  *string         `json:"result_json,omitempty" db:"result_json"`
	ErrorJSON   *string         `json:"error_json,omitempty" db:"error_json"`
	TS          time.Time       `json:"ts" db:"ts"`
	ReceivedAt  time.Time       `json:"received_at" db:"received_at"`
}
