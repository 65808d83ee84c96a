package models

import (
	"time"
)

// EvaluationConfig is the scoring policy for one (workspace, agent) pair.
// At most one row is current per pair; updates mutate the row and bump
// Version rather than inserting a new one.
type EvaluationConfig struct {
	ID           string    `json:"id" db:"id"`
	WorkspaceID  string    `json:"workspace_id" db:"workspace_id"`
	AgentName    string    `json:"agent_name" db:"agent_name"`
	RubricText   *string   `json:"rubric_text" db:"rubric_text"`
	ExpectedText *string   `json:"expected_text" db:"expected_text"`
	IsEnabled    bool      `json:"is_enabled" db:"is_enabled"`
	Version      int       `json:"version" db:"version"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// EvaluationPatch carries the fields of a PUT; nil fields retain the prior value
type EvaluationPatch struct {
	RubricText   *string `json:"rubric_text"`
	ExpectedText *string `json:"expected_text"`
	IsEnabled    *bool   `json:"is_enabled"`
}

// EvalScore is the outcome of one scoring attempt for one task.
// Score/Verdict and ErrorJSON are mutually exclusive: the success path
// leaves ErrorJSON nil, the failure path leaves Score and Verdict nil.
// Rows are append-only; re-scoring adds a new row and readers pick the
// latest by creation order.
type EvalScore struct {
	ID                string    `json:"id" db:"id"`
	WorkspaceID       string    `json:"workspace_id" db:"workspace_id"`
	TaskID            string    `json:"task_id" db:"task_id"`
	AgentName         string    `json:"agent_name" db:"agent_name"`
	EvaluationID      string    `json:"evaluation_id" db:"evaluation_id"`
	EvaluationVersion int       `json:"evaluation_version" db:"evaluation_version"`
	Score             *int      `json:"score_1_to_10" db:"score_1_to_10"`
	Verdict           *string   `json:"verdict_text" db:"verdict_text"`
	LLMModel          string    `json:"llm_model" db:"llm_model"`
	PromptHash        string    `json:"prompt_hash" db:"prompt_hash"`
	ErrorJSON         *string   `json:"error_json" db:"error_json"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
