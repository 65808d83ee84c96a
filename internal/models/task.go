package models

import (
	"time"
)

// TaskStatus is the derived lifecycle status of a task's event set
type TaskStatus string

const (
	TaskStatusSucceeded TaskStatus = "succeeded"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusUnknown   TaskStatus = "unknown"
)

// TaskSummary is derived from a task's events; tasks are a grouping key,
// not a stored row. Timestamp fields are nil for an empty event set.
type TaskSummary struct {
	TaskID        string     `json:"task_id"`
	AgentName     string     `json:"agent_name"`
	Status        TaskStatus `json:"status"`
	StartedAt     *time.Time `json:"started_at"`
	LastEventAt   *time.Time `json:"last_event_at"`
	DurationMs    *int64     `json:"duration_ms"`
	EventCount    int        `json:"event_count"`
	ErrorCount    int        `json:"error_count"`
	ToolCallCount int        `json:"tool_call_count"`
}

// AgentStats aggregates event activity for one agent within a workspace
type AgentStats struct {
	AgentName    string    `json:"agent_name"`
	TasksCount   int       `json:"tasks_count"`
	SuccessCount int       `json:"success_count"`
	ErrorCount   int       `json:"error_count"`
	LastSeen     time.Time `json:"last_seen"`
}
