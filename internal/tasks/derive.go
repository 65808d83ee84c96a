// Package tasks derives task-level state from raw interaction events.
// A task is not a stored entity: it is the grouping of all events sharing
// (workspace, task id), and everything here is computed from that event set.
package tasks

import (
	"sort"

	"github.com/PatrickTobler/agent-observation-tool/internal/models"
)

// SortEvents orders events by event timestamp ascending, ties broken by id.
// This ordering is load-bearing: status derivation and transcripts must be
// reproducible for identical event sets regardless of input order.
func SortEvents(events []models.InteractionEvent) []models.InteractionEvent {
	sorted := make([]models.InteractionEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TS.Equal(sorted[j].TS) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].TS.Before(sorted[j].TS)
	})
	return sorted
}

// DeriveStatus maps an event set to a lifecycle status. An Error event always
// dominates: an agent that errors after producing a partial Result is still a
// failure. With no Error and at least one Result the task succeeded; with
// neither the status is unknown. Input order does not matter.
func DeriveStatus(events []models.InteractionEvent) models.TaskStatus {
	hasResult := false
	for _, e := range events {
		switch e.Kind {
		case models.KindError:
			return models.TaskStatusFailed
		case models.KindResult:
			hasResult = true
		}
	}
	if hasResult {
		return models.TaskStatusSucceeded
	}
	return models.TaskStatusUnknown
}

// DeriveSummary produces the full derived view of a task. For an empty event
// set the timestamp fields stay nil and counts are zero; that is a valid
// response, task-not-found is the caller's call to make.
func DeriveSummary(taskID, agentName string, events []models.InteractionEvent) models.TaskSummary {
	summary := models.TaskSummary{
		TaskID:     taskID,
		AgentName:  agentName,
		Status:     DeriveStatus(events),
		EventCount: len(events),
	}

	for _, e := range events {
		switch e.Kind {
		case models.KindError:
			summary.ErrorCount++
		case models.KindToolCall, models.KindMcpCall, models.KindSkillCall:
			summary.ToolCallCount++
		}
	}

	if len(events) == 0 {
		return summary
	}

	sorted := SortEvents(events)
	startedAt := sorted[0].TS
	lastEventAt := sorted[len(sorted)-1].TS
	durationMs := lastEventAt.Sub(startedAt).Milliseconds()

	summary.StartedAt = &startedAt
	summary.LastEventAt = &lastEventAt
	summary.DurationMs = &durationMs
	return summary
}
