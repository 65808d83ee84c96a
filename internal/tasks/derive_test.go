package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatrickTobler/agent-observation-tool/internal/models"
)

func evt(id string, kind models.InteractionKind, ts time.Time) models.InteractionEvent {
	return models.InteractionEvent{
		ID:          id,
		WorkspaceID: "ws-1",
		AgentName:   "support-bot",
		TaskID:      "task-1",
		Kind:        kind,
		TS:          ts,
	}
}

func TestDeriveStatus(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		events   []models.InteractionEvent
		expected models.TaskStatus
	}{
		{
			name:     "empty_set_is_unknown",
			events:   nil,
			expected: models.TaskStatusUnknown,
		},
		{
			name: "no_terminal_event_is_unknown",
			events: []models.InteractionEvent{
				evt("e1", models.KindUserInput, base),
				evt("e2", models.KindToolCall, base.Add(time.Second)),
				evt("e3", models.KindReasoning, base.Add(2*time.Second)),
			},
			expected: models.TaskStatusUnknown,
		},
		{
			name: "result_without_error_is_succeeded",
			events: []models.InteractionEvent{
				evt("e1", models.KindUserInput, base),
				evt("e2", models.KindResult, base.Add(time.Second)),
			},
			expected: models.TaskStatusSucceeded,
		},
		{
			name: "error_alone_is_failed",
			events: []models.InteractionEvent{
				evt("e1", models.KindError, base),
			},
			expected: models.TaskStatusFailed,
		},
		{
			name: "error_after_result_still_failed",
			events: []models.InteractionEvent{
				evt("e1", models.KindResult, base),
				evt("e2", models.KindError, base.Add(time.Second)),
			},
			expected: models.TaskStatusFailed,
		},
		{
			name: "error_before_result_still_failed",
			events: []models.InteractionEvent{
				evt("e1", models.KindError, base),
				evt("e2", models.KindResult, base.Add(time.Second)),
			},
			expected: models.TaskStatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveStatus(tt.events))

			// Status must not depend on input order.
			reversed := make([]models.InteractionEvent, 0, len(tt.events))
			for i := len(tt.events) - 1; i >= 0; i-- {
				reversed = append(reversed, tt.events[i])
			}
			assert.Equal(t, tt.expected, DeriveStatus(reversed))
		})
	}
}

func TestSortEvents(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	events := []models.InteractionEvent{
		evt("e3", models.KindResult, base.Add(2*time.Second)),
		evt("e2", models.KindToolCall, base.Add(time.Second)),
		evt("e1", models.KindUserInput, base),
	}

	sorted := SortEvents(events)
	require.Len(t, sorted, 3)
	assert.Equal(t, "e1", sorted[0].ID)
	assert.Equal(t, "e2", sorted[1].ID)
	assert.Equal(t, "e3", sorted[2].ID)

	// The input slice stays untouched.
	assert.Equal(t, "e3", events[0].ID)
}

func TestSortEvents_TimestampTieBrokenByID(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	events := []models.InteractionEvent{
		evt("b", models.KindToolCall, ts),
		evt("a", models.KindUserInput, ts),
		evt("c", models.KindResult, ts),
	}

	sorted := SortEvents(events)
	assert.Equal(t, "a", sorted[0].ID)
	assert.Equal(t, "b", sorted[1].ID)
	assert.Equal(t, "c", sorted[2].ID)
}

func TestDeriveSummary(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	events := []models.InteractionEvent{
		evt("e4", models.KindResult, base.Add(5*time.Second)),
		evt("e1", models.KindUserInput, base),
		evt("e2", models.KindToolCall, base.Add(time.Second)),
		evt("e3", models.KindMcpCall, base.Add(2*time.Second)),
	}

	summary := DeriveSummary("task-1", "support-bot", events)

	assert.Equal(t, "task-1", summary.TaskID)
	assert.Equal(t, "support-bot", summary.AgentName)
	assert.Equal(t, models.TaskStatusSucceeded, summary.Status)
	assert.Equal(t, 4, summary.EventCount)
	assert.Equal(t, 0, summary.ErrorCount)
	assert.Equal(t, 2, summary.ToolCallCount)

	require.NotNil(t, summary.StartedAt)
	require.NotNil(t, summary.LastEventAt)
	require.NotNil(t, summary.DurationMs)
	assert.Equal(t, base, *summary.StartedAt)
	assert.Equal(t, base.Add(5*time.Second), *summary.LastEventAt)
	assert.Equal(t, int64(5000), *summary.DurationMs)
}

func TestDeriveSummary_EmptyEventSet(t *testing.T) {
	summary := DeriveSummary("task-1", "support-bot", nil)

	assert.Equal(t, models.TaskStatusUnknown, summary.Status)
	assert.Equal(t, 0, summary.EventCount)
	assert.Nil(t, summary.StartedAt)
	assert.Nil(t, summary.LastEventAt)
	assert.Nil(t, summary.DurationMs)
}

func TestDeriveSummary_CountsErrorsAndSkillCalls(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	events := []models.InteractionEvent{
		evt("e1", models.KindUserInput, base),
		evt("e2", models.KindSkillCall, base.Add(time.Second)),
		evt("e3", models.KindError, base.Add(2*time.Second)),
		evt("e4", models.KindError, base.Add(3*time.Second)),
	}

	summary := DeriveSummary("task-1", "support-bot", events)

	assert.Equal(t, models.TaskStatusFailed, summary.Status)
	assert.Equal(t, 2, summary.ErrorCount)
	assert.Equal(t, 1, summary.ToolCallCount)
}
