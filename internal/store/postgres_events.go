package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/PatrickTobler/agent-observation-tool/internal/models"
)

// InsertEvent appends one interaction event. Events are never updated or
// deleted afterwards.
func (s *Postgres) InsertEvent(ctx context.Context, event *models.InteractionEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO eval_events (id, workspace_id, agent_name, task_id, interaction_kind,
		                          message, payload_json, result_json, error_json, ts, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		event.ID, event.WorkspaceID, event.AgentName, event.TaskID, string(event.Kind),
		event.Message, event.PayloadJSON, event.ResultJSON, event.ErrorJSON, event.TS, event.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

const eventColumns = `id, workspace_id, agent_name, task_id, interaction_kind,
	message, payload_json, result_json, error_json, ts, received_at`

// ListTaskEvents returns all events of one task, oldest first
func (s *Postgres) ListTaskEvents(ctx context.Context, workspaceID, taskID string) ([]models.InteractionEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM eval_events
		WHERE workspace_id = $1 AND task_id = $2
		ORDER BY ts, id
	`, workspaceID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListAgentEvents returns all events emitted by one agent, oldest first
func (s *Postgres) ListAgentEvents(ctx context.Context, workspaceID, agentName string) ([]models.InteractionEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM eval_events
		WHERE workspace_id = $1 AND agent_name = $2
		ORDER BY ts, id
	`, workspaceID, agentName)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]models.InteractionEvent, error) {
	var events []models.InteractionEvent
	for rows.Next() {
		var e models.InteractionEvent
		var kind string
		err := rows.Scan(
			&e.ID, &e.WorkspaceID, &e.AgentName, &e.TaskID, &kind,
			&e.Message, &e.PayloadJSON, &e.ResultJSON, &e.ErrorJSON, &e.TS, &e.ReceivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Kind = models.InteractionKind(kind)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// ListAgentStats aggregates per-agent activity for the agents dashboard
func (s *Postgres) ListAgentStats(ctx context.Context, workspaceID string) ([]models.AgentStats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT agent_name,
		       COUNT(DISTINCT task_id) AS tasks_count,
		       COUNT(DISTINCT task_id) FILTER (WHERE interaction_kind = 'Result') AS success_count,
		       COUNT(*) FILTER (WHERE interaction_kind = 'Error') AS error_count,
		       MAX(ts) AS last_seen
		FROM eval_events
		WHERE workspace_id = $1
		GROUP BY agent_name
		ORDER BY agent_name
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent stats: %w", err)
	}
	defer rows.Close()

	var stats []models.AgentStats
	for rows.Next() {
		var a models.AgentStats
		if err := rows.Scan(&a.AgentName, &a.TasksCount, &a.SuccessCount, &a.ErrorCount, &a.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan agent stats: %w", err)
		}
		stats = append(stats, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agent stats: %w", err)
	}
	return stats, nil
}
