package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/PatrickTobler/agent-observation-tool/internal/models"
)

const evaluationColumns = `id, workspace_id, agent_name, rubric_text, expected_text,
	is_enabled, version, created_at, updated_at`

// GetEvaluation returns the current evaluation config for (workspace, agent),
// or nil when none has been configured
func (s *Postgres) GetEvaluation(ctx context.Context, workspaceID, agentName string) (*models.EvaluationConfig, error) {
	var cfg models.EvaluationConfig
	err := s.pool.QueryRow(ctx, `
		SELECT `+evaluationColumns+`
		FROM agent_evaluations
		WHERE workspace_id = $1 AND agent_name = $2
	`, workspaceID, agentName).Scan(
		&cfg.ID, &cfg.WorkspaceID, &cfg.AgentName, &cfg.RubricText, &cfg.ExpectedText,
		&cfg.IsEnabled, &cfg.Version, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	return &cfg, nil
}

// UpsertEvaluation creates the config on first PUT (version 1) and mutates
// the existing row on every later PUT, bumping the version. Patch fields
// left nil retain their prior value.
func (s *Postgres) UpsertEvaluation(ctx context.Context, workspaceID, agentName string, patch models.EvaluationPatch) (*models.EvaluationConfig, bool, error) {
	existing, err := s.GetEvaluation(ctx, workspaceID, agentName)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()

	if existing != nil {
		updated := *existing
		if patch.RubricText != nil {
			updated.RubricText = patch.RubricText
		}
		if patch.ExpectedText != nil {
			updated.ExpectedText = patch.ExpectedText
		}
		if patch.IsEnabled != nil {
			updated.IsEnabled = *patch.IsEnabled
		}
		updated.Version = existing.Version + 1
		updated.UpdatedAt = now

		_, err = s.pool.Exec(ctx, `
			UPDATE agent_evaluations
			SET rubric_text = $1, expected_text = $2, is_enabled = $3, version = $4, updated_at = $5
			WHERE id = $6
		`, updated.RubricText, updated.ExpectedText, updated.IsEnabled, updated.Version, updated.UpdatedAt, existing.ID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to update evaluation: %w", err)
		}
		return &updated, false, nil
	}

	cfg := models.EvaluationConfig{
		ID:           uuid.NewString(),
		WorkspaceID:  workspaceID,
		AgentName:    agentName,
		RubricText:   patch.RubricText,
		ExpectedText: patch.ExpectedText,
		IsEnabled:    true,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if patch.IsEnabled != nil {
		cfg.IsEnabled = *patch.IsEnabled
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO agent_evaluations (id, workspace_id, agent_name, rubric_text, expected_text,
		                               is_enabled, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, cfg.ID, cfg.WorkspaceID, cfg.AgentName, cfg.RubricText, cfg.ExpectedText,
		cfg.IsEnabled, cfg.Version, cfg.CreatedAt, cfg.UpdatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create evaluation: %w", err)
	}
	return &cfg, true, nil
}
