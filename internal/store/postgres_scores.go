package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/PatrickTobler/agent-observation-tool/internal/models"
)

const scoreColumns = `id, workspace_id, task_id, agent_name, evaluation_id, evaluation_version,
	score_1_to_10, verdict_text, llm_model, prompt_hash, error_json, created_at`

// InsertScore appends the outcome of one scoring attempt. Prior scores are
// never overwritten; re-scoring a task adds a new row.
func (s *Postgres) InsertScore(ctx context.Context, score *models.EvalScore) error {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	if score.CreatedAt.IsZero() {
		score.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO eval_scores (id, workspace_id, task_id, agent_name, evaluation_id, evaluation_version,
		                          score_1_to_10, verdict_text, llm_model, prompt_hash, error_json, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		score.ID, score.WorkspaceID, score.TaskID, score.AgentName, score.EvaluationID, score.EvaluationVersion,
		score.Score, score.Verdict, score.LLMModel, score.PromptHash, score.ErrorJSON, score.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

// ListAgentScores returns an agent's score history, newest first
func (s *Postgres) ListAgentScores(ctx context.Context, workspaceID, agentName string) ([]models.EvalScore, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+scoreColumns+`
		FROM eval_scores
		WHERE workspace_id = $1 AND agent_name = $2
		ORDER BY created_at DESC, id DESC
	`, workspaceID, agentName)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent scores: %w", err)
	}
	defer rows.Close()

	return scanScores(rows)
}

// ListTaskScores returns every scoring attempt for one task, newest first
func (s *Postgres) ListTaskScores(ctx context.Context, workspaceID, taskID string) ([]models.EvalScore, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+scoreColumns+`
		FROM eval_scores
		WHERE workspace_id = $1 AND task_id = $2
		ORDER BY created_at DESC, id DESC
	`, workspaceID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task scores: %w", err)
	}
	defer rows.Close()

	return scanScores(rows)
}

// LatestTaskScore is the explicit latest-wins read: max created_at, ties
// broken by id. Returns nil when the task has never been scored.
func (s *Postgres) LatestTaskScore(ctx context.Context, workspaceID, taskID string) (*models.EvalScore, error) {
	var score models.EvalScore
	err := s.pool.QueryRow(ctx, `
		SELECT `+scoreColumns+`
		FROM eval_scores
		WHERE workspace_id = $1 AND task_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, workspaceID, taskID).Scan(
		&score.ID, &score.WorkspaceID, &score.TaskID, &score.AgentName, &score.EvaluationID, &score.EvaluationVersion,
		&score.Score, &score.Verdict, &score.LLMModel, &score.PromptHash, &score.ErrorJSON, &score.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest score: %w", err)
	}
	return &score, nil
}

func scanScores(rows pgx.Rows) ([]models.EvalScore, error) {
	var scores []models.EvalScore
	for rows.Next() {
		var score models.EvalScore
		err := rows.Scan(
			&score.ID, &score.WorkspaceID, &score.TaskID, &score.AgentName, &score.EvaluationID, &score.EvaluationVersion,
			&score.Score, &score.Verdict, &score.LLMModel, &score.PromptHash, &score.ErrorJSON, &score.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}
	return scores, nil
}
