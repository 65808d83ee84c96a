// Package store persists workspaces, events, evaluation configs and scores.
// Two implementations satisfy Store: Postgres for production and Memory for
// tests and zero-config development. Read-back ordering of events is a
// convenience only; the derivation core re-sorts canonically.
package store

import (
	"context"

	"github.com/PatrickTobler/agent-observation-tool/internal/models"
)

// Store is the persistence contract consumed by the gateway and the
// scoring orchestrator
type Store interface {
	// Events are append-only; InsertEvent assigns ID and ReceivedAt if unset.
	InsertEvent(ctx context.Context, event *models.InteractionEvent) error
	ListTaskEvents(ctx context.Context, workspaceID, taskID string) ([]models.InteractionEvent, error)
	ListAgentEvents(ctx context.Context, workspaceID, agentName string) ([]models.InteractionEvent, error)
	ListAgentStats(ctx context.Context, workspaceID string) ([]models.AgentStats, error)

	// GetEvaluation returns nil (not an error) when no config exists.
	GetEvaluation(ctx context.Context, workspaceID, agentName string) (*models.EvaluationConfig, error)
	// UpsertEvaluation creates the config on first call and otherwise mutates
	// the existing row, bumping its version; the bool reports creation.
	UpsertEvaluation(ctx context.Context, workspaceID, agentName string, patch models.EvaluationPatch) (*models.EvaluationConfig, bool, error)

	// Scores are append-only history; InsertScore never overwrites.
	InsertScore(ctx context.Context, score *models.EvalScore) error
	ListAgentScores(ctx context.Context, workspaceID, agentName string) ([]models.EvalScore, error)
	ListTaskScores(ctx context.Context, workspaceID, taskID string) ([]models.EvalScore, error)
	// LatestTaskScore picks max created_at, ties broken by id; nil when none.
	LatestTaskScore(ctx context.Context, workspaceID, taskID string) (*models.EvalScore, error)

	CreateWorkspace(ctx context.Context, name string) (*models.Workspace, error)
	CreateUser(ctx context.Context, workspaceID, email, hashedPassword string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateAPIKey(ctx context.Context, workspaceID, name, secretHash, prefix string) (*models.APIKey, error)
	ListAPIKeys(ctx context.Context, workspaceID string) ([]models.APIKey, error)
	RevokeAPIKey(ctx context.Context, workspaceID, keyID string) (bool, error)
	// FindAPIKeyBySecretHash ignores revoked keys and returns nil when absent.
	FindAPIKeyBySecretHash(ctx context.Context, secretHash string) (*models.APIKey, error)
	TouchAPIKey(ctx context.Context, keyID string) error
}
