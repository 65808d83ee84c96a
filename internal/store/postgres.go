package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store on a pgx connection pool
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed store
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var _ Store = (*Postgres)(nil)

// schema is applied idempotently at startup. Full migration tooling is the
// deployment's concern; this keeps a fresh database usable out of the box.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS workspaces (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id              TEXT PRIMARY KEY,
		workspace_id    TEXT NOT NULL REFERENCES workspaces(id),
		email           TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id           TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL REFERENCES workspaces(id),
		name         TEXT NOT NULL,
		secret_hash  TEXT NOT NULL,
		prefix       TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_used_at TIMESTAMPTZ,
		revoked_at   TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS eval_events (
		id               TEXT PRIMARY KEY,
		workspace_id     TEXT NOT NULL REFERENCES workspaces(id),
		agent_name       TEXT NOT NULL,
		task_id          TEXT NOT NULL,
		interaction_kind TEXT NOT NULL,
		message          TEXT,
		payload_json     TEXT,
		result_json      TEXT,
		error_json       TEXT,
		ts               TIMESTAMPTZ NOT NULL,
		received_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_eval_events_task ON eval_events (workspace_id, task_id, ts, id)`,
	`CREATE INDEX IF NOT EXISTS idx_eval_events_agent ON eval_events (workspace_id, agent_name, ts)`,
	`CREATE TABLE IF NOT EXISTS agent_evaluations (
		id            TEXT PRIMARY KEY,
		workspace_id  TEXT NOT NULL REFERENCES workspaces(id),
		agent_name    TEXT NOT NULL,
		rubric_text   TEXT,
		expected_text TEXT,
		is_enabled    BOOLEAN NOT NULL DEFAULT TRUE,
		version       INTEGER NOT NULL DEFAULT 1,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (workspace_id, agent_name)
	)`,
	`CREATE TABLE IF NOT EXISTS eval_scores (
		id                 TEXT PRIMARY KEY,
		workspace_id       TEXT NOT NULL REFERENCES workspaces(id),
		task_id            TEXT NOT NULL,
		agent_name         TEXT NOT NULL,
		evaluation_id      TEXT NOT NULL REFERENCES agent_evaluations(id),
		evaluation_version INTEGER NOT NULL,
		score_1_to_10      INTEGER,
		verdict_text       TEXT,
		llm_model          TEXT,
		prompt_hash        TEXT,
		error_json         TEXT,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_eval_scores_task ON eval_scores (workspace_id, task_id, created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_eval_scores_agent ON eval_scores (workspace_id, agent_name, created_at DESC)`,
}

// Migrate applies the schema statements in order
func (s *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
