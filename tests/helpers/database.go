// Package helpers provides shared setup for integration tests that run
// against a real PostgreSQL instance.
package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PatrickTobler/agent-observation-tool/internal/store"
)

// GetTestDatabasePool creates a database connection pool for testing.
// Tests calling this must be skipped when TEST_DATABASE_URL is unset.
func GetTestDatabasePool(ctx context.Context) (*pgxpool.Pool, error) {
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("TEST_DATABASE_URL is not set")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// RequirePostgresStore connects to the test database, applies the schema and
// returns a migrated store. The test is skipped if no database is reachable.
func RequirePostgresStore(t *testing.T) (*store.Postgres, *pgxpool.Pool) {
	t.Helper()

	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping database integration test")
	}

	ctx := context.Background()
	pool, err := GetTestDatabasePool(ctx)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	st := store.NewPostgres(pool)
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Start each test from a clean slate.
	tables := []string{"eval_scores", "agent_evaluations", "eval_events", "api_keys", "users", "workspaces"}
	for _, table := range tables {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}

	return st, pool
}
