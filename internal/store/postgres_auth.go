package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/PatrickTobler/agent-observation-tool/internal/models"
)

// CreateWorkspace creates a new tenant
func (s *Postgres) CreateWorkspace(ctx context.Context, name string) (*models.Workspace, error) {
	ws := models.Workspace{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO workspaces (id, name, created_at) VALUES ($1, $2, $3)`,
		ws.ID, ws.Name, ws.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &ws, nil
}

// CreateUser creates a dashboard user inside a workspace
func (s *Postgres) CreateUser(ctx context.Context, workspaceID, email, hashedPassword string) (*models.User, error) {
	user := models.User{
		ID:             uuid.NewString(),
		WorkspaceID:    workspaceID,
		Email:          email,
		HashedPassword: hashedPassword,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, workspace_id, email, hashed_password, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.WorkspaceID, user.Email, user.HashedPassword, user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail returns nil when no account matches
func (s *Postgres) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, workspace_id, email, hashed_password, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.WorkspaceID, &user.Email, &user.HashedPassword, &user.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// CreateAPIKey stores a new ingestion key; the caller keeps the only copy
// of the secret, we keep its hash and display prefix
func (s *Postgres) CreateAPIKey(ctx context.Context, workspaceID, name, secretHash, prefix string) (*models.APIKey, error) {
	key := models.APIKey{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        name,
		SecretHash:  secretHash,
		Prefix:      prefix,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, workspace_id, name, secret_hash, prefix, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		key.ID, key.WorkspaceID, key.Name, key.SecretHash, key.Prefix, key.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api key: %w", err)
	}
	return &key, nil
}

// ListAPIKeys returns all keys of a workspace, including revoked ones
func (s *Postgres) ListAPIKeys(ctx context.Context, workspaceID string) ([]models.APIKey, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, workspace_id, name, secret_hash, prefix, created_at, last_used_at, revoked_at
		FROM api_keys
		WHERE workspace_id = $1
		ORDER BY created_at
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query api keys: %w", err)
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var key models.APIKey
		err := rows.Scan(&key.ID, &key.WorkspaceID, &key.Name, &key.SecretHash, &key.Prefix,
			&key.CreatedAt, &key.LastUsedAt, &key.RevokedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating api keys: %w", err)
	}
	return keys, nil
}

// RevokeAPIKey marks a key revoked; returns false when the key does not
// belong to the workspace
func (s *Postgres) RevokeAPIKey(ctx context.Context, workspaceID, keyID string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET revoked_at = NOW() WHERE id = $1 AND workspace_id = $2 AND revoked_at IS NULL`,
		keyID, workspaceID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to revoke api key: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindAPIKeyBySecretHash resolves a presented secret to its key, skipping
// revoked keys; returns nil when no live key matches
func (s *Postgres) FindAPIKeyBySecretHash(ctx context.Context, secretHash string) (*models.APIKey, error) {
	var key models.APIKey
	err := s.pool.QueryRow(ctx, `
		SELECT id, workspace_id, name, secret_hash, prefix, created_at, last_used_at, revoked_at
		FROM api_keys
		WHERE secret_hash = $1 AND revoked_at IS NULL
	`, secretHash).Scan(&key.ID, &key.WorkspaceID, &key.Name, &key.SecretHash, &key.Prefix,
		&key.CreatedAt, &key.LastUsedAt, &key.RevokedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up api key: %w", err)
	}
	return &key, nil
}

// TouchAPIKey records key usage; failures here are non-fatal to the caller
func (s *Postgres) TouchAPIKey(ctx context.Context, keyID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW() WHERE id = $1`,
		keyID,
	)
	if err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	return nil
}
