package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	jm := NewJWTManagerWithKey("test-secret")

	token, err := jm.GenerateToken(context.Background(), "user-1", "dev@example.com", "ws-1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jm.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "dev@example.com", claims.Email)
	assert.Equal(t, "ws-1", claims.WorkspaceID)
	assert.Equal(t, "agent-observation-tool", claims.Issuer)
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	jm := NewJWTManagerWithKey("test-secret")

	token, err := jm.GenerateToken(context.Background(), "user-1", "dev@example.com", "ws-1", -time.Minute)
	require.NoError(t, err)

	_, err = jm.ValidateToken(context.Background(), token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsWrongKey(t *testing.T) {
	jm := NewJWTManagerWithKey("test-secret")
	other := NewJWTManagerWithKey("other-secret")

	token, err := jm.GenerateToken(context.Background(), "user-1", "dev@example.com", "ws-1", time.Hour)
	require.NoError(t, err)

	_, err = other.ValidateToken(context.Background(), token)
	assert.Error(t, err)
}

func TestNewJWTManager_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := NewJWTManager()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "from-env")
	jm, err := NewJWTManager()
	require.NoError(t, err)
	assert.NotNil(t, jm)
}

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "abc", extractBearerToken("Bearer abc"))
	assert.Equal(t, "", extractBearerToken(""))
	assert.Equal(t, "", extractBearerToken("Basic abc"))
	assert.Equal(t, "", extractBearerToken("Bearer"))
}
