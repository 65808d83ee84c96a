package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatrickTobler/agent-observation-tool/internal/store"
)

func TestGenerateAPIKeySecret(t *testing.T) {
	secret, prefix := GenerateAPIKeySecret()

	assert.True(t, strings.HasPrefix(secret, "aot_"))
	assert.Len(t, secret, 4+64)
	assert.Equal(t, secret[:8], prefix)

	// Two generations never collide.
	other, _ := GenerateAPIKeySecret()
	assert.NotEqual(t, secret, other)
}

func TestHashSecret_Deterministic(t *testing.T) {
	assert.Equal(t, HashSecret("aot_abc"), HashSecret("aot_abc"))
	assert.NotEqual(t, HashSecret("aot_abc"), HashSecret("aot_abd"))
	assert.Len(t, HashSecret("aot_abc"), 64)
}

func newAPIKeyRouter(st *store.Memory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ping", RequireAPIKey(st), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"workspace_id": WorkspaceID(c)})
	})
	return router
}

func TestRequireAPIKey(t *testing.T) {
	st := store.NewMemory()
	secret, prefix := GenerateAPIKeySecret()
	key, err := st.CreateAPIKey(context.Background(), "ws-1", "ci", HashSecret(secret), prefix)
	require.NoError(t, err)

	router := newAPIKeyRouter(st)

	t.Run("valid_key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/ping", nil)
		req.Header.Set("Authorization", "Bearer "+secret)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ws-1")

		// Usage is recorded.
		keys, _ := st.ListAPIKeys(context.Background(), "ws-1")
		require.Len(t, keys, 1)
		assert.NotNil(t, keys[0].LastUsedAt)
	})

	t.Run("missing_header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/ping", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown_key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/ping", nil)
		req.Header.Set("Authorization", "Bearer aot_deadbeef")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("revoked_key", func(t *testing.T) {
		_, err := st.RevokeAPIKey(context.Background(), "ws-1", key.ID)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/ping", nil)
		req.Header.Set("Authorization", "Bearer "+secret)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

var _ APIKeyStore = (*store.Memory)(nil)
