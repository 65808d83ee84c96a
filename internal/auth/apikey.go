package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/PatrickTobler/agent-observation-tool/internal/models"
)

// APIKeyStore is the key lookup surface needed by API-key auth
type APIKeyStore interface {
	FindAPIKeyBySecretHash(ctx context.Context, secretHash string) (*models.APIKey, error)
	TouchAPIKey(ctx context.Context, keyID string) error
}

// HashSecret computes the stored digest of an API key secret
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIKeySecret creates a fresh key secret plus its display prefix.
// The "aot_" prefix makes leaked keys greppable.
func GenerateAPIKeySecret() (secret, prefix string) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	secret = "aot_" + hex.EncodeToString(buf)
	return secret, secret[:8]
}

// RequireAPIKey is a Gin middleware that authenticates agent SDK requests
// with a bearer API key and attaches the owning workspace to the context
func RequireAPIKey(store APIKeyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := middlewareTracer.Start(c.Request.Context(), "auth.require_api_key")
		defer span.End()

		secret := extractBearerToken(c.GetHeader("Authorization"))
		if secret == "" {
			span.SetAttributes(attribute.Bool("auth.key_present", false))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		key, err := store.FindAPIKeyBySecretHash(ctx, HashSecret(secret))
		if err != nil {
			span.RecordError(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to authenticate"})
			c.Abort()
			return
		}
		if key == nil {
			span.SetAttributes(attribute.Bool("auth.key_valid", false))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		span.SetAttributes(
			attribute.Bool("auth.key_valid", true),
			attribute.String("workspace.id", key.WorkspaceID),
		)

		// Best effort; authentication already succeeded
		if err := store.TouchAPIKey(ctx, key.ID); err != nil {
			log.Printf(`{"level":"warn","message":"Failed to record api key usage","key_id":"%s","error":"%v"}`, key.ID, err)
		}

		c.Set(CtxAPIKeyID, key.ID)
		c.Set(CtxWorkspaceID, key.WorkspaceID)

		c.Next()
	}
}
