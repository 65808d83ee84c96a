package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var middlewareTracer = otel.Tracer("auth-middleware")

// Gin context keys set by the middlewares
const (
	// CtxWorkspaceID scopes every query issued by the handler
	CtxWorkspaceID = "workspace_id"
	// CtxUserID is set by session auth only
	CtxUserID = "user_id"
	// CtxAPIKeyID is set by API-key auth only
	CtxAPIKeyID = "api_key_id"
)

// RequireSession is a Gin middleware that validates dashboard JWT tokens
// and attaches the authenticated workspace to the request context
func RequireSession(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := middlewareTracer.Start(c.Request.Context(), "auth.require_session")
		defer span.End()

		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			span.SetAttributes(attribute.Bool("auth.token_present", false))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid authorization header"})
			c.Abort()
			return
		}

		span.SetAttributes(attribute.Bool("auth.token_present", true))

		claims, err := jwtManager.ValidateToken(ctx, token)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.Bool("auth.token_valid", false))
			log.Printf(`{"level":"warn","message":"Invalid token","error":"%v"}`, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		span.SetAttributes(
			attribute.Bool("auth.token_valid", true),
			attribute.String("user.id", claims.UserID),
			attribute.String("workspace.id", claims.WorkspaceID),
		)

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxWorkspaceID, claims.WorkspaceID)

		c.Next()
	}
}

// extractBearerToken pulls the token out of an Authorization header
func extractBearerToken(authHeader string) string {
	const prefix = "Bearer "
	if len(authHeader) < len(prefix) || !strings.HasPrefix(authHeader, prefix) {
		return ""
	}
	return strings.TrimSpace(authHeader[len(prefix):])
}

// WorkspaceID returns the authenticated workspace for the request, set by
// either RequireSession or RequireAPIKey
func WorkspaceID(c *gin.Context) string {
	workspaceID, _ := c.Get(CtxWorkspaceID)
	id, _ := workspaceID.(string)
	return id
}
