// Package gateway exposes the HTTP surface: event ingestion for agent SDKs
// (API-key authenticated) and the dashboard read APIs (session
// authenticated). Handlers stay thin; status derivation and scoring live in
// their own packages.
package gateway

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/PatrickTobler/agent-observation-tool/internal/auth"
	"github.com/PatrickTobler/agent-observation-tool/internal/models"
	"github.com/PatrickTobler/agent-observation-tool/internal/scoring"
	"github.com/PatrickTobler/agent-observation-tool/internal/store"
)

// Handler handles HTTP requests for the gateway layer
type Handler struct {
	store      store.Store
	scorer     *scoring.Service
	jwtManager *auth.JWTManager
}

// NewHandler creates a new gateway handler
func NewHandler(st store.Store, scorer *scoring.Service, jwtManager *auth.JWTManager) *Handler {
	return &Handler{
		store:      st,
		scorer:     scorer,
		jwtManager: jwtManager,
	}
}

// LoginRequest represents a dashboard login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token string          `json:"token"`
	User  models.UserInfo `json:"user"`
}

// Login godoc
// @Summary Dashboard login
// @Description Authenticate a dashboard user and return a JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
		return
	}
	if user == nil {
		log.Printf(`{"level":"warn","message":"User not found","email":"%s"}`, req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		log.Printf(`{"level":"warn","message":"Invalid password","email":"%s"}`, req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.jwtManager.GenerateToken(
		c.Request.Context(),
		user.ID,
		user.Email,
		user.WorkspaceID,
		24*time.Hour,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  user.ToUserInfo(),
	})
}

// CreateAPIKeyRequest represents an API key creation request
type CreateAPIKeyRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateAPIKey godoc
// @Summary Create API key
// @Description Create a new ingestion API key; the secret is returned exactly once
// @Tags api-keys
// @Accept json
// @Produce json
// @Param request body CreateAPIKeyRequest true "Key name"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /api-keys [post]
func (h *Handler) CreateAPIKey(c *gin.Context) {
	var req CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing name"})
		return
	}

	secret, prefix := auth.GenerateAPIKeySecret()
	key, err := h.store.CreateAPIKey(c.Request.Context(), auth.WorkspaceID(c), req.Name, auth.HashSecret(secret), prefix)
	if err != nil {
		log.Printf(`{"level":"error","message":"Failed to create api key","error":"%v"}`, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create API key"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":     key.ID,
		"name":   key.Name,
		"prefix": key.Prefix,
		"secret": secret,
	})
}

// ListAPIKeys godoc
// @Summary List API keys
// @Tags api-keys
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api-keys [get]
func (h *Handler) ListAPIKeys(c *gin.Context) {
	keys, err := h.store.ListAPIKeys(c.Request.Context(), auth.WorkspaceID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list API keys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeAPIKey godoc
// @Summary Revoke API key
// @Tags api-keys
// @Produce json
// @Param key_id path string true "API key ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api-keys/{key_id} [delete]
func (h *Handler) RevokeAPIKey(c *gin.Context) {
	revoked, err := h.store.RevokeAPIKey(c.Request.Context(), auth.WorkspaceID(c), c.Param("key_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke API key"})
		return
	}
	if !revoked {
		c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": true})
}
