package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PatrickTobler/agent-observation-tool/internal/auth"
	"github.com/PatrickTobler/agent-observation-tool/internal/models"
)

// PutEvaluation godoc
// @Summary Create or update an agent's evaluation config
// @Description Upsert the scoring policy for an agent. Omitted fields keep their prior values; every update bumps the config version. Replies 201 on first creation, 200 on update.
// @Tags evaluations
// @Accept json
// @Produce json
// @Param agent_name path string true "Agent name"
// @Param request body models.EvaluationPatch true "Fields to set"
// @Success 200 {object} models.EvaluationConfig
// @Success 201 {object} models.EvaluationConfig
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /agents/{agent_name}/evaluation [put]
func (h *Handler) PutEvaluation(c *gin.Context) {
	var patch models.EvaluationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	cfg, created, err := h.store.UpsertEvaluation(c.Request.Context(), auth.WorkspaceID(c), c.Param("agent_name"), patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save evaluation"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, cfg)
}

// GetEvaluation godoc
// @Summary Get an agent's evaluation config
// @Tags evaluations
// @Produce json
// @Param agent_name path string true "Agent name"
// @Success 200 {object} models.EvaluationConfig
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /agents/{agent_name}/evaluation [get]
func (h *Handler) GetEvaluation(c *gin.Context) {
	cfg, err := h.store.GetEvaluation(c.Request.Context(), auth.WorkspaceID(c), c.Param("agent_name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load evaluation"})
		return
	}
	if cfg == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "No evaluation configured for this agent", Code: models.ErrCodeNotFound})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// ListAgentScores godoc
// @Summary List an agent's scores
// @Description Return score rows for the agent, newest first. Failed attempts appear with a null score and the recorded judge error.
// @Tags evaluations
// @Produce json
// @Param agent_name path string true "Agent name"
// @Param cursor query string false "Pagination cursor (last score id of the previous page)"
// @Param limit query int false "Page size (default 50, max 200)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /agents/{agent_name}/scores [get]
func (h *Handler) ListAgentScores(c *gin.Context) {
	scores, err := h.store.ListAgentScores(c.Request.Context(), auth.WorkspaceID(c), c.Param("agent_name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load scores"})
		return
	}

	cursor, limit := pageParams(c)
	page, next := paginate(scores, cursor, limit, func(s models.EvalScore) string { return s.ID })

	out := make([]ScoreResponse, 0, len(page))
	for _, s := range page {
		out = append(out, toScoreResponse(s))
	}
	c.JSON(http.StatusOK, gin.H{
		"scores":      out,
		"next_cursor": next,
	})
}
