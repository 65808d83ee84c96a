package gateway

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/PatrickTobler/agent-observation-tool/internal/auth"
	"github.com/PatrickTobler/agent-observation-tool/internal/models"
	"github.com/PatrickTobler/agent-observation-tool/internal/tasks"
)

// ListAgents godoc
// @Summary List agents
// @Description Return per-agent activity aggregates for the workspace
// @Tags agents
// @Produce json
// @Param cursor query string false "Pagination cursor (last agent name of the previous page)"
// @Param limit query int false "Page size (default 50, max 200)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /agents [get]
func (h *Handler) ListAgents(c *gin.Context) {
	stats, err := h.store.ListAgentStats(c.Request.Context(), auth.WorkspaceID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load agents"})
		return
	}

	cursor, limit := pageParams(c)
	page, next := paginate(stats, cursor, limit, func(s models.AgentStats) string { return s.AgentName })

	c.JSON(http.StatusOK, gin.H{
		"agents":      page,
		"next_cursor": next,
	})
}

// taskWithScore pairs a derived task summary with its latest score row
type taskWithScore struct {
	models.TaskSummary
	LatestScore *ScoreResponse `json:"latest_score,omitempty"`
}

// ListAgentTasks godoc
// @Summary List agent tasks
// @Description Group the agent's events by task id and return derived summaries, newest activity first
// @Tags agents
// @Produce json
// @Param agent_name path string true "Agent name"
// @Param cursor query string false "Pagination cursor (last task id of the previous page)"
// @Param limit query int false "Page size (default 50, max 200)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /agents/{agent_name}/tasks [get]
func (h *Handler) ListAgentTasks(c *gin.Context) {
	workspaceID := auth.WorkspaceID(c)
	agentName := c.Param("agent_name")

	events, err := h.store.ListAgentEvents(c.Request.Context(), workspaceID, agentName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load agent events"})
		return
	}

	byTask := make(map[string][]models.InteractionEvent)
	for _, e := range events {
		byTask[e.TaskID] = append(byTask[e.TaskID], e)
	}

	summaries := make([]taskWithScore, 0, len(byTask))
	for taskID, taskEvents := range byTask {
		summaries = append(summaries, taskWithScore{
			TaskSummary: tasks.DeriveSummary(taskID, agentName, taskEvents),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		switch {
		case a.LastEventAt == nil:
			return false
		case b.LastEventAt == nil:
			return true
		case !a.LastEventAt.Equal(*b.LastEventAt):
			return a.LastEventAt.After(*b.LastEventAt)
		default:
			return a.TaskID < b.TaskID
		}
	})

	cursor, limit := pageParams(c)
	page, next := paginate(summaries, cursor, limit, func(t taskWithScore) string { return t.TaskID })

	for i := range page {
		score, err := h.store.LatestTaskScore(c.Request.Context(), workspaceID, page[i].TaskID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load scores"})
			return
		}
		if score != nil {
			resp := toScoreResponse(*score)
			page[i].LatestScore = &resp
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":       page,
		"next_cursor": next,
	})
}
