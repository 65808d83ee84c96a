package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PatrickTobler/agent-observation-tool/internal/auth"
	"github.com/PatrickTobler/agent-observation-tool/internal/models"
	"github.com/PatrickTobler/agent-observation-tool/internal/tasks"
)

// EventResponse is the read-side shape of an event; the structured JSON
// fields come back parsed rather than as strings
type EventResponse struct {
	ID          string                 `json:"id"`
	AgentName   string                 `json:"agent_name"`
	TaskID      string                 `json:"task_id"`
	Kind        models.InteractionKind `json:"interaction_type"`
	Message     *string                `json:"message"`
	PayloadJSON json.RawMessage        `json:"payload_json"`
	ResultJSON  json.RawMessage        `json:"result_json"`
	ErrorJSON   json.RawMessage        `json:"error_json"`
	TS          time.Time              `json:"ts"`
	ReceivedAt  time.Time              `json:"received_at"`
}

func toRaw(s *string) json.RawMessage {
	if s == nil {
		return nil
	}
	return json.RawMessage(*s)
}

func toEventResponse(e models.InteractionEvent) EventResponse {
	return EventResponse{
		ID:          e.ID,
		AgentName:   e.AgentName,
		TaskID:      e.TaskID,
		Kind:        e.Kind,
		Message:     e.Message,
		PayloadJSON: toRaw(e.PayloadJSON),
		ResultJSON:  toRaw(e.ResultJSON),
		ErrorJSON:   toRaw(e.ErrorJSON),
		TS:          e.TS,
		ReceivedAt:  e.ReceivedAt,
	}
}

// ScoreResponse is the read-side shape of a score row. A failed attempt has
// a null score and verdict and carries the recorded judge error instead.
type ScoreResponse struct {
	ID                string          `json:"id"`
	TaskID            string          `json:"task_id"`
	AgentName         string          `json:"agent_name"`
	EvaluationID      string          `json:"evaluation_id"`
	EvaluationVersion int             `json:"evaluation_version"`
	Score             *int            `json:"score_1_to_10"`
	Verdict           *string         `json:"verdict_text"`
	LLMModel          string          `json:"llm_model"`
	PromptHash        string          `json:"prompt_hash"`
	Error             json.RawMessage `json:"error"`
	CreatedAt         time.Time       `json:"created_at"`
}

func toScoreResponse(s models.EvalScore) ScoreResponse {
	return ScoreResponse{
		ID:                s.ID,
		TaskID:            s.TaskID,
		AgentName:         s.AgentName,
		EvaluationID:      s.EvaluationID,
		EvaluationVersion: s.EvaluationVersion,
		Score:             s.Score,
		Verdict:           s.Verdict,
		LLMModel:          s.LLMModel,
		PromptHash:        s.PromptHash,
		Error:             toRaw(s.ErrorJSON),
		CreatedAt:         s.CreatedAt,
	}
}

// GetTaskDetail godoc
// @Summary Get task detail
// @Description Return the derived summary for a task plus its latest score, if any
// @Tags tasks
// @Produce json
// @Param task_id path string true "Task ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /tasks/{task_id} [get]
func (h *Handler) GetTaskDetail(c *gin.Context) {
	workspaceID := auth.WorkspaceID(c)
	taskID := c.Param("task_id")

	events, err := h.store.ListTaskEvents(c.Request.Context(), workspaceID, taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load task events"})
		return
	}
	if len(events) == 0 {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Task not found", Code: models.ErrCodeNotFound})
		return
	}

	summary := tasks.DeriveSummary(taskID, events[0].AgentName, events)

	score, err := h.store.LatestTaskScore(c.Request.Context(), workspaceID, taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load score"})
		return
	}

	resp := gin.H{"task": summary}
	if score != nil {
		resp["latest_score"] = toScoreResponse(*score)
	}
	c.JSON(http.StatusOK, resp)
}

// ListTaskEvents godoc
// @Summary List task events
// @Description Return the events of a task in canonical order (ts ascending, id tie-break)
// @Tags tasks
// @Produce json
// @Param task_id path string true "Task ID"
// @Param cursor query string false "Pagination cursor (last event id of the previous page)"
// @Param limit query int false "Page size (default 50, max 200)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tasks/{task_id}/events [get]
func (h *Handler) ListTaskEvents(c *gin.Context) {
	workspaceID := auth.WorkspaceID(c)
	taskID := c.Param("task_id")

	events, err := h.store.ListTaskEvents(c.Request.Context(), workspaceID, taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load task events"})
		return
	}

	sorted := tasks.SortEvents(events)
	cursor, limit := pageParams(c)
	page, next := paginate(sorted, cursor, limit, func(e models.InteractionEvent) string { return e.ID })

	out := make([]EventResponse, 0, len(page))
	for _, e := range page {
		out = append(out, toEventResponse(e))
	}
	c.JSON(http.StatusOK, gin.H{
		"events":      out,
		"next_cursor": next,
	})
}
