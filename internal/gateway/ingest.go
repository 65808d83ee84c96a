package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PatrickTobler/agent-observation-tool/internal/auth"
	"github.com/PatrickTobler/agent-observation-tool/internal/models"
)

// IngestEventRequest is the wire format SDKs post to /v1/events.
// Timestamps are RFC 3339; the structured fields are stored verbatim.
type IngestEventRequest struct {
	AgentName       string          `json:"agent_name"`
	TaskID          string          `json:"task_id"`
	InteractionType string          `json:"interaction_type"`
	Message         *string         `json:"message"`
	PayloadJSON     json.RawMessage `json:"payload_json"`
	ResultJSON      json.RawMessage `json:"result_json"`
	ErrorJSON       json.RawMessage `json:"error_json"`
	TS              string          `json:"ts"`
}

func (r *IngestEventRequest) validate() error {
	if r.AgentName == "" {
		return fmt.Errorf("agent_name is required")
	}
	if r.TaskID == "" {
		return fmt.Errorf("task_id is required")
	}
	if r.TS == "" {
		return fmt.Errorf("ts is required")
	}
	if !models.InteractionKind(r.InteractionType).Valid() {
		return fmt.Errorf("interaction_type must be one of %v", models.InteractionKinds)
	}
	return nil
}

func rawToString(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}

// IngestEvent godoc
// @Summary Ingest an interaction event
// @Description Record one interaction event for a task. Result events trigger a synchronous scoring attempt when the agent has an enabled evaluation; judge failures never affect the ingestion response.
// @Tags events
// @Accept json
// @Produce json
// @Param request body IngestEventRequest true "Interaction event"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Security ApiKeyAuth
// @Router /events [post]
func (h *Handler) IngestEvent(c *gin.Context) {
	var req IngestEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid JSON body", Code: models.ErrCodeInvalidRequest})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error(), Code: models.ErrCodeValidationFailed})
		return
	}

	ts, err := time.Parse(time.RFC3339, req.TS)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "ts must be an RFC 3339 timestamp", Code: models.ErrCodeValidationFailed})
		return
	}

	workspaceID := auth.WorkspaceID(c)
	event := &models.InteractionEvent{
		WorkspaceID: workspaceID,
		AgentName:   req.AgentName,
		TaskID:      req.TaskID,
		Kind:        models.InteractionKind(req.InteractionType),
		Message:     req.Message,
		PayloadJSON: rawToString(req.PayloadJSON),
		ResultJSON:  rawToString(req.ResultJSON),
		ErrorJSON:   rawToString(req.ErrorJSON),
		TS:          ts,
	}

	if err := h.store.InsertEvent(c.Request.Context(), event); err != nil {
		log.Printf(`{"level":"error","message":"Failed to insert event","task_id":"%s","error":"%v"}`, req.TaskID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store event"})
		return
	}

	// A result event marks the task as finished, which is the moment scoring
	// becomes possible. The judge call is synchronous and its failures are
	// recorded as failed score rows, not surfaced here.
	if event.Kind == models.KindResult {
		if err := h.scorer.ScoreTaskIfNeeded(c.Request.Context(), workspaceID, req.AgentName, req.TaskID); err != nil {
			log.Printf(`{"level":"error","message":"Failed to persist score","task_id":"%s","error":"%v"}`, req.TaskID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store score"})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"event_id": event.ID,
		"accepted": true,
	})
}
