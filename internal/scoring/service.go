// Package scoring decides whether a task is eligible for automatic
// evaluation and runs the judge when it is. Scoring is triggered by Result
// events only and runs synchronously on the ingestion path; judge failures
// are recorded as error rows, never surfaced to the ingesting caller.
package scoring

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/PatrickTobler/agent-observation-tool/internal/judge"
	"github.com/PatrickTobler/agent-observation-tool/internal/metrics"
	"github.com/PatrickTobler/agent-observation-tool/internal/models"
	"github.com/PatrickTobler/agent-observation-tool/internal/tasks"
)

// Store is the slice of persistence the orchestrator needs
type Store interface {
	GetEvaluation(ctx context.Context, workspaceID, agentName string) (*models.EvaluationConfig, error)
	ListTaskEvents(ctx context.Context, workspaceID, taskID string) ([]models.InteractionEvent, error)
	InsertScore(ctx context.Context, score *models.EvalScore) error
}

// Service orchestrates scoring attempts. The judge is an injected
// dependency, not process-global state: a nil judge disables scoring
// entirely and silently.
type Service struct {
	store   Store
	judge   judge.Judge
	metrics *metrics.ScoringMetrics
	tracer  trace.Tracer
}

// NewService creates a scoring orchestrator. Pass a nil judge to disable
// automatic evaluation.
func NewService(store Store, j judge.Judge, m *metrics.ScoringMetrics) *Service {
	return &Service{
		store:   store,
		judge:   j,
		metrics: m,
		tracer:  otel.Tracer("scoring-service"),
	}
}

// Judge exposes the installed judge implementation, or nil
func (s *Service) Judge() judge.Judge {
	return s.judge
}

// ScoreTaskIfNeeded runs one scoring attempt for a task if a judge is
// installed and an enabled evaluation config exists for (workspace, agent).
// Ineligible triggers are silent no-ops with zero side effects. An entered
// attempt makes exactly one judge call and persists exactly one EvalScore
// row: the score on success, the serialized failure on judge error. Only
// persistence failures are returned; nothing here deduplicates concurrent
// Result events for the same task, so scoring is at-least-once.
func (s *Service) ScoreTaskIfNeeded(ctx context.Context, workspaceID, agentName, taskID string) error {
	ctx, span := s.tracer.Start(ctx, "scoring.score_task_if_needed")
	defer span.End()

	span.SetAttributes(
		attribute.String("agent.name", agentName),
		attribute.String("task.id", taskID),
	)

	if s.judge == nil {
		span.SetAttributes(attribute.String("scoring.skipped", "no_judge"))
		s.metrics.RecordSkipped(ctx, agentName, "no_judge")
		return nil
	}

	cfg, err := s.store.GetEvaluation(ctx, workspaceID, agentName)
	if err != nil {
		return err
	}
	if cfg == nil || !cfg.IsEnabled {
		span.SetAttributes(attribute.String("scoring.skipped", "no_enabled_config"))
		s.metrics.RecordSkipped(ctx, agentName, "no_enabled_config")
		return nil
	}

	events, err := s.store.ListTaskEvents(ctx, workspaceID, taskID)
	if err != nil {
		return err
	}

	transcript := tasks.BuildTranscript(events)

	rubric := ""
	if cfg.RubricText != nil {
		rubric = *cfg.RubricText
	}
	expected := ""
	if cfg.ExpectedText != nil {
		expected = *cfg.ExpectedText
	}
	promptHash := judge.PromptHash(rubric, expected, transcript)

	span.SetAttributes(
		attribute.Int("evaluation.version", cfg.Version),
		attribute.String("prompt.hash", promptHash),
	)
	s.metrics.RecordAttempt(ctx, agentName)

	score := models.EvalScore{
		WorkspaceID:       workspaceID,
		TaskID:            taskID,
		AgentName:         agentName,
		EvaluationID:      cfg.ID,
		EvaluationVersion: cfg.Version,
		LLMModel:          s.judge.Model(),
		PromptHash:        promptHash,
	}

	start := time.Now()
	result, err := s.judge.Evaluate(ctx, rubric, expected, transcript)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		s.metrics.RecordJudgeFailure(ctx, agentName, s.judge.Model(), elapsed)
		log.Printf(`{"level":"warn","message":"Judge evaluation failed","agent_name":"%s","task_id":"%s","error":"%v"}`,
			agentName, taskID, err)

		errJSON := serializeJudgeError(err)
		score.ErrorJSON = &errJSON
		return s.store.InsertScore(ctx, &score)
	}

	s.metrics.RecordScored(ctx, agentName, s.judge.Model(), elapsed)
	span.SetAttributes(attribute.Int("score", result.Score))

	score.Score = &result.Score
	score.Verdict = &result.Verdict
	return s.store.InsertScore(ctx, &score)
}

// serializeJudgeError captures the failure reason as a JSON payload that
// read APIs surface verbatim alongside a null score
func serializeJudgeError(err error) string {
	payload, merr := json.Marshal(map[string]string{"error": err.Error()})
	if merr != nil {
		return `{"error":"judge evaluation failed"}`
	}
	return string(payload)
}
