package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("scoring-metrics")

// ScoringMetrics provides metrics collection for the scoring pipeline
type ScoringMetrics struct {
	attemptsCounter        metric.Int64Counter
	scoredCounter          metric.Int64Counter
	judgeFailuresCounter   metric.Int64Counter
	skippedCounter         metric.Int64Counter
	judgeDurationHistogram metric.Float64Histogram
}

// NewScoringMetrics creates a new scoring metrics collector
func NewScoringMetrics() (*ScoringMetrics, error) {
	attemptsCounter, err := meter.Int64Counter(
		"agent_observation.scoring.attempts",
		metric.WithDescription("Total number of scoring attempts entered"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	scoredCounter, err := meter.Int64Counter(
		"agent_observation.scoring.scored",
		metric.WithDescription("Total number of tasks scored successfully"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, err
	}

	judgeFailuresCounter, err := meter.Int64Counter(
		"agent_observation.scoring.judge_failures",
		metric.WithDescription("Total number of judge invocations that failed"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	skippedCounter, err := meter.Int64Counter(
		"agent_observation.scoring.skipped",
		metric.WithDescription("Total number of scoring triggers skipped (no judge or no enabled config)"),
		metric.WithUnit("{trigger}"),
	)
	if err != nil {
		return nil, err
	}

	judgeDurationHistogram, err := meter.Float64Histogram(
		"agent_observation.scoring.judge_duration",
		metric.WithDescription("Duration of judge invocations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &ScoringMetrics{
		attemptsCounter:        attemptsCounter,
		scoredCounter:          scoredCounter,
		judgeFailuresCounter:   judgeFailuresCounter,
		skippedCounter:         skippedCounter,
		judgeDurationHistogram: judgeDurationHistogram,
	}, nil
}

// RecordAttempt records entry into the scoring state machine
func (sm *ScoringMetrics) RecordAttempt(ctx context.Context, agentName string) {
	sm.attemptsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("agent.name", agentName),
		),
	)
}

// RecordScored records a successful scoring attempt
func (sm *ScoringMetrics) RecordScored(ctx context.Context, agentName, model string, duration time.Duration) {
	sm.scoredCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("agent.name", agentName),
			attribute.String("judge.model", model),
		),
	)
	sm.judgeDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("judge.model", model),
			attribute.String("status", "scored"),
		),
	)
}

// RecordJudgeFailure records a scoring attempt whose judge call failed
func (sm *ScoringMetrics) RecordJudgeFailure(ctx context.Context, agentName, model string, duration time.Duration) {
	sm.judgeFailuresCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("agent.name", agentName),
			attribute.String("judge.model", model),
		),
	)
	sm.judgeDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("judge.model", model),
			attribute.String("status", "failed"),
		),
	)
}

// RecordSkipped records a trigger that aborted before any side effect
func (sm *ScoringMetrics) RecordSkipped(ctx context.Context, agentName, reason string) {
	sm.skippedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("agent.name", agentName),
			attribute.String("reason", reason),
		),
	)
}
