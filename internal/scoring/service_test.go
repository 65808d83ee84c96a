package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatrickTobler/agent-observation-tool/internal/judge"
	"github.com/PatrickTobler/agent-observation-tool/internal/metrics"
	"github.com/PatrickTobler/agent-observation-tool/internal/models"
	"github.com/PatrickTobler/agent-observation-tool/internal/store"
)

const (
	testWorkspace = "ws-1"
	testAgent     = "support-bot"
	testTask      = "task-1"
)

func newTestService(t *testing.T, j judge.Judge) (*Service, *store.Memory) {
	t.Helper()
	m, err := metrics.NewScoringMetrics()
	require.NoError(t, err)
	st := store.NewMemory()
	return NewService(st, j, m), st
}

func seedTaskEvents(t *testing.T, st *store.Memory) {
	t.Helper()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	userMsg := "summarize the incident"
	resultMsg := "The incident was caused by a bad deploy."

	events := []models.InteractionEvent{
		{ID: "e1", WorkspaceID: testWorkspace, AgentName: testAgent, TaskID: testTask, Kind: models.KindUserInput, Message: &userMsg, TS: base},
		{ID: "e2", WorkspaceID: testWorkspace, AgentName: testAgent, TaskID: testTask, Kind: models.KindToolCall, TS: base.Add(time.Second)},
		{ID: "e3", WorkspaceID: testWorkspace, AgentName: testAgent, TaskID: testTask, Kind: models.KindResult, Message: &resultMsg, TS: base.Add(2 * time.Second)},
	}
	for i := range events {
		require.NoError(t, st.InsertEvent(context.Background(), &events[i]))
	}
}

func enableEvaluation(t *testing.T, st *store.Memory, rubric, expected string) *models.EvaluationConfig {
	t.Helper()
	cfg, _, err := st.UpsertEvaluation(context.Background(), testWorkspace, testAgent, models.EvaluationPatch{
		RubricText:   &rubric,
		ExpectedText: &expected,
	})
	require.NoError(t, err)
	return cfg
}

func TestScoreTaskIfNeeded_NoJudgeInstalled(t *testing.T) {
	svc, st := newTestService(t, nil)
	seedTaskEvents(t, st)
	enableEvaluation(t, st, "be accurate", "a summary")

	err := svc.ScoreTaskIfNeeded(context.Background(), testWorkspace, testAgent, testTask)
	require.NoError(t, err)

	scores, err := st.ListTaskScores(context.Background(), testWorkspace, testTask)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestScoreTaskIfNeeded_NoConfig(t *testing.T) {
	scripted := judge.NewScriptedJudge()
	svc, st := newTestService(t, scripted)
	seedTaskEvents(t, st)

	err := svc.ScoreTaskIfNeeded(context.Background(), testWorkspace, testAgent, testTask)
	require.NoError(t, err)

	assert.Empty(t, scripted.Calls())
	scores, _ := st.ListTaskScores(context.Background(), testWorkspace, testTask)
	assert.Empty(t, scores)
}

func TestScoreTaskIfNeeded_DisabledConfig(t *testing.T) {
	scripted := judge.NewScriptedJudge()
	svc, st := newTestService(t, scripted)
	seedTaskEvents(t, st)

	enableEvaluation(t, st, "be accurate", "a summary")
	disabled := false
	_, _, err := st.UpsertEvaluation(context.Background(), testWorkspace, testAgent, models.EvaluationPatch{IsEnabled: &disabled})
	require.NoError(t, err)

	require.NoError(t, svc.ScoreTaskIfNeeded(context.Background(), testWorkspace, testAgent, testTask))

	assert.Empty(t, scripted.Calls())
}

func TestScoreTaskIfNeeded_Success(t *testing.T) {
	scripted := judge.NewScriptedJudge()
	scripted.NextScore = judge.Result{Score: 9, Verdict: "Accurate and concise"}
	svc, st := newTestService(t, scripted)
	seedTaskEvents(t, st)
	cfg := enableEvaluation(t, st, "be accurate", "a root-cause summary")

	err := svc.ScoreTaskIfNeeded(context.Background(), testWorkspace, testAgent, testTask)
	require.NoError(t, err)

	// The judge sees rubric, expected and the transcript with only the
	// user input and result lines.
	calls := scripted.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "be accurate", calls[0].Rubric)
	assert.Equal(t, "a root-cause summary", calls[0].Expected)
	assert.Equal(t, "[UserInput] summarize the incident\n[Result] The incident was caused by a bad deploy.", calls[0].Transcript)

	scores, err := st.ListTaskScores(context.Background(), testWorkspace, testTask)
	require.NoError(t, err)
	require.Len(t, scores, 1)

	score := scores[0]
	require.NotNil(t, score.Score)
	require.NotNil(t, score.Verdict)
	assert.Equal(t, 9, *score.Score)
	assert.Equal(t, "Accurate and concise", *score.Verdict)
	assert.Nil(t, score.ErrorJSON)
	assert.Equal(t, cfg.ID, score.EvaluationID)
	assert.Equal(t, cfg.Version, score.EvaluationVersion)
	assert.Equal(t, "scripted-model", score.LLMModel)
	assert.Len(t, score.PromptHash, 16)
}

func TestScoreTaskIfNeeded_JudgeFailureIsPersistedNotReturned(t *testing.T) {
	scripted := judge.NewScriptedJudge()
	scripted.NextErr = judge.Errorf("judge output is not valid JSON: invalid character 'T'")
	svc, st := newTestService(t, scripted)
	seedTaskEvents(t, st)
	enableEvaluation(t, st, "be accurate", "a summary")

	err := svc.ScoreTaskIfNeeded(context.Background(), testWorkspace, testAgent, testTask)
	require.NoError(t, err)

	scores, err := st.ListTaskScores(context.Background(), testWorkspace, testTask)
	require.NoError(t, err)
	require.Len(t, scores, 1)

	score := scores[0]
	assert.Nil(t, score.Score)
	assert.Nil(t, score.Verdict)
	require.NotNil(t, score.ErrorJSON)
	assert.JSONEq(t, `{"error": "judge output is not valid JSON: invalid character 'T'"}`, *score.ErrorJSON)
	assert.Len(t, score.PromptHash, 16)
}

func TestScoreTaskIfNeeded_VersionPinnedAtAttemptTime(t *testing.T) {
	scripted := judge.NewScriptedJudge()
	svc, st := newTestService(t, scripted)
	seedTaskEvents(t, st)
	enableEvaluation(t, st, "v1 rubric", "expected")

	require.NoError(t, svc.ScoreTaskIfNeeded(context.Background(), testWorkspace, testAgent, testTask))

	// Bump the config, then score again: each row pins the version that
	// was current for its own attempt.
	newRubric := "v2 rubric"
	_, _, err := st.UpsertEvaluation(context.Background(), testWorkspace, testAgent, models.EvaluationPatch{RubricText: &newRubric})
	require.NoError(t, err)

	require.NoError(t, svc.ScoreTaskIfNeeded(context.Background(), testWorkspace, testAgent, testTask))

	scores, err := st.ListTaskScores(context.Background(), testWorkspace, testTask)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	versions := []int{scores[0].EvaluationVersion, scores[1].EvaluationVersion}
	assert.ElementsMatch(t, []int{1, 2}, versions)

	// The rubric change also changes the prompt hash.
	assert.NotEqual(t, scores[0].PromptHash, scores[1].PromptHash)
}

func TestScoreTaskIfNeeded_RepeatedTriggerScoresAgain(t *testing.T) {
	scripted := judge.NewScriptedJudge()
	svc, st := newTestService(t, scripted)
	seedTaskEvents(t, st)
	enableEvaluation(t, st, "rubric", "expected")

	require.NoError(t, svc.ScoreTaskIfNeeded(context.Background(), testWorkspace, testAgent, testTask))
	require.NoError(t, svc.ScoreTaskIfNeeded(context.Background(), testWorkspace, testAgent, testTask))

	assert.Len(t, scripted.Calls(), 2)

	scores, _ := st.ListTaskScores(context.Background(), testWorkspace, testTask)
	assert.Len(t, scores, 2)
}

func TestScoreTaskIfNeeded_WorkspaceIsolation(t *testing.T) {
	scripted := judge.NewScriptedJudge()
	svc, st := newTestService(t, scripted)
	seedTaskEvents(t, st)
	enableEvaluation(t, st, "rubric", "expected")

	// Same agent name in another workspace has no config there.
	err := svc.ScoreTaskIfNeeded(context.Background(), "ws-other", testAgent, testTask)
	require.NoError(t, err)
	assert.Empty(t, scripted.Calls())
}
