package judge

import (
	"context"
	"sync"
)

// Call records the arguments of one ScriptedJudge invocation
type Call struct {
	Rubric     string
	Expected   string
	Transcript string
}

// ScriptedJudge is a deterministic in-process judge used by tests and local
// development. It returns a fixed result (or error) and records every call.
type ScriptedJudge struct {
	mu        sync.Mutex
	calls     []Call
	NextErr   error
	NextScore Result
	ModelName string
}

// NewScriptedJudge returns a scripted judge with a friendly default verdict
func NewScriptedJudge() *ScriptedJudge {
	return &ScriptedJudge{
		NextScore: Result{Score: 8, Verdict: "Good job"},
		ModelName: "scripted-model",
	}
}

// Model returns the double's model identifier
func (j *ScriptedJudge) Model() string {
	return j.ModelName
}

// Evaluate records the call and replays the programmed result or error
func (j *ScriptedJudge) Evaluate(_ context.Context, rubric, expected, transcript string) (Result, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.calls = append(j.calls, Call{Rubric: rubric, Expected: expected, Transcript: transcript})

	if j.NextErr != nil {
		return Result{}, j.NextErr
	}
	return j.NextScore, nil
}

// Calls returns a copy of all recorded invocations
func (j *ScriptedJudge) Calls() []Call {
	j.mu.Lock()
	defer j.mu.Unlock()

	calls := make([]Call, len(j.calls))
	copy(calls, j.calls)
	return calls
}
