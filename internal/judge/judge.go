// Package judge abstracts the LLM call that scores a task transcript
// against a rubric. A network-backed judge and a scripted test double
// satisfy the same contract, so the scoring orchestrator can be exercised
// without network access.
package judge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Result is the validated output of one judge invocation
type Result struct {
	Score   int    `json:"score"`
	Verdict string `json:"verdict"`
}

// Judge scores a transcript against a rubric and expected output.
// Evaluate makes at most one attempt; any failure is returned as *Error.
type Judge interface {
	Evaluate(ctx context.Context, rubric, expected, transcript string) (Result, error)
	Model() string
}

// Error is the failure taxonomy of the judge gateway: transport failures,
// non-2xx responses, missing content, unparsable output, wrong types and
// out-of-range scores all surface as *Error.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Errorf builds a judge error in the fmt.Errorf style
func Errorf(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// promptTemplate is fixed: any change invalidates previously recorded
// prompt hashes, so treat edits as a breaking change.
const promptTemplate = `You are an evaluation judge. Score the agent's performance on a scale of 1-10.

## Rubric
%s

## Expected Output
%s

## Agent Transcript
%s

## Instructions
Evaluate how well the agent's result matches the expected output according to the rubric.
You MUST respond with valid JSON only, no other text:
{"score": <integer 1-10>, "verdict": "<brief explanation>"}`

// BuildPrompt compiles rubric, expected output and transcript into the judge
// prompt. Rubric and expected default to the empty string upstream when the
// evaluation config leaves them null; scoring proceeds either way.
func BuildPrompt(rubric, expected, transcript string) string {
	return fmt.Sprintf(promptTemplate, rubric, expected, transcript)
}

// promptHashLen is the length of the truncated hex digest kept for
// audit and display; not a collision-security guarantee at scale.
const promptHashLen = 16

// PromptHash returns a stable short identifier for the compiled prompt:
// the same (rubric, expected, transcript) triple always hashes identically,
// across calls and process restarts.
func PromptHash(rubric, expected, transcript string) string {
	sum := sha256.Sum256([]byte(BuildPrompt(rubric, expected, transcript)))
	return hex.EncodeToString(sum[:])[:promptHashLen]
}
