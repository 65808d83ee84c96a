package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1"

// OpenRouterJudge evaluates transcripts through the OpenRouter
// chat-completions API. One invocation makes exactly one outbound call:
// no retries, a single failure surfaces immediately as *Error.
type OpenRouterJudge struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	tracer     trace.Tracer
	breaker    *gobreaker.CircuitBreaker
}

// chatRequest is the wire format of the chat-completions call
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *responseFmt  `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFmt struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenRouterJudge creates a judge backed by the OpenRouter API.
// The model defaults to JUDGE_MODEL or a small claude model.
func NewOpenRouterJudge(apiKey, model string) *OpenRouterJudge {
	if model == "" {
		model = os.Getenv("JUDGE_MODEL")
	}
	if model == "" {
		model = "anthropic/claude-3.5-haiku"
	}

	settings := gobreaker.Settings{
		Name:    "openrouter-judge",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	}

	return &OpenRouterJudge{
		baseURL: defaultOpenRouterURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		tracer:  otel.Tracer("openrouter-judge"),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// SetBaseURL sets the base URL for testing purposes
func (j *OpenRouterJudge) SetBaseURL(baseURL string) {
	j.baseURL = baseURL
}

// Model returns the model identifier recorded on every score
func (j *OpenRouterJudge) Model() string {
	return j.model
}

// Evaluate performs one judge call and validates its output strictly
func (j *OpenRouterJudge) Evaluate(ctx context.Context, rubric, expected, transcript string) (Result, error) {
	ctx, span := j.tracer.Start(ctx, "judge.evaluate")
	defer span.End()

	span.SetAttributes(attribute.String("judge.model", j.model))

	result, err := j.breaker.Execute(func() (interface{}, error) {
		return j.evaluateInternal(ctx, rubric, expected, transcript)
	})

	if err != nil {
		span.RecordError(err)
		if jerr, ok := err.(*Error); ok {
			return Result{}, jerr
		}
		return Result{}, Errorf("judge call failed: %v", err)
	}

	parsed := result.(Result)
	span.SetAttributes(attribute.Int("judge.score", parsed.Score))

	return parsed, nil
}

// evaluateInternal performs the actual HTTP request and response validation
func (j *OpenRouterJudge) evaluateInternal(ctx context.Context, rubric, expected, transcript string) (Result, error) {
	prompt := BuildPrompt(rubric, expected, transcript)

	jsonData, err := json.Marshal(chatRequest{
		Model:          j.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		ResponseFormat: &responseFmt{Type: "json_object"},
	})
	if err != nil {
		return Result{}, Errorf("failed to marshal request: %v", err)
	}

	url := fmt.Sprintf("%s/chat/completions", j.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return Result{}, Errorf("failed to create request: %v", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+j.apiKey)

	resp, err := j.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, Errorf("failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return Result{}, Errorf("OpenRouter API error: %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return Result{}, Errorf("failed to decode response: %v", err)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return Result{}, Errorf("no content in judge response")
	}

	return ParseVerdict(chatResp.Choices[0].Message.Content)
}

// ParseVerdict validates the judge's raw JSON output. The score must be a
// JSON number within [1,10] (hard failure outside, not clamped) and the
// verdict a string; in-range non-integers are rounded to the nearest integer.
func ParseVerdict(content string) (Result, error) {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return Result{}, Errorf("judge output is not valid JSON: %v", err)
	}

	rawScore, ok := parsed["score"].(float64)
	if !ok {
		return Result{}, Errorf("invalid judge output format")
	}
	verdict, ok := parsed["verdict"].(string)
	if !ok {
		return Result{}, Errorf("invalid judge output format")
	}

	if rawScore < 1 || rawScore > 10 {
		return Result{}, Errorf("score out of range: %v. Must be 1-10.", rawScore)
	}

	return Result{
		Score:   int(math.Round(rawScore)),
		Verdict: verdict,
	}, nil
}
