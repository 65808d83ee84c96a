package judge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatCompletion(content string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"content": content}},
		},
	}
}

func TestOpenRouterJudge_Evaluate(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse func(w http.ResponseWriter, r *http.Request)
		expectedError  string
		expectedScore  int
	}{
		{
			name: "successful_evaluation",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "POST", r.Method)
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				var req chatRequest
				err := json.NewDecoder(r.Body).Decode(&req)
				assert.NoError(t, err)
				assert.Equal(t, "test-model", req.Model)
				require.Len(t, req.Messages, 1)
				assert.Contains(t, req.Messages[0].Content, "## Rubric\nbe nice")
				require.NotNil(t, req.ResponseFormat)
				assert.Equal(t, "json_object", req.ResponseFormat.Type)

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(chatCompletion(`{"score": 8, "verdict": "solid work"}`))
			},
			expectedScore: 8,
		},
		{
			name: "fractional_score_rounded",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(chatCompletion(`{"score": 7.6, "verdict": "good"}`))
			},
			expectedScore: 8,
		},
		{
			name: "score_out_of_range",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(chatCompletion(`{"score": 11, "verdict": "over the top"}`))
			},
			expectedError: "score out of range",
		},
		{
			name: "server_error",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("upstream down"))
			},
			expectedError: "OpenRouter API error: 500",
		},
		{
			name: "no_choices_in_response",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
			},
			expectedError: "no content in judge response",
		},
		{
			name: "content_is_not_json",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(chatCompletion("I think the agent did quite well!"))
			},
			expectedError: "not valid JSON",
		},
		{
			name: "score_is_a_string",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(chatCompletion(`{"score": "8", "verdict": "good"}`))
			},
			expectedError: "invalid judge output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResponse))
			defer server.Close()

			j := NewOpenRouterJudge("test-key", "test-model")
			j.SetBaseURL(server.URL)

			result, err := j.Evaluate(context.Background(), "be nice", "a good answer", "[Result] done")

			if tt.expectedError != "" {
				require.Error(t, err)
				var jerr *Error
				require.ErrorAs(t, err, &jerr)
				assert.Contains(t, jerr.Message, tt.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedScore, result.Score)
			assert.NotEmpty(t, result.Verdict)
		})
	}
}

func TestNewOpenRouterJudge_ModelDefault(t *testing.T) {
	t.Setenv("JUDGE_MODEL", "")

	j := NewOpenRouterJudge("key", "")
	assert.Equal(t, "anthropic/claude-3.5-haiku", j.Model())

	j = NewOpenRouterJudge("key", "openai/gpt-4o-mini")
	assert.Equal(t, "openai/gpt-4o-mini", j.Model())
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		expectedScore int
		expectedError bool
	}{
		{name: "minimum_score", content: `{"score": 1, "verdict": "poor"}`, expectedScore: 1},
		{name: "maximum_score", content: `{"score": 10, "verdict": "perfect"}`, expectedScore: 10},
		{name: "rounds_down", content: `{"score": 6.4, "verdict": "ok"}`, expectedScore: 6},
		{name: "below_range", content: `{"score": 0, "verdict": "bad"}`, expectedError: true},
		{name: "negative", content: `{"score": -3, "verdict": "bad"}`, expectedError: true},
		{name: "missing_verdict", content: `{"score": 5}`, expectedError: true},
		{name: "missing_score", content: `{"verdict": "fine"}`, expectedError: true},
		{name: "empty_object", content: `{}`, expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseVerdict(tt.content)
			if tt.expectedError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedScore, result.Score)
		})
	}
}
