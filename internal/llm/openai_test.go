package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-mini",
		BaseURL: server.URL + "/v1",
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p
}

// openAIReply answers every request with one choice.
func openAIReply(message map[string]any, finish string) http.HandlerFunc {
	message["role"] = "assistant"
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-4.1-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       message,
				"finish_reason": finish,
			}},
			"usage": map[string]any{
				"prompt_tokens":     40,
				"completion_tokens": 25,
				"total_tokens":      65,
			},
		})
	}
}

func openAIError(status int, kind, code string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": kind, "message": kind, "code": code},
		})
	}
}

func TestOpenAIProvider_HappyPath(t *testing.T) {
	p := newTestOpenAIProvider(t, openAIReply(map[string]any{
		"content": `{"question":"What does ACID stand for?","answer":"Atomicity, Consistency, Isolation, Durability"}`,
	}, "stop"))

	resp, err := p.Generate(context.Background(), SingleTurn("You write certification exam questions.", "Generate a question.", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	if resp.StopReason != StopEnd {
		t.Fatalf("expected stop reason 'end', got %q", resp.StopReason)
	}
	if resp.Model != "gpt-4.1-mini" {
		t.Fatalf("model = %q", resp.Model)
	}
}

func TestOpenAIProvider_RecoversFencedJSON(t *testing.T) {
	p := newTestOpenAIProvider(t, openAIReply(map[string]any{
		"content": "```json\n{\"feedback\":\"Correct.\",\"score\":95}\n```",
	}, "stop"))

	resp, err := p.Generate(context.Background(), SingleTurn("", "grade", testSchema()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"feedback":"Correct.","score":95}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
}

func TestOpenAIProvider_Truncated(t *testing.T) {
	p := newTestOpenAIProvider(t, openAIReply(map[string]any{
		"content": `{"feedback":"The answer`,
	}, "length"))

	_, err := p.Generate(context.Background(), SingleTurn("", "grade", testSchema()))
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %T (%v)", err, err)
	}
}

func TestOpenAIProvider_TruncatedPlainTextIsReturned(t *testing.T) {
	p := newTestOpenAIProvider(t, openAIReply(map[string]any{"content": "A long"}, "length"))

	resp, err := p.Generate(context.Background(), SingleTurn("", "explain", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StopReason != StopMaxTokens {
		t.Fatalf("stop = %q, want max_tokens", resp.StopReason)
	}
}

func TestOpenAIProvider_Refusal(t *testing.T) {
	p := newTestOpenAIProvider(t, openAIReply(map[string]any{
		"content": "",
		"refusal": "I can't help with that.",
	}, "stop"))

	_, err := p.Generate(context.Background(), SingleTurn("", "grade", testSchema()))
	if KindOf(err) != FailureMalformedResponse {
		t.Fatalf("kind = %q, want malformed_response (%v)", KindOf(err), err)
	}
}

func TestOpenAIProvider_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    FailureKind
	}{
		{"rate limit", openAIError(http.StatusTooManyRequests, "tokens", "rate_limit_exceeded"), FailureRateLimited},
		{"bad key", openAIError(http.StatusUnauthorized, "invalid_request_error", "invalid_api_key"), FailureAuthInvalid},
		{"server error", openAIError(http.StatusInternalServerError, "server_error", ""), FailureServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestOpenAIProvider(t, tt.handler)
			_, err := p.Generate(context.Background(), SingleTurn("", "test", nil))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := KindOf(err); got != tt.want {
				t.Fatalf("kind = %q, want %q (%v)", got, tt.want, err)
			}
		})
	}
}

func TestOpenAIProvider_RateLimitType(t *testing.T) {
	p := newTestOpenAIProvider(t, openAIError(http.StatusTooManyRequests, "tokens", "rate_limit_exceeded"))
	_, err := p.Generate(context.Background(), SingleTurn("", "test", nil))
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T (%v)", err, err)
	}
}

func TestOpenAIModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gpt-mini", "gpt-4.1-mini"},
		{"gpt", "gpt-4.1"},
		{"gpt-5-mini", "gpt-5-mini"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, openaiModels); got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(OpenAIConfig{Model: "gpt-mini"}); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestStrictSchema(t *testing.T) {
	all := map[string]any{
		"properties": map[string]any{"a": map[string]any{}, "b": map[string]any{}},
		"required":   []any{"a", "b"},
	}
	if !strictSchema(all) {
		t.Error("expected strict when every property is required")
	}
	partial := map[string]any{
		"properties": map[string]any{"a": map[string]any{}, "b": map[string]any{}},
		"required":   []string{"a"},
	}
	if strictSchema(partial) {
		t.Error("expected non-strict with optional properties")
	}
}
