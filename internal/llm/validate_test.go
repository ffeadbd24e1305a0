package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-grade",
		Description: "A test grading object",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"feedback":  map[string]any{"type": "string"},
				"score":     map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
				"isCorrect": map[string]any{"type": "boolean"},
				"level":     map[string]any{"type": "string", "enum": []any{"basic", "advanced"}},
			},
			"required": []any{"feedback", "score"},
		},
	}
}

func TestValidateResponse_ValidJSON(t *testing.T) {
	raw := json.RawMessage(`{"feedback":"ok","score":80,"isCorrect":true}`)
	got, err := validateResponse(testSchema(), raw)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if string(got) != string(raw) {
		t.Fatalf("content = %s, want %s", got, raw)
	}
}

func TestValidateResponse_ValidWithoutOptional(t *testing.T) {
	raw := json.RawMessage(`{"feedback":"ok","score":0}`)
	if _, err := validateResponse(testSchema(), raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateResponse_RecoversEmbeddedObject(t *testing.T) {
	raw := json.RawMessage("Here is the grading:\n```json\n{\"feedback\":\"good\",\"score\":90}\n```\nThanks!")
	got, err := validateResponse(testSchema(), raw)
	if err != nil {
		t.Fatalf("expected recovery, got: %v", err)
	}
	if string(got) != `{"feedback":"good","score":90}` {
		t.Fatalf("unexpected recovered content: %s", got)
	}
}

func TestValidateResponse_MissingRequired(t *testing.T) {
	raw := json.RawMessage(`{"feedback":"ok"}`)
	_, err := validateResponse(testSchema(), raw)
	if err == nil {
		t.Fatal("expected error for missing required field")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateResponse_OutOfRange(t *testing.T) {
	raw := json.RawMessage(`{"feedback":"ok","score":150}`)
	if _, err := validateResponse(testSchema(), raw); err == nil {
		t.Fatal("expected error for score above maximum")
	}
}

func TestValidateResponse_InvalidEnum(t *testing.T) {
	raw := json.RawMessage(`{"feedback":"ok","score":1,"level":"expert"}`)
	if _, err := validateResponse(testSchema(), raw); err == nil {
		t.Fatal("expected error for invalid enum value")
	}
}

func TestValidateResponse_MalformedJSON(t *testing.T) {
	raw := json.RawMessage(`{not json}`)
	_, err := validateResponse(testSchema(), raw)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
	if KindOf(err) != FailureMalformedResponse {
		t.Fatalf("kind = %s, want %s", KindOf(err), FailureMalformedResponse)
	}
}

func TestValidateResponse_EmptyResponse(t *testing.T) {
	if _, err := validateResponse(testSchema(), json.RawMessage(``)); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	raw := json.RawMessage(`not even json`)
	got, err := validateResponse(nil, raw)
	if err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
	if string(got) != string(raw) {
		t.Fatalf("nil schema should pass content through, got %s", got)
	}
}
