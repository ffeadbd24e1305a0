package llm

import (
	"context"
	"encoding/json"
)

// Provider is a model backend. Problem generation and grading both send a
// single-turn Request and read a JSON object back.
type Provider interface {
	// Generate sends req and returns the model's output. With a Schema set
	// the content is the recovered JSON object, already validated.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	System   string
	Messages []Message

	// Schema is the JSON Schema the response must conform to. Providers
	// pass it to their native structured output mechanism; a nil Schema
	// returns the raw text.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// SingleTurn builds a request with one user message.
func SingleTurn(system, user string, schema *Schema) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: user}},
		Schema:   schema,
	}
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON object expected from the LLM.
type Schema struct {
	// Name is a kebab-case identifier such as "exam-problem". It doubles
	// as the tool or schema name on providers that need one.
	Name        string
	Description string
	Definition  map[string]any
}

// StopReason is why the model stopped generating, normalized across
// providers.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
)

// Response holds the LLM's output.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason StopReason
}

// Decode recovers the JSON object in the response content into v.
func (r *Response) Decode(v any) error {
	return DecodeJSON(r.Content, v)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// completion is what a provider adapter extracts from its SDK response.
type completion struct {
	text  json.RawMessage
	usage Usage
	model string
	stop  StopReason
}

// finish turns a completion into a Response. A structured request cut off
// by the token limit fails as truncated; otherwise the content is
// recovered and checked against the schema.
func finish(req Request, c completion) (*Response, error) {
	if req.Schema != nil && c.stop == StopMaxTokens {
		return nil, &ErrMaxTokensExceeded{Content: c.text}
	}
	content, err := validateResponse(req.Schema, c.text)
	if err != nil {
		return nil, err
	}
	if c.stop == "" {
		c.stop = StopEnd
	}
	return &Response{
		Content:    content,
		Usage:      c.usage,
		Model:      c.model,
		StopReason: c.stop,
	}, nil
}
