package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/abhisek/mockexam/internal/store"
)

type recordingRepo struct {
	store.EventRepo
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.events = append(r.events, data)
	return r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLogging_RecordsSuccess(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"ok":true}`),
		Usage:   Usage{InputTokens: 12, OutputTokens: 7},
	})
	repo := &recordingRepo{}
	p := WithLogging(mock, "mock", repo, discardLogger())

	ctx := WithPurpose(context.Background(), PurposeGenerate)
	if _, err := p.Generate(ctx, Request{System: "sys", Messages: []Message{{Role: RoleUser, Content: "hi"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if !ev.Success || ev.Purpose != PurposeGenerate || ev.InputTokens != 12 || ev.OutputTokens != 7 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.ResponseBody != `{"ok":true}` {
		t.Fatalf("response body = %q", ev.ResponseBody)
	}
}

func TestLogging_RecordsFailureAndKeepsError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}})
	repo := &recordingRepo{err: errors.New("disk full")}
	p := WithLogging(mock, "mock", repo, discardLogger())

	_, err := p.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected provider error to pass through, got %v", err)
	}
	if len(repo.events) != 1 || repo.events[0].Success || repo.events[0].ErrorMessage == "" {
		t.Fatalf("unexpected events: %+v", repo.events)
	}
}

func TestLogging_RecordsRejectedContent(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"feedback":"no score"}`)})
	repo := &recordingRepo{}
	p := WithLogging(mock, "mock", repo, discardLogger())

	if _, err := p.Generate(context.Background(), Request{Schema: testSchema()}); err == nil {
		t.Fatal("expected a schema violation")
	}
	if got := repo.events[0].ResponseBody; got != `{"feedback":"no score"}` {
		t.Fatalf("response body = %q, want the rejected output", got)
	}
}

func TestLogging_NilRepo(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	p := WithLogging(mock, "mock", nil, nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingProvider) ModelID() string { return "blocking" }

func TestTimeout_BoundsGenerate(t *testing.T) {
	p := WithTimeout(blockingProvider{}, 10*time.Millisecond)
	_, err := p.Generate(context.Background(), Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if KindOf(err) != FailureServiceUnavailable {
		t.Fatalf("kind = %s", KindOf(err))
	}
}

func TestTimeout_ZeroIsPassThrough(t *testing.T) {
	var inner Provider = blockingProvider{}
	if WithTimeout(inner, 0) != inner {
		t.Fatal("expected unwrapped provider")
	}
}

func TestEstimateCost(t *testing.T) {
	cost, ok := EstimateCost("gpt-4o-mini", 1_000_000, 1_000_000)
	if !ok || math.Abs(cost-0.75) > 1e-9 {
		t.Fatalf("cost = %v, %v", cost, ok)
	}
	if _, ok := EstimateCost("openai/gpt-4o-mini", 10, 10); !ok {
		t.Fatal("expected vendor-prefixed ID to resolve")
	}
	if _, ok := EstimateCost("unknown-model", 10, 10); ok {
		t.Fatal("expected unknown model")
	}
}
