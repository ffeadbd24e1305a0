package llm

import (
	"context"
	"slices"
	"strings"
	"testing"
)

func TestProviderNames(t *testing.T) {
	want := []string{"anthropic", "gemini", "mock", "openai", "openrouter"}
	if got := ProviderNames(); !slices.Equal(got, want) {
		t.Fatalf("ProviderNames() = %v, want %v", got, want)
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("model = %q, want mock", p.ModelID())
	}

	_, err = NewProvider(context.Background(), Config{Provider: "bard"}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "openrouter") {
		t.Fatalf("expected the accepted names in the error, got %v", err)
	}

	_, err = NewProvider(context.Background(), Config{Provider: "anthropic"}, nil, nil)
	if err == nil {
		t.Fatal("expected an error without an API key")
	}
}
