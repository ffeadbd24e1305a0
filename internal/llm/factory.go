package llm

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/abhisek/mockexam/internal/store"
)

type constructor func(ctx context.Context, cfg Config) (Provider, error)

// constructors builds the bare client for each provider name.
var constructors = map[string]constructor{
	"anthropic": func(_ context.Context, cfg Config) (Provider, error) {
		return NewAnthropicProvider(cfg.Anthropic)
	},
	"openai": func(_ context.Context, cfg Config) (Provider, error) {
		return NewOpenAIProvider(cfg.OpenAI)
	},
	"gemini": func(ctx context.Context, cfg Config) (Provider, error) {
		return NewGeminiProvider(ctx, cfg.Gemini)
	},
	"openrouter": func(_ context.Context, cfg Config) (Provider, error) {
		return NewOpenRouterProvider(cfg.OpenRouter)
	},
	"mock": func(context.Context, Config) (Provider, error) {
		return NewMockProvider(), nil
	},
}

// ProviderNames lists the accepted values of llm.provider.
func ProviderNames() []string {
	return slices.Sorted(maps.Keys(constructors))
}

// NewProvider builds the configured provider and wraps it so that each
// call is bounded by cfg.Timeout, retried per cfg.Retry and logged to
// repo, which may be nil.
func NewProvider(ctx context.Context, cfg Config, repo store.EventRepo, logger *slog.Logger) (Provider, error) {
	build, ok := constructors[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider %q (want one of %v)", cfg.Provider, ProviderNames())
	}
	base, err := build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Logging sits innermost so every attempt is recorded.
	p := WithLogging(base, cfg.Provider, repo, logger)
	p = WithRetry(p, cfg.Retry)
	return WithTimeout(p, cfg.Timeout), nil
}
