package problemgen

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/llm"
)

// LLMGenerator implements Source using the LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
	logger   *slog.Logger
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMGenerator{provider: provider, config: cfg, logger: logger}
}

// problemOutput is the raw LLM response before validation.
type problemOutput struct {
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
	Type        string   `json:"type"`
	Keywords    []string `json:"keywords"`
}

// Generate produces a single problem for the given input.
func (g *LLMGenerator) Generate(ctx context.Context, input GenerateInput) (*exam.Problem, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeGenerate)

	req := llm.SingleTurn(systemPrompt, buildUserMessage(input, g.config), ProblemSchema)
	req.MaxTokens = g.config.MaxTokens
	req.Temperature = g.config.Temperature

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, generationError(err)
	}

	var raw problemOutput
	if err := resp.Decode(&raw); err != nil {
		return nil, generationError(err)
	}

	p := &exam.Problem{
		ID:          uuid.NewString(),
		Subject:     input.Subject,
		Difficulty:  input.Difficulty,
		Question:    strings.TrimSpace(raw.Question),
		Answer:      strings.TrimSpace(raw.Answer),
		Explanation: strings.TrimSpace(raw.Explanation),
		Type:        exam.NormalizeResponseType(raw.Type),
		Keywords:    normalizeKeywords(raw.Keywords),
	}

	for _, v := range g.config.Validators {
		if verr := v.Validate(p, input); verr != nil {
			return nil, &GenerationError{Kind: llm.FailureMalformedResponse, Err: verr}
		}
	}

	if g.config.Recorder != nil {
		if err := g.config.Recorder.SaveProblem(context.WithoutCancel(ctx), *p); err != nil {
			g.logger.Warn("failed to record generated problem", "id", p.ID, "error", err)
		}
	}

	return p, nil
}

// normalizeKeywords trims entries, drops blanks and duplicates, and never
// returns nil.
func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, k := range in {
		k = strings.TrimSpace(k)
		key := strings.ToLower(k)
		if k == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, k)
	}
	return out
}
