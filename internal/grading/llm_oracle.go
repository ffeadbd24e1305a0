package grading

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/i18n"
	"github.com/abhisek/mockexam/internal/llm"
)

// OracleConfig controls the behavior of the LLMOracle.
type OracleConfig struct {
	MaxTokens   int
	Temperature float64

	// Language is the BCP 47 tag feedback is written in.
	Language string

	// FallbackFeedback replaces an empty feedback field.
	FallbackFeedback string

	Logger *slog.Logger
}

// DefaultOracleConfig returns the recommended grading settings.
func DefaultOracleConfig() OracleConfig {
	return OracleConfig{
		MaxTokens:        1024,
		Temperature:      0.3,
		Language:         "en",
		FallbackFeedback: "Could not determine the grading result.",
	}
}

// LLMOracle grades answers with an LLM provider.
type LLMOracle struct {
	provider llm.Provider
	config   OracleConfig
	logger   *slog.Logger
}

// NewLLMOracle creates an oracle backed by provider.
func NewLLMOracle(provider llm.Provider, cfg OracleConfig) *LLMOracle {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMOracle{provider: provider, config: cfg, logger: logger}
}

type resultOutput struct {
	IsCorrect   bool    `json:"isCorrect"`
	Score       float64 `json:"score"`
	Feedback    string  `json:"feedback"`
	Explanation string  `json:"explanation"`
}

// Grade asks the provider to judge answer against the problem's model answer.
func (o *LLMOracle) Grade(ctx context.Context, problem exam.Problem, answer string) (*exam.GradingResult, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeGrade)

	req := llm.SingleTurn(systemPrompt, buildUserMessage(problem, answer, i18n.LanguageName(o.config.Language)), ResultSchema)
	req.MaxTokens = o.config.MaxTokens
	req.Temperature = o.config.Temperature

	resp, err := o.provider.Generate(ctx, req)
	if err != nil {
		return nil, &GradingError{Kind: llm.KindOf(err), ProblemID: problem.ID, Err: err}
	}

	var raw resultOutput
	if err := resp.Decode(&raw); err != nil {
		return nil, &GradingError{Kind: llm.KindOf(err), ProblemID: problem.ID, Err: err}
	}

	result := &exam.GradingResult{
		IsCorrect:     raw.IsCorrect,
		Score:         int(math.Round(math.Max(0, math.Min(100, raw.Score)))),
		Feedback:      strings.TrimSpace(raw.Feedback),
		Explanation:   strings.TrimSpace(raw.Explanation),
		UserAnswer:    answer,
		CorrectAnswer: problem.Answer,
	}
	if result.Feedback == "" {
		result.Feedback = o.config.FallbackFeedback
	}
	if result.Explanation == "" {
		result.Explanation = problem.Explanation
	}

	o.logger.Debug("graded answer", "problem", problem.ID, "score", result.Score, "correct", result.IsCorrect)
	return result, nil
}
