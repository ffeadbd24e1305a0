package grading

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/llm"
)

var errNilResult = &llm.ErrInvalidResponse{Err: errors.New("oracle returned no result")}

// Pipeline grades a whole exam one problem at a time.
type Pipeline struct {
	oracle     Oracle
	unanswered string
	progress   func(done, total int)
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithUnansweredFeedback sets the feedback of results synthesized for
// blank answers.
func WithUnansweredFeedback(feedback string) Option {
	return func(p *Pipeline) { p.unanswered = feedback }
}

// WithProgress registers a callback invoked after every graded problem.
func WithProgress(fn func(done, total int)) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithLogger sets the pipeline's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// Tracker records the progress of the most recent grading pass so that a
// presentation layer can poll it. Pass Report to WithProgress.
type Tracker struct {
	done  atomic.Int64
	total atomic.Int64
}

// Report stores the latest progress.
func (t *Tracker) Report(done, total int) {
	t.total.Store(int64(total))
	t.done.Store(int64(done))
}

// Load returns the latest progress.
func (t *Tracker) Load() (done, total int) {
	return int(t.done.Load()), int(t.total.Load())
}

// NewPipeline returns a pipeline that consults oracle for every non-blank answer.
func NewPipeline(oracle Oracle, opts ...Option) *Pipeline {
	p := &Pipeline{
		oracle:     oracle,
		unanswered: "Answer not submitted.",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GradeAll grades every problem in order. Only one oracle call is in flight
// at a time. On the first failure it returns a nil slice and a
// *GradingError; otherwise the results align one-to-one with problems.
func (p *Pipeline) GradeAll(ctx context.Context, problems []exam.Problem, answers map[string]string) ([]exam.GradingResult, error) {
	total := len(problems)
	if p.progress != nil {
		p.progress(0, total)
	}
	return fold(problems, make([]exam.GradingResult, 0, total),
		func(acc []exam.GradingResult, i int, problem exam.Problem) ([]exam.GradingResult, error) {
			result, err := p.gradeOne(ctx, i, problem, answers[problem.ID])
			if err != nil {
				p.logger.Warn("grading aborted", "index", i, "problem", problem.ID, "error", err)
				return nil, err
			}
			if p.progress != nil {
				p.progress(i+1, total)
			}
			return append(acc, result), nil
		})
}

// Grade judges a single answer outside an exam. Failures are returned as
// *GradingError; a blank answer gets the synthesized zero result.
func (p *Pipeline) Grade(ctx context.Context, problem exam.Problem, answer string) (exam.GradingResult, error) {
	result, err := p.gradeOne(ctx, 0, problem, answer)
	if err != nil {
		p.logger.Warn("grading failed", "problem", problem.ID, "error", err)
	}
	return result, err
}

func (p *Pipeline) gradeOne(ctx context.Context, i int, problem exam.Problem, answer string) (exam.GradingResult, error) {
	if strings.TrimSpace(answer) == "" {
		return p.unansweredResult(problem), nil
	}
	if err := ctx.Err(); err != nil {
		return exam.GradingResult{}, &GradingError{Kind: llm.KindOf(err), ProblemID: problem.ID, Index: i, Err: err}
	}

	result, err := p.oracle.Grade(ctx, problem, answer)
	if err != nil {
		gerr := asGradingError(err)
		gerr.ProblemID = problem.ID
		gerr.Index = i
		return exam.GradingResult{}, gerr
	}
	if result == nil {
		return exam.GradingResult{}, &GradingError{Kind: llm.KindOf(errNilResult), ProblemID: problem.ID, Index: i, Err: errNilResult}
	}

	r := *result
	r.Score = exam.ClampScore(r.Score)
	return r, nil
}

func (p *Pipeline) unansweredResult(problem exam.Problem) exam.GradingResult {
	return exam.GradingResult{
		IsCorrect:     false,
		Score:         0,
		Feedback:      p.unanswered,
		Explanation:   problem.Explanation,
		UserAnswer:    "",
		CorrectAnswer: problem.Answer,
	}
}

// asGradingError returns err as a fresh *GradingError, classifying it when
// the oracle did not.
func asGradingError(err error) *GradingError {
	var gerr *GradingError
	if errors.As(err, &gerr) {
		cp := *gerr
		return &cp
	}
	return &GradingError{Kind: llm.KindOf(err), Err: err}
}

// fold threads acc through step for each item and stops at the first error,
// discarding the accumulator.
func fold[T, A any](items []T, acc A, step func(A, int, T) (A, error)) (A, error) {
	for i, item := range items {
		next, err := step(acc, i, item)
		if err != nil {
			var zero A
			return zero, err
		}
		acc = next
	}
	return acc, nil
}
