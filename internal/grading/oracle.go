// Package grading turns a ledger of free-text answers into an ordered list
// of grading results.
package grading

import (
	"context"
	"fmt"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/llm"
)

// Oracle judges a single answer.
type Oracle interface {
	Grade(ctx context.Context, problem exam.Problem, answer string) (*exam.GradingResult, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, problem exam.Problem, answer string) (*exam.GradingResult, error)

func (f OracleFunc) Grade(ctx context.Context, problem exam.Problem, answer string) (*exam.GradingResult, error) {
	return f(ctx, problem, answer)
}

// GradingError is returned when a grading pass could not be completed.
// Index and ProblemID identify the problem whose grade failed.
type GradingError struct {
	Kind      llm.FailureKind
	ProblemID string
	Index     int
	Err       error
}

func (e *GradingError) Error() string {
	if e.ProblemID == "" {
		return fmt.Sprintf("grading failed: %s: %v", e.Kind.Reason(), e.Err)
	}
	return fmt.Sprintf("grading problem %d (%s) failed: %s: %v", e.Index+1, e.ProblemID, e.Kind.Reason(), e.Err)
}

func (e *GradingError) Unwrap() error { return e.Err }

// Reason is the human-readable explanation of the failure kind.
func (e *GradingError) Reason() string { return e.Kind.Reason() }

func (e *GradingError) FailureKind() llm.FailureKind { return e.Kind }
