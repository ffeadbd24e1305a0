package problemgen

import (
	"fmt"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/llm"
)

// GenerateInput holds all context needed to generate a problem.
type GenerateInput struct {
	Subject    exam.Subject
	Difficulty exam.Difficulty

	// PriorQuestions contains the text of questions already generated for
	// the same exam. Used for deduplication in the prompt.
	PriorQuestions []string
}

// GenerationError is returned when a problem could not be produced.
type GenerationError struct {
	Kind llm.FailureKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("problem generation failed: %s: %v", e.Kind.Reason(), e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Reason is the human-readable explanation of the failure kind.
func (e *GenerationError) Reason() string { return e.Kind.Reason() }

func (e *GenerationError) FailureKind() llm.FailureKind { return e.Kind }

func generationError(err error) *GenerationError {
	return &GenerationError{Kind: llm.KindOf(err), Err: err}
}
