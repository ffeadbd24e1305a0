package problemgen

import (
	"context"

	"github.com/abhisek/mockexam/internal/exam"
)

// Source produces exam problems.
type Source interface {
	// Generate produces a single problem for the given subject and
	// difficulty. Failures are returned as *GenerationError.
	Generate(ctx context.Context, input GenerateInput) (*exam.Problem, error)
}

// Recorder receives every problem a Source produced. Used to keep a
// history of generated problems.
type Recorder interface {
	SaveProblem(ctx context.Context, p exam.Problem) error
}
