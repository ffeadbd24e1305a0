package problemgen

import (
	"context"
	"fmt"

	"github.com/abhisek/mockexam/internal/exam"
)

// ExamRequest describes a full problem set.
type ExamRequest struct {
	Subject    exam.Subject
	Difficulty exam.Difficulty
	Count      int
}

// Progress is called after each generated problem.
type Progress func(done, total int)

// BuildExam generates req.Count problems one at a time, feeding each
// prompt the questions generated so far. The first failure aborts the
// whole set; the error is the *GenerationError of that problem.
func BuildExam(ctx context.Context, src Source, req ExamRequest, progress Progress) ([]exam.Problem, error) {
	if req.Count <= 0 {
		return nil, fmt.Errorf("exam size must be positive, got %d", req.Count)
	}

	problems := make([]exam.Problem, 0, req.Count)
	prior := make([]string, 0, req.Count)

	for i := range req.Count {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, err := src.Generate(ctx, GenerateInput{
			Subject:        req.Subject,
			Difficulty:     req.Difficulty,
			PriorQuestions: prior,
		})
		if err != nil {
			return nil, fmt.Errorf("problem %d of %d: %w", i+1, req.Count, err)
		}

		problems = append(problems, *p)
		prior = append(prior, p.Question)
		if progress != nil {
			progress(len(problems), req.Count)
		}
	}

	return problems, nil
}
