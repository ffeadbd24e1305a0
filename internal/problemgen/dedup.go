package problemgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/mockexam/internal/exam"
)

// buildDedup formats prior questions for the prompt, respecting the max limit.
// Returns "None" if there are no prior questions.
func buildDedup(priorQuestions []string, max int) string {
	if len(priorQuestions) == 0 {
		return "None"
	}

	// Keep only the most recent N questions.
	if max > 0 && len(priorQuestions) > max {
		priorQuestions = priorQuestions[len(priorQuestions)-max:]
	}

	var b strings.Builder
	for i, q := range priorQuestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}

// DuplicateValidator rejects a problem whose question repeats one that was
// already generated for the same exam.
type DuplicateValidator struct{}

func (v *DuplicateValidator) Name() string { return "duplicate" }

func (v *DuplicateValidator) Validate(p *exam.Problem, input GenerateInput) *ValidationError {
	q := normalizeQuestion(p.Question)
	for _, prior := range input.PriorQuestions {
		if normalizeQuestion(prior) == q {
			return &ValidationError{
				Validator: v.Name(),
				Message:   "question repeats an earlier one",
				Retryable: true,
			}
		}
	}
	return nil
}

func normalizeQuestion(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
