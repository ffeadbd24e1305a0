package problemgen

import (
	"strings"
	"unicode/utf8"

	"github.com/abhisek/mockexam/internal/exam"
)

const (
	maxQuestionRunes    = 2000
	maxAnswerRunes      = 2000
	maxExplanationRunes = 4000
)

// StructuralValidator checks that the required fields are present and
// within length limits.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(p *exam.Problem, _ GenerateInput) *ValidationError {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"question", p.Question, maxQuestionRunes},
		{"answer", p.Answer, maxAnswerRunes},
		{"explanation", p.Explanation, maxExplanationRunes},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{
				Validator: v.Name(),
				Message:   f.name + " is empty",
				Retryable: true,
			}
		}
		if utf8.RuneCountInString(f.value) > f.max {
			return &ValidationError{
				Validator: v.Name(),
				Message:   f.name + " is too long",
				Retryable: true,
			}
		}
	}
	if p.Type != exam.ResponseShort && p.Type != exam.ResponseEssay {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "type must be \"short\" or \"essay\"",
		}
	}
	return nil
}
