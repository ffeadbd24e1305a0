package grading

import (
	"fmt"
	"strings"

	"github.com/abhisek/mockexam/internal/exam"
)

const systemPrompt = `You are a grader for the practical exam of an information processing engineer certification.

Grading criteria:
- Check whether the key terms of the model answer are present.
- Accept equivalent wording as correct.
- Give partial credit on a scale of 0 to 100.
- Keep feedback constructive.

Respond with a single JSON object and nothing else.`

func buildUserMessage(problem exam.Problem, answer, languageName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question: %s\n", problem.Question)
	fmt.Fprintf(&b, "Model answer: %s\n", problem.Answer)
	if len(problem.Keywords) > 0 {
		fmt.Fprintf(&b, "Key terms: %s\n", strings.Join(problem.Keywords, ", "))
	}
	fmt.Fprintf(&b, "Candidate answer: %s\n", answer)
	fmt.Fprintf(&b, "Write feedback and explanation in %s.\n", languageName)

	b.WriteString("\nRespond with JSON of the form:\n")
	b.WriteString(`{"isCorrect": true or false, "score": 0-100, "feedback": "...", "explanation": "..."}`)

	return b.String()
}
