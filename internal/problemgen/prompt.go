package problemgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/i18n"
)

const systemPrompt = `You are an examiner writing questions for the practical exam of an information processing engineer certification.

Rules:
- Generate exactly one question for the given subject and difficulty.
- Questions are practical and job-oriented, answerable in a short phrase ("short") or a few sentences ("essay").
- The answer must be unambiguous and correct. The explanation must justify the answer in detail.
- List the key terms a correct answer should contain in "keywords".
- Do not repeat any question from the "already asked" list.
- Respond with a single JSON object and nothing else.`

var difficultyGoals = map[exam.Difficulty]string{
	exam.DifficultyBasic:        "check understanding of fundamental concepts",
	exam.DifficultyIntermediate: "assess the ability to apply concepts",
	exam.DifficultyAdvanced:     "assess advanced problem solving",
}

// buildUserMessage constructs the user message from GenerateInput and Config limits.
func buildUserMessage(input GenerateInput, cfg Config) string {
	var b strings.Builder

	subject := string(input.Subject)
	var topics []string
	if info, ok := exam.LookupSubject(input.Subject); ok {
		subject = info.Name
		topics = info.Topics
	}

	fmt.Fprintf(&b, "Subject: %s\n", subject)
	if len(topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(topics, ", "))
	}
	fmt.Fprintf(&b, "Difficulty: %s (%s)\n", input.Difficulty, difficultyGoals[input.Difficulty])
	fmt.Fprintf(&b, "Language: %s\n", i18n.LanguageName(cfg.Language))

	b.WriteString("\nAlready asked in this exam:\n")
	b.WriteString(buildDedup(input.PriorQuestions, cfg.MaxPriorQuestions))

	b.WriteString("\n\nRespond with JSON of the form:\n")
	b.WriteString(`{"question": "...", "answer": "...", "explanation": "...", "type": "short" or "essay", "keywords": ["...", "..."]}`)

	return b.String()
}
