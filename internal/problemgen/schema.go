package problemgen

import "github.com/abhisek/mockexam/internal/llm"

// ProblemSchema defines the JSON schema for LLM problem generation
// responses. Only question, answer and explanation are required; a missing
// type defaults to short and missing keywords to an empty list.
var ProblemSchema = &llm.Schema{
	Name:        "exam-problem",
	Description: "A single practical-exam question with model answer and explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question shown to the candidate",
			},
			"answer": map[string]any{
				"type":        "string",
				"description": "The model answer",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "A detailed explanation of the answer",
			},
			"type": map[string]any{
				"type":        "string",
				"description": "\"short\" for a one-line answer, \"essay\" for a descriptive answer",
			},
			"keywords": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Key terms a correct answer should mention",
			},
		},
		"required": []any{"question", "answer", "explanation"},
	},
}
