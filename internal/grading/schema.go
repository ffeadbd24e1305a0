package grading

import "github.com/abhisek/mockexam/internal/llm"

// ResultSchema defines the JSON schema for LLM grading responses.
var ResultSchema = &llm.Schema{
	Name:        "grading-result",
	Description: "The grade of a single exam answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"isCorrect": map[string]any{
				"type":        "boolean",
				"description": "Whether the answer is accepted as correct",
			},
			"score": map[string]any{
				"type":        "number",
				"description": "Score from 0 to 100, partial credit allowed",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Feedback on the candidate's answer",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "A detailed explanation for the candidate",
			},
		},
		"required": []any{"isCorrect", "score"},
	},
}
