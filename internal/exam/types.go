// Package exam holds the data model shared by the problem source, the
// grading oracle and the session engine.
package exam

import (
	"fmt"
	"strings"
)

// Difficulty is the difficulty tag of a problem.
type Difficulty string

const (
	DifficultyBasic        Difficulty = "basic"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// AllDifficulties lists difficulties from easiest to hardest.
var AllDifficulties = []Difficulty{
	DifficultyBasic,
	DifficultyIntermediate,
	DifficultyAdvanced,
}

// ParseDifficulty maps a tag to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllDifficulties {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// ResponseType is the expected shape of an answer.
type ResponseType string

const (
	ResponseShort ResponseType = "short"
	ResponseEssay ResponseType = "essay"
)

// NormalizeResponseType returns ResponseEssay for "essay" and ResponseShort
// for anything else.
func NormalizeResponseType(s string) ResponseType {
	if ResponseType(strings.ToLower(strings.TrimSpace(s))) == ResponseEssay {
		return ResponseEssay
	}
	return ResponseShort
}

// Problem is a single exam question. Problems are immutable once created.
type Problem struct {
	ID          string       `json:"id" yaml:"id"`
	Subject     Subject      `json:"subject" yaml:"subject"`
	Difficulty  Difficulty   `json:"difficulty" yaml:"difficulty"`
	Question    string       `json:"question" yaml:"question"`
	Answer      string       `json:"answer" yaml:"answer"`
	Explanation string       `json:"explanation" yaml:"explanation"`
	Type        ResponseType `json:"type" yaml:"type"`
	Keywords    []string     `json:"keywords" yaml:"keywords"`
}

// GradingResult is the judgment for one problem. Results are positionally
// aligned with the problems of the session that produced them.
type GradingResult struct {
	IsCorrect     bool   `json:"isCorrect" yaml:"is_correct"`
	Score         int    `json:"score" yaml:"score"`
	Feedback      string `json:"feedback" yaml:"feedback"`
	Explanation   string `json:"explanation" yaml:"explanation"`
	UserAnswer    string `json:"userAnswer" yaml:"user_answer"`
	CorrectAnswer string `json:"correctAnswer" yaml:"correct_answer"`
}

// ClampScore bounds a score to [0, 100].
func ClampScore(score int) int {
	return max(0, min(100, score))
}
