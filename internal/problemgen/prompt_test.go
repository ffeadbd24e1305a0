package problemgen

import (
	"fmt"
	"strings"
	"testing"

	"github.com/abhisek/mockexam/internal/exam"
)

func TestBuildUserMessage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Language = "ko"
	msg := buildUserMessage(GenerateInput{
		Subject:        exam.SubjectNetwork,
		Difficulty:     exam.DifficultyAdvanced,
		PriorQuestions: []string{"What is ARP?"},
	}, cfg)

	for _, want := range []string{
		"Subject: Networking",
		"Topics: OSI model",
		"Difficulty: advanced",
		"Language: Korean",
		"1. What is ARP?",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestBuildDedup_RespectsLimit(t *testing.T) {
	var prior []string
	for i := range 5 {
		prior = append(prior, fmt.Sprintf("q%d", i))
	}
	got := buildDedup(prior, 2)
	if got != "1. q3\n2. q4" {
		t.Fatalf("got %q", got)
	}
	if buildDedup(nil, 2) != "None" {
		t.Fatal("expected None for no prior questions")
	}
}

func TestStructuralValidator(t *testing.T) {
	valid := exam.Problem{Question: "q", Answer: "a", Explanation: "e", Type: exam.ResponseShort}
	v := &StructuralValidator{}
	if err := v.Validate(&valid, GenerateInput{}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	long := valid
	long.Explanation = strings.Repeat("가", maxExplanationRunes+1)
	if err := v.Validate(&long, GenerateInput{}); err == nil {
		t.Fatal("expected error for long explanation")
	}

	badType := valid
	badType.Type = "diagram"
	if err := v.Validate(&badType, GenerateInput{}); err == nil || err.Retryable {
		t.Fatalf("expected non-retryable type error, got %v", err)
	}
}
