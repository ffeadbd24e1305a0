// Package session implements the timed exam session: a plain Session value,
// the commands that change it, and an Engine that applies them one at a
// time.
package session

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/abhisek/mockexam/internal/exam"
)

// Phase is the grading state of a session.
type Phase int

const (
	PhaseIdle      Phase = iota // Not submitted, no grading pass running
	PhaseGrading                // A grading pass is in flight
	PhaseFailed                 // The last grading pass failed; answers intact
	PhaseSubmitted              // Graded; terminal until End or Start
)

func (p Phase) String() string {
	switch p {
	case PhaseGrading:
		return "grading"
	case PhaseFailed:
		return "failed"
	case PhaseSubmitted:
		return "submitted"
	}
	return "idle"
}

// MarshalText renders the phase name in JSON.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Session is the state of one exam attempt. Transitions never mutate a
// Session in place; the Answers map is replaced on every write, so values
// may be shared freely.
type Session struct {
	ID    string `json:"id,omitempty"`
	Epoch uint64 `json:"epoch"`

	Active       bool           `json:"active"`
	Problems     []exam.Problem `json:"problems"`
	CurrentIndex int            `json:"currentIndex"`

	// Answers maps problem ID to the latest answer text. A missing key is
	// unanswered; an empty string is an explicit empty answer.
	Answers map[string]string `json:"answers"`

	TimeRemaining int `json:"timeRemaining"`
	Total         int `json:"total"`

	Submitted bool                 `json:"submitted"`
	Results   []exam.GradingResult `json:"results,omitempty"`

	Phase Phase `json:"phase"`

	// Forced is set when the running or finished grading pass was
	// started by the deadline.
	Forced          bool `json:"forced"`
	DeadlineReached bool `json:"deadlineReached"`

	// LastError is the failure of the most recent grading pass.
	LastError error `json:"-"`

	StartedAt time.Time `json:"startedAt,omitzero"`
}

// Idle returns the idle session for cfg.
func Idle(cfg Config) Session {
	total := cfg.TotalSeconds()
	return Session{
		Answers:       map[string]string{},
		TimeRemaining: total,
		Total:         total,
	}
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	s.Problems = slices.Clone(s.Problems)
	s.Answers = maps.Clone(s.Answers)
	s.Results = slices.Clone(s.Results)
	return s
}

// Answer returns the ledger entry for id and whether one exists.
func (s Session) Answer(id string) (string, bool) {
	a, ok := s.Answers[id]
	return a, ok
}

// AnsweredCount counts answers that are not blank.
func (s Session) AnsweredCount() int {
	n := 0
	for _, a := range s.Answers {
		if strings.TrimSpace(a) != "" {
			n++
		}
	}
	return n
}

// Current returns the problem under the cursor.
func (s Session) Current() (exam.Problem, bool) {
	if !s.Active || s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Problems) {
		return exam.Problem{}, false
	}
	return s.Problems[s.CurrentIndex], true
}

// Elapsed is the number of seconds used so far.
func (s Session) Elapsed() int {
	return s.Total - s.TimeRemaining
}

// Summary derives the result summary. It is only available once submitted.
func (s Session) Summary() (exam.Summary, bool) {
	if !s.Submitted {
		return exam.Summary{}, false
	}
	return exam.Summarize(s.Results, s.Elapsed()), true
}

func (s Session) hasProblem(id string) bool {
	return slices.ContainsFunc(s.Problems, func(p exam.Problem) bool { return p.ID == id })
}
