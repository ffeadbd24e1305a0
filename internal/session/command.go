package session

import (
	"time"

	"github.com/abhisek/mockexam/internal/exam"
)

// Command is an input to Apply.
type Command interface {
	command()
}

// Start begins a fresh session with the given problems.
type Start struct {
	ID       string
	Problems []exam.Problem
	Now      time.Time
}

// End returns to the idle state.
type End struct{}

// Next moves the cursor forward, saturating at the last problem.
type Next struct{}

// Previous moves the cursor back, saturating at the first problem.
type Previous struct{}

// SetAnswer records the latest answer for a problem.
type SetAnswer struct {
	ProblemID string
	Text      string
}

// Tick removes one second from the countdown.
type Tick struct{}

// Submit starts a grading pass at the user's request.
type Submit struct{}

// ForceSubmit starts a grading pass because the deadline was reached.
type ForceSubmit struct{}

// GradingFinished delivers the outcome of the grading pass started in Epoch.
type GradingFinished struct {
	Epoch   uint64
	Results []exam.GradingResult
	Err     error
}

func (Start) command()           {}
func (End) command()             {}
func (Next) command()            {}
func (Previous) command()        {}
func (SetAnswer) command()       {}
func (Tick) command()            {}
func (Submit) command()          {}
func (ForceSubmit) command()     {}
func (GradingFinished) command() {}

// GradeJob is a request to grade a snapshot of the ledger.
type GradeJob struct {
	Epoch    uint64
	Problems []exam.Problem
	Answers  map[string]string
	Forced   bool
}

// Effect is the side effect a transition asks the caller to perform.
type Effect struct {
	Grade *GradeJob
}
