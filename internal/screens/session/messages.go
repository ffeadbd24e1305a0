package session

import (
	"time"

	"github.com/abhisek/mockexam/internal/exam"
	sess "github.com/abhisek/mockexam/internal/session"
)

// generationProgressMsg is sent after each generated problem.
type generationProgressMsg struct {
	Done  int
	Total int
}

// examReadyMsg is sent when the whole problem set has been generated.
type examReadyMsg struct {
	Problems []exam.Problem
	Err      error
}

// engineEventMsg carries a notification from the session engine.
type engineEventMsg struct {
	Event sess.Event
}

// spinnerTickMsg is sent at short intervals to animate the spinner and
// refresh the clock.
type spinnerTickMsg time.Time
