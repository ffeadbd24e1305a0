package session

import (
	"errors"
	"time"

	"github.com/abhisek/mockexam/internal/store"
)

// NewAttempt builds the stored form of a submitted session. It returns an
// error for sessions that have not been graded.
func NewAttempt(s Session, finishedAt time.Time) (*store.Attempt, error) {
	sum, ok := s.Summary()
	if !ok {
		return nil, errors.New("session has not been submitted")
	}
	a := &store.Attempt{
		ID:         s.ID,
		StartedAt:  s.StartedAt,
		FinishedAt: finishedAt,
		Summary: store.AttemptSummary{
			Total:          sum.Total,
			Correct:        sum.Correct,
			AverageScore:   sum.AverageScore,
			ElapsedSeconds: int(sum.Elapsed / time.Second),
		},
		Forced:   s.Forced,
		Problems: s.Problems,
		Answers:  s.Answers,
		Results:  s.Results,
	}
	if len(s.Problems) > 0 {
		a.Subject = s.Problems[0].Subject
		a.Difficulty = s.Problems[0].Difficulty
	}
	return a, nil
}

// FromAttempt rebuilds a submitted session from a stored attempt for
// review. The countdown fields are set so that Elapsed matches the stored
// elapsed time.
func FromAttempt(a *store.Attempt) Session {
	return Session{
		ID:        a.ID,
		Active:    true,
		Problems:  a.Problems,
		Answers:   a.Answers,
		Total:     a.Summary.ElapsedSeconds,
		Submitted: true,
		Results:   a.Results,
		Phase:     PhaseSubmitted,
		Forced:    a.Forced,
		StartedAt: a.StartedAt,
	}
}
