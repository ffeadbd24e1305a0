package api

import (
	"time"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/session"
)

// sessionView is the JSON form of a session. Model answers and
// explanations stay hidden until the session is submitted.
type sessionView struct {
	ID              string               `json:"id,omitempty"`
	Active          bool                 `json:"active"`
	Phase           session.Phase        `json:"phase"`
	Problems        []exam.Problem       `json:"problems"`
	CurrentIndex    int                  `json:"currentIndex"`
	Answers         map[string]string    `json:"answers"`
	Answered        int                  `json:"answered"`
	TimeRemaining   int                  `json:"timeRemaining"`
	Total           int                  `json:"total"`
	Clock           string               `json:"clock"`
	Submitted       bool                 `json:"submitted"`
	Forced          bool                 `json:"forced"`
	DeadlineReached bool                 `json:"deadlineReached"`
	Results         []exam.GradingResult `json:"results,omitempty"`
	Summary         *summaryView         `json:"summary,omitempty"`
	LastError       *errorBody           `json:"lastError,omitempty"`
	StartedAt       *time.Time           `json:"startedAt,omitempty"`
}

type summaryView struct {
	Total          int `json:"total"`
	Correct        int `json:"correct"`
	AverageScore   int `json:"averageScore"`
	ElapsedSeconds int `json:"elapsedSeconds"`
}

// errorBody is returned for every failed request. Kind and Reason are set
// for collaborator failures.
type errorBody struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func newSessionView(s session.Session, reason func(error) *errorBody) sessionView {
	v := sessionView{
		ID:              s.ID,
		Active:          s.Active,
		Phase:           s.Phase,
		Problems:        make([]exam.Problem, len(s.Problems)),
		CurrentIndex:    s.CurrentIndex,
		Answers:         s.Answers,
		Answered:        s.AnsweredCount(),
		TimeRemaining:   s.TimeRemaining,
		Total:           s.Total,
		Clock:           exam.FormatClock(s.TimeRemaining),
		Submitted:       s.Submitted,
		Forced:          s.Forced,
		DeadlineReached: s.DeadlineReached,
		Results:         s.Results,
	}
	for i, p := range s.Problems {
		if !s.Submitted {
			p.Answer = ""
			p.Explanation = ""
			p.Keywords = nil
		}
		v.Problems[i] = p
	}
	if sum, ok := s.Summary(); ok {
		v.Summary = &summaryView{
			Total:          sum.Total,
			Correct:        sum.Correct,
			AverageScore:   sum.AverageScore,
			ElapsedSeconds: int(sum.Elapsed / time.Second),
		}
	}
	if s.LastError != nil {
		v.LastError = reason(s.LastError)
	}
	if !s.StartedAt.IsZero() {
		t := s.StartedAt
		v.StartedAt = &t
	}
	return v
}
