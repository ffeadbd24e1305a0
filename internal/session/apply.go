package session

import (
	"fmt"
	"maps"
	"slices"
)

// Apply computes the session that results from cmd. It never mutates s.
// Commands that do not apply in the current state return s unchanged and
// a nil error; commands that are invalid return s unchanged and an error.
func Apply(s Session, cmd Command, cfg Config) (Session, Effect, error) {
	switch c := cmd.(type) {
	case Start:
		return start(s, c, cfg)

	case End:
		if !s.Active {
			return s, Effect{}, nil
		}
		next := Idle(cfg)
		next.Epoch = s.Epoch + 1
		return next, Effect{}, nil

	case Next:
		if !s.Active {
			return s, Effect{}, ErrNoActiveSession
		}
		s.CurrentIndex = min(s.CurrentIndex+1, len(s.Problems)-1)
		return s, Effect{}, nil

	case Previous:
		if !s.Active {
			return s, Effect{}, ErrNoActiveSession
		}
		s.CurrentIndex = max(s.CurrentIndex-1, 0)
		return s, Effect{}, nil

	case SetAnswer:
		return setAnswer(s, c)

	case Tick:
		return tick(s)

	case Submit:
		return submit(s, false)

	case ForceSubmit:
		return submit(s, true)

	case GradingFinished:
		return gradingFinished(s, c), Effect{}, nil
	}

	return s, Effect{}, fmt.Errorf("unknown command %T", cmd)
}

func start(s Session, c Start, cfg Config) (Session, Effect, error) {
	if err := validateProblems(c, cfg); err != nil {
		return s, Effect{}, err
	}
	if s.Active && cfg.StartPolicy == StartReject {
		return s, Effect{}, ErrSessionAlreadyActive
	}

	next := Idle(cfg)
	next.ID = c.ID
	next.Epoch = s.Epoch + 1
	next.Active = true
	next.Problems = slices.Clone(c.Problems)
	next.StartedAt = c.Now
	return next, Effect{}, nil
}

func validateProblems(c Start, cfg Config) error {
	if len(c.Problems) == 0 {
		return fmt.Errorf("%w: no problems", ErrInvalidSessionConfig)
	}
	if cfg.ExamLength > 0 && len(c.Problems) != cfg.ExamLength {
		return fmt.Errorf("%w: got %d problems, want %d", ErrInvalidSessionConfig, len(c.Problems), cfg.ExamLength)
	}
	seen := make(map[string]bool, len(c.Problems))
	for i, p := range c.Problems {
		if p.ID == "" {
			return fmt.Errorf("%w: problem %d has no ID", ErrInvalidSessionConfig, i+1)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate problem ID %q", ErrInvalidSessionConfig, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

func setAnswer(s Session, c SetAnswer) (Session, Effect, error) {
	switch {
	case !s.Active:
		return s, Effect{}, ErrNoActiveSession
	case s.Submitted:
		return s, Effect{}, ErrSessionSubmitted
	case s.Phase == PhaseGrading:
		return s, Effect{}, ErrGradingInProgress
	case !s.hasProblem(c.ProblemID):
		return s, Effect{}, fmt.Errorf("%w: %q", ErrUnknownProblem, c.ProblemID)
	}

	answers := maps.Clone(s.Answers)
	if answers == nil {
		answers = make(map[string]string, 1)
	}
	answers[c.ProblemID] = c.Text
	s.Answers = answers
	return s, Effect{}, nil
}

func tick(s Session) (Session, Effect, error) {
	if !s.Active || s.Submitted {
		return s, Effect{}, nil
	}
	if s.TimeRemaining > 1 {
		s.TimeRemaining--
		return s, Effect{}, nil
	}

	first := !s.DeadlineReached
	s.TimeRemaining = 0
	s.DeadlineReached = true
	if !first {
		return s, Effect{}, nil
	}
	return submit(s, true)
}

// submit is the single entry point for manual and forced submission.
func submit(s Session, forced bool) (Session, Effect, error) {
	if !s.Active {
		return s, Effect{}, ErrNoActiveSession
	}
	if s.Submitted || s.Phase == PhaseGrading {
		return s, Effect{}, nil
	}

	s.Phase = PhaseGrading
	s.Forced = forced
	s.LastError = nil
	return s, Effect{Grade: &GradeJob{
		Epoch:    s.Epoch,
		Problems: s.Problems,
		Answers:  s.Answers,
		Forced:   forced,
	}}, nil
}

func gradingFinished(s Session, c GradingFinished) Session {
	if !s.Active || c.Epoch != s.Epoch || s.Phase != PhaseGrading {
		return s
	}

	err := c.Err
	if err == nil && len(c.Results) != len(s.Problems) {
		err = fmt.Errorf("%w: got %d, want %d", ErrResultMismatch, len(c.Results), len(s.Problems))
	}
	if err != nil {
		s.Phase = PhaseFailed
		s.LastError = err
		return s
	}

	s.Results = slices.Clone(c.Results)
	s.Submitted = true
	s.Phase = PhaseSubmitted
	s.LastError = nil
	return s
}
