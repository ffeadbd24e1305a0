package screen

import (
	"context"
	"log/slog"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/i18n"
	"github.com/abhisek/mockexam/internal/problemgen"
	"github.com/abhisek/mockexam/internal/session"
	"github.com/abhisek/mockexam/internal/store"
)

// ProgressSource reports how far the running grading pass has got.
type ProgressSource interface {
	Load() (done, total int)
}

// AnswerGrader judges a single practice answer.
type AnswerGrader interface {
	Grade(ctx context.Context, problem exam.Problem, answer string) (exam.GradingResult, error)
}

// Deps are the services screens are built from. Source, Grader, Attempts,
// Problems and Grading may be nil.
type Deps struct {
	Translator *i18n.Translator
	Engine     *session.Engine
	Source     problemgen.Source
	Grader     AnswerGrader
	Attempts   store.AttemptRepo
	Problems   store.ProblemRepo
	Grading    ProgressSource
	Logger     *slog.Logger

	// Initial subject and difficulty on the home screen.
	Subject    exam.Subject
	Difficulty exam.Difficulty

	// LatestVersion is a newer release, if one was found at startup.
	LatestVersion string
}
