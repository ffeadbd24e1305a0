// Package practice is the single-question mode: one generated problem at a
// time, graded as soon as the answer is submitted. Nothing runs on the
// session engine and there is no clock.
package practice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/llm"
	"github.com/abhisek/mockexam/internal/problemgen"
	"github.com/abhisek/mockexam/internal/router"
	"github.com/abhisek/mockexam/internal/screen"
	"github.com/abhisek/mockexam/internal/ui/components"
	"github.com/abhisek/mockexam/internal/ui/layout"
)

const spinnerInterval = 120 * time.Millisecond

// maxPrior bounds the questions passed back to the source to avoid repeats.
const maxPrior = 30

type stage int

const (
	stageGenerating stage = iota
	stageFailed
	stageSolving
	stageGrading
	stageGraded
)

type problemReadyMsg struct {
	Problem *exam.Problem
	Err     error
}

type gradedMsg struct {
	ProblemID string
	Result    exam.GradingResult
	Err       error
}

type spinnerTickMsg time.Time

// PracticeScreen poses one question, grades the answer and offers the next.
type PracticeScreen struct {
	deps  screen.Deps
	input problemgen.GenerateInput

	ctx    context.Context
	cancel context.CancelFunc

	stage   stage
	problem exam.Problem
	editor  components.AnswerEditor
	result  exam.GradingResult
	banner  string
	errMsg  string
	frame   int
	ticking bool
}

var _ screen.Screen = (*PracticeScreen)(nil)
var _ screen.KeyHintProvider = (*PracticeScreen)(nil)
var _ screen.StatusProvider = (*PracticeScreen)(nil)
var _ screen.BackHandler = (*PracticeScreen)(nil)

// New creates a PracticeScreen that generates a question for subject and
// difficulty when it becomes active.
func New(deps screen.Deps, subject exam.Subject, difficulty exam.Difficulty) *PracticeScreen {
	s := newScreen(deps)
	s.input = problemgen.GenerateInput{Subject: subject, Difficulty: difficulty}
	return s
}

// Open creates a PracticeScreen for a problem that was generated earlier.
// Asking for a new question afterwards keeps its subject and difficulty.
func Open(deps screen.Deps, p exam.Problem) *PracticeScreen {
	s := newScreen(deps)
	s.input = problemgen.GenerateInput{Subject: p.Subject, Difficulty: p.Difficulty}
	s.pose(p)
	return s
}

func newScreen(deps screen.Deps) *PracticeScreen {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PracticeScreen{deps: deps, ctx: ctx, cancel: cancel}
}

func (s *PracticeScreen) Init() tea.Cmd {
	if s.stage == stageGenerating {
		return s.generate()
	}
	return nil
}

func (s *PracticeScreen) Title() string {
	return s.deps.Translator.T("PracticeTitle")
}

func (s *PracticeScreen) HandlesBack() bool { return true }

// Status names the subject and difficulty being practised.
func (s *PracticeScreen) Status() string {
	tr := s.deps.Translator
	if s.input.Subject == "" {
		return ""
	}
	return tr.SubjectName(s.input.Subject) + " · " + tr.DifficultyName(s.input.Difficulty)
}

func (s *PracticeScreen) KeyHints() []layout.KeyHint {
	tr := s.deps.Translator
	back := layout.KeyHint{Key: "Esc", Description: tr.T("KeyBack")}
	switch s.stage {
	case stageFailed:
		return []layout.KeyHint{{Key: "Enter", Description: tr.T("KeyRetry")}, back}
	case stageSolving:
		return []layout.KeyHint{{Key: "Ctrl+S", Description: tr.T("KeySubmit")}, back}
	case stageGraded:
		hints := []layout.KeyHint{{Key: "R", Description: tr.T("KeyTryAgain")}}
		if s.deps.Source != nil {
			hints = append(hints, layout.KeyHint{Key: "N", Description: tr.T("KeyNewQuestion")})
		}
		return append(hints, back)
	}
	return []layout.KeyHint{back}
}

func (s *PracticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case problemReadyMsg:
		return s, s.handleProblem(msg)

	case gradedMsg:
		s.handleGraded(msg)
		return s, nil

	case spinnerTickMsg:
		if s.ctx.Err() != nil || !s.busy() {
			s.ticking = false
			return s, nil
		}
		s.frame++
		return s, nextTick()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.stage == stageSolving {
		var cmd tea.Cmd
		s.editor, cmd = s.editor.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *PracticeScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()
	if key == "esc" {
		s.cancel()
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	switch s.stage {
	case stageFailed:
		if key == "enter" || key == "r" {
			return s, s.generate()
		}
	case stageSolving:
		if key == "ctrl+s" {
			return s, s.submit()
		}
		before := s.editor.Value()
		var cmd tea.Cmd
		s.editor, cmd = s.editor.Update(msg)
		if s.editor.Value() != before {
			s.banner = ""
		}
		return s, cmd
	case stageGraded:
		switch key {
		case "r":
			s.pose(s.problem)
		case "n":
			if s.deps.Source != nil {
				return s, s.generate()
			}
		}
	}
	return s, nil
}

// generate asks the source for the next question in the background.
func (s *PracticeScreen) generate() tea.Cmd {
	tr := s.deps.Translator
	if s.deps.Source == nil {
		s.stage = stageFailed
		s.errMsg = tr.Td("PracticeGenerationFailed", map[string]any{
			"Reason": tr.Reason(llm.FailureServiceUnavailable),
		})
		return nil
	}

	s.stage = stageGenerating
	s.errMsg = ""
	ctx, src, input := s.ctx, s.deps.Source, s.input
	input.PriorQuestions = append([]string(nil), s.input.PriorQuestions...)
	return tea.Batch(
		func() tea.Msg {
			p, err := src.Generate(ctx, input)
			return problemReadyMsg{Problem: p, Err: err}
		},
		s.spin(),
	)
}

func (s *PracticeScreen) handleProblem(msg problemReadyMsg) tea.Cmd {
	if s.ctx.Err() != nil || errors.Is(msg.Err, context.Canceled) {
		return nil
	}
	if msg.Err == nil && msg.Problem == nil {
		msg.Err = &problemgen.GenerationError{Kind: llm.FailureMalformedResponse, Err: errors.New("no problem returned")}
	}
	if msg.Err != nil {
		s.deps.Logger.Error("practice generation failed", "subject", s.input.Subject, "error", msg.Err)
		s.stage = stageFailed
		s.errMsg = s.deps.Translator.Td("PracticeGenerationFailed", map[string]any{
			"Reason": s.deps.Translator.Reason(llm.KindOf(msg.Err)),
		})
		return nil
	}
	s.pose(*msg.Problem)
	return nil
}

// pose shows p with an empty answer editor.
func (s *PracticeScreen) pose(p exam.Problem) {
	if p.Question != s.problem.Question {
		s.input.PriorQuestions = append(s.input.PriorQuestions, p.Question)
		if n := len(s.input.PriorQuestions); n > maxPrior {
			s.input.PriorQuestions = s.input.PriorQuestions[n-maxPrior:]
		}
	}
	s.problem = p
	s.result = exam.GradingResult{}
	s.banner = ""
	s.stage = stageSolving
	s.editor = components.NewAnswerEditor(s.deps.Translator.T("AnswerPlaceholder"), p.Type, 60)
}

// submit grades the editor contents. Blank answers are not sent.
func (s *PracticeScreen) submit() tea.Cmd {
	tr := s.deps.Translator
	answer := s.editor.Value()
	if strings.TrimSpace(answer) == "" {
		s.banner = tr.T("AnswerRequired")
		return nil
	}
	if s.deps.Grader == nil {
		s.banner = tr.T("NoProvider")
		return nil
	}

	s.stage = stageGrading
	s.banner = ""
	ctx, grader, problem := s.ctx, s.deps.Grader, s.problem
	return tea.Batch(
		func() tea.Msg {
			r, err := grader.Grade(ctx, problem, answer)
			return gradedMsg{ProblemID: problem.ID, Result: r, Err: err}
		},
		s.spin(),
	)
}

func (s *PracticeScreen) handleGraded(msg gradedMsg) {
	if s.ctx.Err() != nil || s.stage != stageGrading || msg.ProblemID != s.problem.ID {
		return
	}
	if msg.Err != nil {
		s.deps.Logger.Warn("practice grading failed", "problem", msg.ProblemID, "error", msg.Err)
		s.stage = stageSolving
		s.banner = s.deps.Translator.Td("PracticeGradingFailed", map[string]any{
			"Reason": s.deps.Translator.Reason(llm.KindOf(msg.Err)),
		})
		return
	}
	s.result = msg.Result
	s.stage = stageGraded
}

func (s *PracticeScreen) busy() bool {
	return s.stage == stageGenerating || s.stage == stageGrading
}

// spin starts the spinner unless it is already running. It stops itself
// once the screen is no longer waiting on the LLM.
func (s *PracticeScreen) spin() tea.Cmd {
	if s.ticking {
		return nil
	}
	s.ticking = true
	return nextTick()
}

func nextTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg { return spinnerTickMsg(t) })
}
