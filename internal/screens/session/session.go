package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/llm"
	"github.com/abhisek/mockexam/internal/problemgen"
	"github.com/abhisek/mockexam/internal/router"
	"github.com/abhisek/mockexam/internal/screen"
	"github.com/abhisek/mockexam/internal/screens/results"
	sess "github.com/abhisek/mockexam/internal/session"
	"github.com/abhisek/mockexam/internal/ui/components"
	"github.com/abhisek/mockexam/internal/ui/layout"
	"github.com/abhisek/mockexam/internal/ui/theme"
)

// TimeWarningSeconds is the remaining time below which the clock turns red.
const TimeWarningSeconds = 600

const spinnerInterval = 120 * time.Millisecond

type stage int

const (
	stageGenerating stage = iota
	stageFailed
	stageRunning
)

// SessionScreen generates an exam, runs it on the session engine and hands
// the graded session to the results screen.
type SessionScreen struct {
	deps screen.Deps
	req  problemgen.ExamRequest

	ctx    context.Context
	cancel context.CancelFunc

	stage    stage
	progress chan generationProgressMsg
	genDone  int
	frame    int
	errMsg   string

	sessionID   string
	snap        sess.Session
	editor      components.AnswerEditor
	editing     string // problem ID loaded in the editor
	editorWidth int
	confirmQuit bool
	banner      string
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)
var _ screen.StatusProvider = (*SessionScreen)(nil)
var _ screen.BackHandler = (*SessionScreen)(nil)

// New creates a SessionScreen that will generate req and run it.
func New(deps screen.Deps, req problemgen.ExamRequest) *SessionScreen {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionScreen{
		deps:        deps,
		req:         req,
		ctx:         ctx,
		cancel:      cancel,
		editorWidth: 60,
	}
}

func (s *SessionScreen) Init() tea.Cmd {
	if s.deps.Source == nil {
		s.stage = stageFailed
		s.errMsg = s.deps.Translator.Td("GenerationFailed", map[string]any{
			"Reason": s.deps.Translator.Reason(llm.FailureServiceUnavailable),
		})
		return nil
	}
	s.progress = make(chan generationProgressMsg, max(s.req.Count, 1))
	return tea.Batch(
		s.buildExam(),
		listenProgress(s.progress),
		s.spinnerTick(),
	)
}

func (s *SessionScreen) Title() string {
	return s.deps.Translator.T("ExamTitle")
}

func (s *SessionScreen) HandlesBack() bool { return true }

// Status renders the countdown for the header.
func (s *SessionScreen) Status() string {
	if s.stage != stageRunning {
		return ""
	}
	clock := exam.FormatClock(s.snap.TimeRemaining)
	if s.snap.TimeRemaining < TimeWarningSeconds && !s.snap.Submitted {
		return theme.ClockWarning.Render("⏱ " + clock)
	}
	return theme.Clock.Render("⏱ " + clock)
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	tr := s.deps.Translator
	switch {
	case s.stage != stageRunning:
		return []layout.KeyHint{{Key: "Esc", Description: tr.T("KeyBack")}}
	case s.confirmQuit:
		return []layout.KeyHint{
			{Key: "Y", Description: tr.T("KeyYes")},
			{Key: "N", Description: tr.T("KeyNo")},
		}
	case s.snap.Phase == sess.PhaseGrading:
		return []layout.KeyHint{{Key: "Esc", Description: tr.T("KeyEnd")}}
	}
	submit := tr.T("KeySubmit")
	if s.snap.Phase == sess.PhaseFailed {
		submit = tr.T("KeyRetry")
	}
	return []layout.KeyHint{
		{Key: "Shift+Tab", Description: tr.T("KeyPrev")},
		{Key: "Tab", Description: tr.T("KeyNext")},
		{Key: "Ctrl+S", Description: submit},
		{Key: "Esc", Description: tr.T("KeyEnd")},
	}
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case generationProgressMsg:
		s.genDone = msg.Done
		return s, listenProgress(s.progress)

	case examReadyMsg:
		return s.handleExamReady(msg)

	case engineEventMsg:
		return s.handleEvent(msg.Event)

	case spinnerTickMsg:
		if s.ctx.Err() != nil {
			return s, nil
		}
		s.frame++
		if s.stage == stageRunning {
			if cmd, done := s.refresh(); done {
				return s, cmd
			}
		}
		return s, s.spinnerTick()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.editable() {
		var cmd tea.Cmd
		s.editor, cmd = s.editor.Update(msg)
		return s, cmd
	}
	return s, nil
}

// buildExam generates the problem set in the background.
func (s *SessionScreen) buildExam() tea.Cmd {
	ctx, src, req, progress := s.ctx, s.deps.Source, s.req, s.progress
	return func() tea.Msg {
		defer close(progress)
		problems, err := problemgen.BuildExam(ctx, src, req, func(done, total int) {
			select {
			case progress <- generationProgressMsg{Done: done, Total: total}:
			default:
			}
		})
		return examReadyMsg{Problems: problems, Err: err}
	}
}

func listenProgress(ch <-chan generationProgressMsg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// waitEvent delivers the next engine event until the screen is left.
func (s *SessionScreen) waitEvent() tea.Cmd {
	ctx, events := s.ctx, s.deps.Engine.Events()
	return func() tea.Msg {
		select {
		case ev := <-events:
			return engineEventMsg{Event: ev}
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *SessionScreen) spinnerTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}

func (s *SessionScreen) handleExamReady(msg examReadyMsg) (screen.Screen, tea.Cmd) {
	if errors.Is(msg.Err, context.Canceled) {
		return s, nil
	}
	if msg.Err != nil {
		s.deps.Logger.Error("exam generation failed", "error", msg.Err)
		s.stage = stageFailed
		s.errMsg = s.deps.Translator.Td("GenerationFailed", map[string]any{"Reason": s.reason(msg.Err)})
		return s, nil
	}

	if err := s.deps.Engine.Start(msg.Problems); err != nil {
		s.deps.Logger.Error("start session failed", "error", err)
		s.stage = stageFailed
		s.errMsg = err.Error()
		return s, nil
	}

	s.snap = s.deps.Engine.Snapshot()
	s.sessionID = s.snap.ID
	s.stage = stageRunning
	s.loadEditor()
	return s, s.waitEvent()
}

func (s *SessionScreen) handleEvent(ev sess.Event) (screen.Screen, tea.Cmd) {
	if s.ctx.Err() != nil {
		return s, nil
	}
	if s.stage != stageRunning || ev.Session.ID != s.sessionID {
		return s, s.waitEvent()
	}
	if ev.Type == sess.EventGradingFailed {
		s.deps.Logger.Warn("grading failed", "session", s.sessionID, "error", ev.Err)
	}
	if cmd, done := s.refresh(); done {
		return s, cmd
	}
	return s, s.waitEvent()
}

// refresh reloads the engine snapshot. done reports that the screen is
// finished and cmd navigates away.
func (s *SessionScreen) refresh() (tea.Cmd, bool) {
	s.snap = s.deps.Engine.Snapshot()

	if !s.snap.Active || s.snap.ID != s.sessionID {
		s.cancel()
		return func() tea.Msg { return router.PopScreenMsg{} }, true
	}
	if s.snap.Submitted {
		s.cancel()
		next := results.New(s.deps.Translator, s.snap, s.deps.Engine)
		return tea.Batch(
			s.saveAttempt(s.snap),
			func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} },
		), true
	}

	s.loadEditor()
	return nil, false
}

func (s *SessionScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.stage != stageRunning {
		if key == "esc" {
			s.cancel()
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			s.cancel()
			if err := s.deps.Engine.End(); err != nil {
				s.deps.Logger.Warn("end session failed", "error", err)
			}
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	switch key {
	case "esc":
		s.confirmQuit = true
		return s, nil
	case "tab", "ctrl+n":
		return s.apply(s.deps.Engine.Next)
	case "shift+tab", "ctrl+p":
		return s.apply(s.deps.Engine.Previous)
	case "ctrl+s":
		return s.apply(s.deps.Engine.SubmitAsync)
	}

	if !s.editable() {
		return s, nil
	}

	before := s.editor.Value()
	var cmd tea.Cmd
	s.editor, cmd = s.editor.Update(msg)
	if after := s.editor.Value(); after != before {
		if err := s.deps.Engine.SetAnswer(s.editing, after); err != nil {
			s.banner = err.Error()
		} else {
			s.banner = ""
		}
	}
	s.snap = s.deps.Engine.Snapshot()
	return s, cmd
}

// apply runs an engine command and refreshes the view.
func (s *SessionScreen) apply(command func() error) (screen.Screen, tea.Cmd) {
	if err := command(); err != nil {
		s.banner = err.Error()
	} else {
		s.banner = ""
	}
	if cmd, done := s.refresh(); done {
		return s, cmd
	}
	return s, nil
}

// editable reports whether keystrokes go to the answer editor.
func (s *SessionScreen) editable() bool {
	return s.stage == stageRunning && !s.confirmQuit && s.editing != "" &&
		!s.snap.Submitted && s.snap.Phase != sess.PhaseGrading
}

// loadEditor swaps the editor contents when the current problem changed.
func (s *SessionScreen) loadEditor() {
	p, ok := s.snap.Current()
	if !ok || p.ID == s.editing {
		return
	}
	s.editing = p.ID
	s.editor = components.NewAnswerEditor(s.deps.Translator.T("AnswerPlaceholder"), p.Type, s.editorWidth)
	if answer, ok := s.snap.Answer(p.ID); ok {
		s.editor.SetValue(answer)
	}
}

func (s *SessionScreen) saveAttempt(snap sess.Session) tea.Cmd {
	repo, logger := s.deps.Attempts, s.deps.Logger
	if repo == nil {
		return nil
	}
	return func() tea.Msg {
		a, err := sess.NewAttempt(snap, time.Now())
		if err == nil {
			err = repo.SaveAttempt(context.Background(), a)
		}
		if err != nil {
			logger.Warn("save attempt failed", "session", snap.ID, "error", err)
		}
		return nil
	}
}

// reason renders a collaborator failure for the user.
func (s *SessionScreen) reason(err error) string {
	return s.deps.Translator.Reason(llm.KindOf(err))
}
