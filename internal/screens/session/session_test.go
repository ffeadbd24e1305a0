package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/grading"
	"github.com/abhisek/mockexam/internal/i18n"
	"github.com/abhisek/mockexam/internal/llm"
	"github.com/abhisek/mockexam/internal/problemgen"
	"github.com/abhisek/mockexam/internal/router"
	"github.com/abhisek/mockexam/internal/screen"
	sess "github.com/abhisek/mockexam/internal/session"
)

type manualTicker struct{ c chan time.Time }

func (m *manualTicker) C() <-chan time.Time { return m.c }
func (m *manualTicker) Stop()               {}

// fakeGrader marks an answer correct when it equals the model answer.
type fakeGrader struct {
	err error
}

func (g fakeGrader) GradeAll(_ context.Context, problems []exam.Problem, answers map[string]string) ([]exam.GradingResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	out := make([]exam.GradingResult, len(problems))
	for i, p := range problems {
		ok := answers[p.ID] == p.Answer
		score := 0
		if ok {
			score = 100
		}
		out[i] = exam.GradingResult{IsCorrect: ok, Score: score, UserAnswer: answers[p.ID], CorrectAnswer: p.Answer}
	}
	return out, nil
}

func testProblems(n int) []exam.Problem {
	problems := make([]exam.Problem, n)
	for i := range problems {
		problems[i] = exam.Problem{
			ID:       fmt.Sprintf("p%d", i+1),
			Question: fmt.Sprintf("Question number %d?", i+1),
			Answer:   "a",
			Type:     exam.ResponseShort,
		}
	}
	return problems
}

func testSessionScreen(t *testing.T, grader sess.Grader, duration time.Duration) (*SessionScreen, *sess.Engine) {
	t.Helper()
	cfg := sess.DefaultConfig()
	cfg.ExamLength = 3
	cfg.Duration = duration
	ticker := &manualTicker{c: make(chan time.Time)}
	eng, err := sess.NewEngine(grader, cfg, sess.WithTicker(func(time.Duration) sess.Ticker { return ticker }))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(eng.Close)

	s := New(screen.Deps{Translator: i18n.MustNew("en"), Engine: eng}, problemgen.ExamRequest{Count: 3})
	return s, eng
}

func startExam(t *testing.T, s *SessionScreen) {
	t.Helper()
	s.Update(examReadyMsg{Problems: testProblems(3)})
	if s.stage != stageRunning {
		t.Fatalf("stage = %d, want running (error %q)", s.stage, s.errMsg)
	}
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func ctrlKey(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl}
}

// collect runs cmd and flattens batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSessionScreen_Title(t *testing.T) {
	s, _ := testSessionScreen(t, fakeGrader{}, 90*time.Minute)
	if s.Title() != "Mock Exam" {
		t.Errorf("Title = %q, want %q", s.Title(), "Mock Exam")
	}
}

func TestSessionScreen_View_Generating(t *testing.T) {
	s, _ := testSessionScreen(t, fakeGrader{}, 90*time.Minute)
	s.Update(generationProgressMsg{Done: 2, Total: 3})
	if !strings.Contains(s.View(100, 30), "2 / 3") {
		t.Error("expected generation progress in view")
	}
}

func TestSessionScreen_GenerationFailed(t *testing.T) {
	s, eng := testSessionScreen(t, fakeGrader{}, 90*time.Minute)
	s.Update(examReadyMsg{Err: &problemgen.GenerationError{Kind: llm.FailureRateLimited, Err: errors.New("429")}})

	if s.stage != stageFailed {
		t.Fatalf("stage = %d, want failed", s.stage)
	}
	if !strings.Contains(s.View(100, 30), "rate limiting") {
		t.Error("expected the failure reason in view")
	}
	if eng.Snapshot().Active {
		t.Error("expected no session to be started")
	}

	_, cmd := s.Update(specialKey(tea.KeyEscape))
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected Esc to leave the screen")
	}
}

func TestSessionScreen_NoSource(t *testing.T) {
	s, _ := testSessionScreen(t, fakeGrader{}, 90*time.Minute)
	if cmd := s.Init(); cmd != nil {
		t.Error("expected no command without a problem source")
	}
	if s.stage != stageFailed {
		t.Errorf("stage = %d, want failed", s.stage)
	}
}

func TestSessionScreen_StartsEngine(t *testing.T) {
	s, eng := testSessionScreen(t, fakeGrader{}, 90*time.Minute)
	startExam(t, s)

	snap := eng.Snapshot()
	if !snap.Active || snap.ID != s.sessionID {
		t.Fatal("expected the engine session to be active")
	}
	view := s.View(100, 30)
	if !strings.Contains(view, "Question number 1?") {
		t.Error("expected first question in view")
	}
	if !strings.Contains(s.Status(), "1:30:00") {
		t.Errorf("Status = %q, want the full duration", s.Status())
	}
	if strings.Contains(view, "Time is running out") {
		t.Error("unexpected time warning")
	}
}

func TestSessionScreen_AnswerAndNavigate(t *testing.T) {
	s, eng := testSessionScreen(t, fakeGrader{}, 90*time.Minute)
	startExam(t, s)

	s.Update(keyPress('a'))
	if got, _ := eng.Snapshot().Answer("p1"); got != "a" {
		t.Fatalf("answer p1 = %q, want %q", got, "a")
	}

	s.Update(specialKey(tea.KeyTab))
	if eng.Snapshot().CurrentIndex != 1 {
		t.Fatalf("index = %d, want 1", eng.Snapshot().CurrentIndex)
	}
	if s.editor.Value() != "" {
		t.Errorf("editor = %q, want empty for the second problem", s.editor.Value())
	}

	s.Update(ctrlKey('p'))
	if eng.Snapshot().CurrentIndex != 0 {
		t.Fatalf("index = %d, want 0", eng.Snapshot().CurrentIndex)
	}
	if s.editor.Value() != "a" {
		t.Errorf("editor = %q, want the stored answer", s.editor.Value())
	}

	// Previous at the first problem saturates.
	s.Update(tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	if eng.Snapshot().CurrentIndex != 0 {
		t.Errorf("index = %d, want 0", eng.Snapshot().CurrentIndex)
	}
}

func TestSessionScreen_SubmitShowsResults(t *testing.T) {
	s, eng := testSessionScreen(t, fakeGrader{}, 90*time.Minute)
	startExam(t, s)
	s.Update(keyPress('a'))

	s.Update(ctrlKey('s'))
	waitFor(t, func() bool { return eng.Snapshot().Submitted })

	_, cmd := s.Update(spinnerTickMsg(time.Now()))
	var replaced bool
	for _, msg := range collect(cmd) {
		if r, ok := msg.(router.ReplaceScreenMsg); ok {
			replaced = true
			if r.Screen.Title() != "Mock Exam Results" {
				t.Errorf("replaced with %q, want results", r.Screen.Title())
			}
		}
	}
	if !replaced {
		t.Fatal("expected the results screen")
	}
	if s.ctx.Err() == nil {
		t.Error("expected the screen context to be cancelled")
	}
}

func TestSessionScreen_GradingFailureKeepsAnswers(t *testing.T) {
	failure := &grading.GradingError{Kind: llm.FailureServiceUnavailable, ProblemID: "p1", Err: errors.New("503")}
	s, eng := testSessionScreen(t, fakeGrader{err: failure}, 90*time.Minute)
	startExam(t, s)
	s.Update(keyPress('a'))

	s.Update(ctrlKey('s'))
	waitFor(t, func() bool { return eng.Snapshot().Phase == sess.PhaseFailed })
	s.Update(spinnerTickMsg(time.Now()))

	if !strings.Contains(s.View(120, 30), "Grading failed") {
		t.Error("expected the grading failure banner")
	}
	if got, _ := eng.Snapshot().Answer("p1"); got != "a" {
		t.Errorf("answer p1 = %q, want it kept after the failure", got)
	}
	if s.KeyHints()[2].Description != "Retry" {
		t.Errorf("submit hint = %q, want Retry", s.KeyHints()[2].Description)
	}
}

func TestSessionScreen_TimeWarning(t *testing.T) {
	s, _ := testSessionScreen(t, fakeGrader{}, 5*time.Minute)
	startExam(t, s)
	if !strings.Contains(s.View(120, 30), "Time is running out") {
		t.Error("expected the time warning under ten minutes")
	}
}

func TestSessionScreen_QuitConfirm(t *testing.T) {
	s, eng := testSessionScreen(t, fakeGrader{}, 90*time.Minute)
	startExam(t, s)

	s.Update(specialKey(tea.KeyEscape))
	if !s.confirmQuit {
		t.Fatal("expected quit confirmation dialog")
	}
	s.Update(keyPress('n'))
	if s.confirmQuit {
		t.Error("expected quit confirmation to be dismissed")
	}
	if !eng.Snapshot().Active {
		t.Error("expected the session to stay active")
	}

	s.Update(specialKey(tea.KeyEscape))
	_, cmd := s.Update(keyPress('y'))
	if cmd == nil {
		t.Fatal("expected a command after quit confirmation")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
	if eng.Snapshot().Active {
		t.Error("expected the session to be ended")
	}
}

func TestSessionScreen_IgnoresOtherSessionsEvents(t *testing.T) {
	s, _ := testSessionScreen(t, fakeGrader{}, 90*time.Minute)
	startExam(t, s)

	stale := sess.Event{Type: sess.EventSubmitted, Session: sess.Session{ID: "other", Submitted: true}}
	_, cmd := s.Update(engineEventMsg{Event: stale})
	if cmd == nil {
		t.Fatal("expected the screen to keep listening")
	}
	if s.ctx.Err() != nil {
		t.Error("stale event must not finish the screen")
	}
}

func TestCollaboratorFailureKinds(t *testing.T) {
	tests := []struct {
		err  error
		want llm.FailureKind
	}{
		{&problemgen.GenerationError{Kind: llm.FailureAuthInvalid}, llm.FailureAuthInvalid},
		{fmt.Errorf("wrapped: %w", &grading.GradingError{Kind: llm.FailureMalformedResponse}), llm.FailureMalformedResponse},
		{&llm.ErrRateLimit{}, llm.FailureRateLimited},
	}
	for _, tt := range tests {
		if got := llm.KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
