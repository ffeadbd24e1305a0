package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/i18n"
	"github.com/abhisek/mockexam/internal/router"
	"github.com/abhisek/mockexam/internal/screen"
	"github.com/abhisek/mockexam/internal/screens/results"
	"github.com/abhisek/mockexam/internal/session"
	"github.com/abhisek/mockexam/internal/store"
	"github.com/abhisek/mockexam/internal/ui/layout"
	"github.com/abhisek/mockexam/internal/ui/theme"
)

const historyLimit = 50

type historyLoadedMsg struct {
	Attempts []store.Attempt
	Err      error
}

type attemptLoadedMsg struct {
	Attempt *store.Attempt
	Err     error
}

type problemsLoadedMsg struct {
	Problems []store.ProblemRecord
	Err      error
}

type tab int

const (
	tabAttempts tab = iota
	tabProblems
)

// HistoryScreen lists finished attempts, newest first. With a problem
// repo it also lists generated problems, which can be solved again.
type HistoryScreen struct {
	tr       *i18n.Translator
	repo     store.AttemptRepo
	attempts []store.Attempt
	selected int
	loaded   bool
	errMsg   string

	problemRepo store.ProblemRepo
	open        func(exam.Problem) screen.Screen
	problems    []store.ProblemRecord
	problemSel  int
	tab         tab
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a HistoryScreen. repo may be nil when no database is open.
func New(tr *i18n.Translator, repo store.AttemptRepo) *HistoryScreen {
	return &HistoryScreen{tr: tr, repo: repo}
}

// WithProblems adds the generated problems list. Enter on a problem
// pushes the screen open returns for it.
func (s *HistoryScreen) WithProblems(repo store.ProblemRepo, open func(exam.Problem) screen.Screen) *HistoryScreen {
	s.problemRepo = repo
	s.open = open
	return s
}

func (s *HistoryScreen) Init() tea.Cmd {
	if s.repo == nil {
		s.loaded = true
		s.errMsg = s.tr.T("HistoryUnavailable")
		return nil
	}
	repo := s.repo
	cmds := []tea.Cmd{func() tea.Msg {
		attempts, err := repo.ListAttempts(context.Background(), store.QueryOpts{Limit: historyLimit})
		return historyLoadedMsg{Attempts: attempts, Err: err}
	}}
	if problems := s.problemRepo; problems != nil {
		cmds = append(cmds, func() tea.Msg {
			recs, err := problems.RecentProblems(context.Background(), "", store.QueryOpts{Limit: historyLimit})
			return problemsLoadedMsg{Problems: recs, Err: err}
		})
	}
	return tea.Batch(cmds...)
}

func (s *HistoryScreen) Title() string {
	return s.tr.T("HistoryTitle")
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	enter := s.tr.T("KeyDetails")
	if s.tab == tabProblems {
		enter = s.tr.T("KeySolve")
	}
	hints := []layout.KeyHint{
		{Key: "Enter", Description: enter},
		{Key: "↑↓", Description: s.tr.T("KeyNavigate")},
	}
	if s.problemRepo != nil {
		hints = append(hints, layout.KeyHint{Key: "Tab", Description: s.tr.T("KeySwitch")})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: s.tr.T("KeyBack")})
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.attempts = msg.Attempts
		}
		s.loaded = true
		return s, nil

	case problemsLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.problems = msg.Problems
		}
		return s, nil

	case attemptLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		if msg.Attempt == nil {
			return s, nil
		}
		review := results.New(s.tr, session.FromAttempt(msg.Attempt), nil)
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: review} }

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "tab", "shift+tab":
			if s.problemRepo != nil {
				s.tab = 1 - s.tab
			}
			return s, nil
		case "up", "k":
			cursor, _ := s.cursor()
			if *cursor > 0 {
				*cursor--
			}
			return s, nil
		case "down", "j":
			cursor, n := s.cursor()
			if *cursor < n-1 {
				*cursor++
			}
			return s, nil
		case "enter":
			return s, s.choose()
		}
	}
	return s, nil
}

// cursor returns the selection of the visible list and its length.
func (s *HistoryScreen) cursor() (*int, int) {
	if s.tab == tabProblems {
		return &s.problemSel, len(s.problems)
	}
	return &s.selected, len(s.attempts)
}

func (s *HistoryScreen) choose() tea.Cmd {
	if s.tab == tabAttempts {
		if s.selected < len(s.attempts) {
			return s.loadAttempt(s.attempts[s.selected].ID)
		}
		return nil
	}
	if s.open == nil || s.problemSel >= len(s.problems) {
		return nil
	}
	next := s.open(s.problems[s.problemSel].Problem)
	return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

func (s *HistoryScreen) loadAttempt(id string) tea.Cmd {
	repo := s.repo
	return func() tea.Msg {
		a, err := repo.GetAttempt(context.Background(), id)
		return attemptLoadedMsg{Attempt: a, Err: err}
	}
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render("\n\n" + s.errMsg)
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  " + s.tr.T("HistoryLoading"))
	}

	var b strings.Builder
	b.WriteString("\n")
	if s.problemRepo != nil {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.renderTabs()))
		b.WriteString("\n\n")
	}

	var lines []string
	empty := s.tr.T("HistoryEmpty")
	if s.tab == tabProblems {
		lines = s.problemLines(width)
		empty = s.tr.T("HistoryNoProblems")
	} else {
		lines = s.attemptLines()
	}
	if len(lines) == 0 {
		b.WriteString(lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n  " + empty))
		return b.String()
	}

	cursor, _ := s.cursor()
	for i, line := range lines {
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == *cursor {
			prefix = "> "
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(prefix+line)))
		b.WriteString("\n")
	}

	return b.String()
}

func (s *HistoryScreen) renderTabs() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(theme.Text).Background(theme.Primary).Padding(0, 1)
	inactive := lipgloss.NewStyle().Foreground(theme.TextDim).Padding(0, 1)
	attempts, problems := inactive, inactive
	if s.tab == tabProblems {
		problems = active
	} else {
		attempts = active
	}
	return attempts.Render(s.tr.T("HistoryAttempts")) + " " + problems.Render(s.tr.T("HistoryProblems"))
}

func (s *HistoryScreen) attemptLines() []string {
	lines := make([]string, len(s.attempts))
	for i, a := range s.attempts {
		lines[i] = fmt.Sprintf("%s  %-28s %-8s  %3d  %2d/%-2d  %s",
			a.FinishedAt.Local().Format("2006-01-02 15:04"),
			s.tr.SubjectName(a.Subject),
			s.tr.DifficultyName(a.Difficulty),
			a.Summary.AverageScore,
			a.Summary.Correct, a.Summary.Total,
			exam.FormatClock(a.Summary.ElapsedSeconds),
		)
	}
	return lines
}

func (s *HistoryScreen) problemLines(width int) []string {
	lines := make([]string, len(s.problems))
	for i, p := range s.problems {
		head := fmt.Sprintf("%s  %-28s %-12s  ",
			p.CreatedAt.Local().Format("2006-01-02 15:04"),
			s.tr.SubjectName(p.Subject),
			s.tr.DifficultyName(p.Difficulty),
		)
		question := strings.Join(strings.Fields(p.Question), " ")
		room := max(min(width, 120)-lipgloss.Width(head)-6, 10)
		lines[i] = head + ansi.Truncate(question, room, "…")
	}
	return lines
}
