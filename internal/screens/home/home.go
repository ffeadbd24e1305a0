package home

import (
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/problemgen"
	"github.com/abhisek/mockexam/internal/router"
	"github.com/abhisek/mockexam/internal/screen"
	"github.com/abhisek/mockexam/internal/screens/history"
	"github.com/abhisek/mockexam/internal/screens/practice"
	sessionscreen "github.com/abhisek/mockexam/internal/screens/session"
	"github.com/abhisek/mockexam/internal/ui/components"
	"github.com/abhisek/mockexam/internal/ui/layout"
)

const (
	itemStart = iota
	itemPractice
	itemSubject
	itemDifficulty
	itemHistory
	itemQuit
)

// HomeScreen picks the subject and difficulty and starts an exam or a
// single practice question.
type HomeScreen struct {
	deps       screen.Deps
	menu       components.Menu
	subjects   []exam.Subject
	subject    int
	difficulty int
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps screen.Deps) *HomeScreen {
	h := &HomeScreen{deps: deps}
	for _, info := range exam.Subjects() {
		h.subjects = append(h.subjects, info.Subject)
	}
	h.subject = max(slices.Index(h.subjects, deps.Subject), 0)
	h.difficulty = max(slices.Index(exam.AllDifficulties, deps.Difficulty), 0)

	items := make([]components.MenuItem, itemQuit+1)
	items[itemStart] = components.MenuItem{
		Action:   h.startExam,
		Disabled: deps.Source == nil || deps.Engine == nil,
	}
	items[itemPractice] = components.MenuItem{
		Action:   h.startPractice,
		Disabled: deps.Source == nil || deps.Grader == nil,
	}
	items[itemSubject] = components.MenuItem{Change: func(delta int) {
		h.subject = wrap(h.subject+delta, len(h.subjects))
	}}
	items[itemDifficulty] = components.MenuItem{Change: func(delta int) {
		h.difficulty = wrap(h.difficulty+delta, len(exam.AllDifficulties))
	}}
	items[itemHistory] = components.MenuItem{Action: func() tea.Cmd {
		return func() tea.Msg {
			return router.PushScreenMsg{Screen: h.historyScreen()}
		}
	}}
	items[itemQuit] = components.MenuItem{Action: func() tea.Cmd {
		return tea.Quit
	}}
	h.menu = components.NewMenu(items)
	h.relabel()
	return h
}

// Selection returns the chosen subject and difficulty.
func (h *HomeScreen) Selection() (exam.Subject, exam.Difficulty) {
	return h.subjects[h.subject], exam.AllDifficulties[h.difficulty]
}

func (h *HomeScreen) startExam() tea.Cmd {
	subject, difficulty := h.Selection()
	req := problemgen.ExamRequest{
		Subject:    subject,
		Difficulty: difficulty,
		Count:      h.deps.Engine.Config().ExamLength,
	}
	deps := h.deps
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: sessionscreen.New(deps, req)}
	}
}

func (h *HomeScreen) startPractice() tea.Cmd {
	subject, difficulty := h.Selection()
	next := practice.New(h.deps, subject, difficulty)
	return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

// historyScreen lists past attempts and, with a problem repo, the generated
// problems, each of which opens in practice mode.
func (h *HomeScreen) historyScreen() *history.HistoryScreen {
	deps := h.deps
	s := history.New(deps.Translator, deps.Attempts)
	if deps.Problems != nil {
		s.WithProblems(deps.Problems, func(p exam.Problem) screen.Screen {
			return practice.Open(deps, p)
		})
	}
	return s
}

func (h *HomeScreen) relabel() {
	tr := h.deps.Translator
	subject, difficulty := h.Selection()
	h.menu.Items[itemStart].Label = tr.T("MenuStart")
	h.menu.Items[itemPractice].Label = tr.T("MenuPractice")
	h.menu.Items[itemSubject].Label = tr.Td("MenuSubject", map[string]any{"Subject": tr.SubjectName(subject)})
	h.menu.Items[itemDifficulty].Label = tr.Td("MenuDifficulty", map[string]any{"Difficulty": tr.DifficultyName(difficulty)})
	h.menu.Items[itemHistory].Label = tr.T("MenuHistory")
	h.menu.Items[itemQuit].Label = tr.T("MenuQuit")
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	h.relabel()
	return h, cmd
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	tr := h.deps.Translator
	return []layout.KeyHint{
		{Key: "↑↓", Description: tr.T("KeyNavigate")},
		{Key: "←→", Description: tr.T("KeyChange")},
		{Key: "Enter", Description: tr.T("KeySelect")},
		{Key: "Ctrl+C", Description: tr.T("KeyQuit")},
	}
}

func (h *HomeScreen) View(width, height int) string {
	tr := h.deps.Translator
	compact := layout.IsCompactHeight(height + layout.HeaderHeight + layout.FooterHeight)
	cw := contentWidth(width)

	length, minutes := 0, 0
	if h.deps.Engine != nil {
		cfg := h.deps.Engine.Config()
		length, minutes = cfg.ExamLength, int(cfg.Duration.Minutes())
	}
	info := tr.Td("ExamInfo", map[string]any{"Count": length, "Minutes": minutes})

	sections := []string{
		renderTitle(tr.T("AppHeading"), tr.T("AppTagline"), info, cw),
	}
	if h.deps.Source == nil {
		sections = append(sections, renderNote(tr.T("NoProvider"), cw, true))
	}

	sections = append(sections, h.menu.View(cw, compact))

	if h.deps.LatestVersion != "" {
		sections = append(sections, renderNote(tr.Td("UpdateAvailable", map[string]any{"Version": h.deps.LatestVersion}), cw, false))
	}

	return renderFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return h.deps.Translator.T("HomeTitle")
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
