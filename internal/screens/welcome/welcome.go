package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockexam/internal/i18n"
	"github.com/abhisek/mockexam/internal/router"
	"github.com/abhisek/mockexam/internal/screen"
	"github.com/abhisek/mockexam/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	rulesAt      = 500 * time.Millisecond
	totalDur     = 1200 * time.Millisecond
)

type tickMsg time.Time

// Rules describes the exam shown on the welcome screen.
type Rules struct {
	Count   int
	Minutes int
}

// WelcomeScreen shows the banner and the exam rules before the home screen.
type WelcomeScreen struct {
	tr           *i18n.Translator
	rules        Rules
	homeFactory  func() screen.Screen
	elapsed      time.Duration
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen that will transition to the screen produced by homeFactory.
func New(tr *i18n.Translator, rules Rules, homeFactory func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{
		tr:          tr,
		rules:       rules,
		homeFactory: homeFactory,
	}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		w.elapsed += tickInterval
		if w.elapsed >= totalDur {
			w.elapsed = totalDur
			return w, nil
		}
		return w, tick()

	case tea.KeyPressMsg:
		// Any key skips the reveal.
		return w, w.transition()
	}

	return w, nil
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	homeScreen := w.homeFactory()
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: homeScreen}
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	sections := []string{
		RenderBanner(width),
		"",
		lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(w.tr.T("AppHeading")),
	}

	if w.elapsed >= rulesAt {
		data := map[string]any{"Count": w.rules.Count, "Minutes": w.rules.Minutes}
		sections = append(sections,
			"",
			theme.Body.Render(w.tr.Td("Rules", data)),
			theme.Body.Render(w.tr.T("RulesAuto")),
			theme.Subtitle.Render(w.tr.T("AppTagline")),
		)
	}

	if w.elapsed >= totalDur {
		sections = append(sections, "", theme.Hint.Render(w.tr.T("PressAnyKey")))
	}

	content := strings.Join(sections, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
