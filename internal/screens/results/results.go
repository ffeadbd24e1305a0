package results

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/i18n"
	"github.com/abhisek/mockexam/internal/router"
	"github.com/abhisek/mockexam/internal/screen"
	"github.com/abhisek/mockexam/internal/session"
	"github.com/abhisek/mockexam/internal/ui/layout"
	"github.com/abhisek/mockexam/internal/ui/theme"
)

// Ender releases the finished session when the screen is left.
type Ender interface {
	End() error
}

// ResultsScreen displays a graded session.
type ResultsScreen struct {
	tr       *i18n.Translator
	session  session.Session
	summary  exam.Summary
	ender    Ender
	selected int
	detail   bool
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)
var _ screen.BackHandler = (*ResultsScreen)(nil)

// New creates a ResultsScreen for a submitted session. ender may be nil.
func New(tr *i18n.Translator, s session.Session, ender Ender) *ResultsScreen {
	sum, _ := s.Summary()
	return &ResultsScreen{tr: tr, session: s, summary: sum, ender: ender}
}

func (s *ResultsScreen) Init() tea.Cmd {
	return nil
}

func (s *ResultsScreen) Title() string {
	return s.tr.T("ResultsTitle")
}

func (s *ResultsScreen) HandlesBack() bool { return true }

func (s *ResultsScreen) KeyHints() []layout.KeyHint {
	if s.detail {
		return []layout.KeyHint{
			{Key: "←→", Description: s.tr.T("KeyNavigate")},
			{Key: "Esc", Description: s.tr.T("KeyBack")},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: s.tr.T("KeyNavigate")},
		{Key: "Enter", Description: s.tr.T("KeyDetails")},
		{Key: "Esc", Description: s.tr.T("KeyHome")},
	}
}

func (s *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	last := len(s.session.Results) - 1
	switch kmsg.String() {
	case "up", "k", "left", "h":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j", "right", "l":
		if s.selected < last {
			s.selected++
		}
	case "enter":
		if last >= 0 {
			s.detail = !s.detail
		}
	case "esc":
		if s.detail {
			s.detail = false
			return s, nil
		}
		if s.ender == nil {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		_ = s.ender.End()
		return s, func() tea.Msg { return router.PopToRootMsg{} }
	}
	return s, nil
}

func (s *ResultsScreen) View(width, height int) string {
	if s.detail {
		return s.renderDetail(width)
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render(s.tr.T("ResultsHeading")))
	b.WriteString("\n\n")

	stats := fmt.Sprintf("%s %s    %s %d/%d    %s %s",
		s.tr.T("AverageScore"), s.tr.Td("ScorePoints", map[string]any{"Score": s.summary.AverageScore}),
		s.tr.T("CorrectCount"), s.summary.Correct, s.summary.Total,
		s.tr.T("ElapsedTime"), exam.FormatClock(int(s.summary.Elapsed.Seconds())),
	)
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.Text).Render(stats))
	b.WriteString("\n")
	if s.session.Forced {
		b.WriteString(theme.Subtitle.Width(width).Render(s.tr.T("Forced")))
		b.WriteString("\n")
	}

	listWidth := min(width-8, 90)
	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(listWidth, 0)))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n")

	used := lipgloss.Height(b.String())
	from, to := window(s.selected, len(s.session.Results), height-used-1)
	for i := from; i < to; i++ {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.renderRow(i, listWidth)))
		b.WriteString("\n")
	}

	return b.String()
}

func (s *ResultsScreen) renderRow(i, width int) string {
	r := s.session.Results[i]
	mark := theme.Incorrect.Render("✗")
	if r.IsCorrect {
		mark = theme.Correct.Render("✓")
	}

	prefix := "  "
	style := theme.Unselected
	if i == s.selected {
		prefix = "> "
		style = theme.Selected
	}

	head := fmt.Sprintf("%s%2d. ", prefix, i+1)
	score := fmt.Sprintf(" %3d  ", r.Score)
	question := strings.Join(strings.Fields(s.session.Problems[i].Question), " ")
	room := max(width-lipgloss.Width(head)-lipgloss.Width(score)-2, 0)
	return style.Render(head) + mark + style.Render(score+ansi.Truncate(question, room, "…"))
}

func (s *ResultsScreen) renderDetail(width int) string {
	r := s.session.Results[s.selected]
	p := s.session.Problems[s.selected]
	textWidth := min(width-8, 80)
	body := lipgloss.NewStyle().Width(textWidth).Foreground(theme.Text)

	verdict := theme.Incorrect.Render("✗")
	if r.IsCorrect {
		verdict = theme.Correct.Render("✓")
	}

	answer := r.UserAnswer
	if strings.TrimSpace(answer) == "" {
		answer = s.tr.T("NoAnswer")
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Label.Render(s.tr.Td("ProblemN", map[string]any{"N": s.selected + 1})))
	b.WriteString("  " + verdict + "  ")
	b.WriteString(theme.Body.Render(s.tr.Td("ScorePoints", map[string]any{"Score": r.Score})))
	b.WriteString("\n\n")
	b.WriteString(body.Render(p.Question))
	b.WriteString("\n\n")

	for _, section := range []struct{ label, text string }{
		{s.tr.T("YourAnswer"), answer},
		{s.tr.T("ModelAnswer"), r.CorrectAnswer},
		{s.tr.T("Feedback"), r.Feedback},
		{s.tr.T("Explanation"), r.Explanation},
	} {
		b.WriteString(theme.Label.Render(section.label))
		b.WriteString("\n")
		b.WriteString(body.Render(section.text))
		b.WriteString("\n\n")
	}

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, b.String())
}

// window returns the [from, to) range of rows to show so that selected
// stays visible.
func window(selected, total, rows int) (int, int) {
	if rows <= 0 || total <= rows {
		return 0, total
	}
	from := max(selected-rows/2, 0)
	from = min(from, total-rows)
	return from, from + rows
}
