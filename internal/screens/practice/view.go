package practice

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockexam/internal/ui/theme"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (s *PracticeScreen) View(width, height int) string {
	tr := s.deps.Translator
	switch s.stage {
	case stageGenerating:
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Text).
			Render("\n\n\n" + s.spinner() + " " + tr.T("PracticeGenerating"))
	case stageFailed:
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Render("\n\n\n  " + s.errMsg)
	}

	textWidth := max(min(width-8, 100), 20)
	body := lipgloss.NewStyle().Width(textWidth).Foreground(theme.Text)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(indent(body.Bold(true).Render(s.problem.Question)))
	b.WriteString("\n")
	if len(s.problem.Keywords) > 0 {
		b.WriteString(indent(theme.Hint.Render(tr.T("Keywords") + ": " + strings.Join(s.problem.Keywords, ", "))))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if s.stage == stageGraded {
		b.WriteString(s.renderResult(body))
		return b.String()
	}

	b.WriteString(indent(theme.Label.Render(tr.T("AnswerLabel"))))
	b.WriteString("\n")
	s.editor.SetWidth(textWidth)
	b.WriteString(indent(theme.Card.Render(s.editor.View())))
	b.WriteString("\n\n")

	switch {
	case s.stage == stageGrading:
		b.WriteString(indent(theme.Body.Render(s.spinner() + " " + tr.T("PracticeGrading"))))
	case s.banner != "":
		b.WriteString(indent(theme.Banner.Render(s.banner)))
	}
	return b.String()
}

// renderResult shows the verdict followed by the answers and explanation.
func (s *PracticeScreen) renderResult(body lipgloss.Style) string {
	tr := s.deps.Translator
	r := s.result

	verdict := theme.Incorrect.Render("✗ " + tr.T("VerdictIncorrect"))
	if r.IsCorrect {
		verdict = theme.Correct.Render("✓ " + tr.T("VerdictCorrect"))
	}

	var b strings.Builder
	b.WriteString(indent(verdict + "  " + theme.Body.Render(tr.Td("ScorePoints", map[string]any{"Score": r.Score}))))
	b.WriteString("\n\n")
	for _, section := range []struct{ label, text string }{
		{tr.T("Feedback"), r.Feedback},
		{tr.T("YourAnswer"), r.UserAnswer},
		{tr.T("ModelAnswer"), r.CorrectAnswer},
		{tr.T("Explanation"), r.Explanation},
	} {
		b.WriteString(indent(theme.Label.Render(section.label)))
		b.WriteString("\n")
		b.WriteString(indent(body.Render(section.text)))
		b.WriteString("\n\n")
	}
	return b.String()
}

func (s *PracticeScreen) spinner() string {
	return lipgloss.NewStyle().Foreground(theme.Secondary).
		Render(spinnerFrames[s.frame%len(spinnerFrames)])
}

func indent(s string) string {
	return lipgloss.NewStyle().PaddingLeft(2).Render(s)
}
