package session

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	sess "github.com/abhisek/mockexam/internal/session"
	"github.com/abhisek/mockexam/internal/ui/components"
	"github.com/abhisek/mockexam/internal/ui/theme"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (s *SessionScreen) View(width, height int) string {
	switch s.stage {
	case stageGenerating:
		return s.renderGenerating(width)
	case stageFailed:
		return renderError(width, s.errMsg)
	}
	if s.confirmQuit {
		return s.renderQuitConfirm(width)
	}
	return s.renderQuestionView(width)
}

func (s *SessionScreen) spinner() string {
	return lipgloss.NewStyle().Foreground(theme.Secondary).
		Render(spinnerFrames[s.frame%len(spinnerFrames)])
}

// renderGenerating renders the problem generation progress.
func (s *SessionScreen) renderGenerating(width int) string {
	tr := s.deps.Translator
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Render(s.spinner() + " " + tr.Td("Generating", map[string]any{"Done": s.genDone, "Total": s.req.Count})))
	b.WriteString("\n\n")

	bar := components.NewProgressBar(s.genDone, s.req.Count, min(width-8, 60), true).View()
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar))
	b.WriteString("\n\n")
	b.WriteString(theme.Subtitle.Width(width).Render(tr.T("AppTagline")))
	return b.String()
}

// renderQuestionView renders the current problem and the answer editor.
func (s *SessionScreen) renderQuestionView(width int) string {
	tr := s.deps.Translator
	snap := s.snap
	p, ok := snap.Current()
	if !ok {
		return ""
	}
	textWidth := max(min(width-8, 100), 20)
	total := len(snap.Problems)

	var b strings.Builder

	infoLeft := theme.Label.Render(fmt.Sprintf("  %s / %d", tr.Td("ProblemN", map[string]any{"N": snap.CurrentIndex + 1}), total))
	answered := snap.AnsweredCount()
	infoRight := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(tr.Td("Answered", map[string]any{"Count": answered, "Total": total}))

	infoLine := infoLeft
	if pad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 4; pad > 0 {
		infoLine += strings.Repeat(" ", pad) + infoRight
	}
	b.WriteString(infoLine)
	b.WriteString("\n")

	marks := make([]bool, total)
	for i, q := range snap.Problems {
		text, _ := snap.Answer(q.ID)
		marks[i] = strings.TrimSpace(text) != ""
	}
	b.WriteString("  " + components.QuestionStrip(marks, snap.CurrentIndex, width-4))
	b.WriteString("\n\n")

	question := lipgloss.NewStyle().
		Width(textWidth).
		Foreground(theme.Text).
		Bold(true).
		Render(p.Question)
	b.WriteString(indent(question))
	b.WriteString("\n\n")

	b.WriteString(indent(theme.Label.Render(tr.T("AnswerLabel"))))
	b.WriteString("\n")
	s.editor.SetWidth(textWidth)
	b.WriteString(indent(theme.Card.Render(s.editor.View())))
	b.WriteString("\n\n")

	if banner := s.statusBanner(); banner != "" {
		b.WriteString(indent(banner))
	}

	return b.String()
}

// statusBanner shows grading progress, failures and the time warning, in
// that order of precedence.
func (s *SessionScreen) statusBanner() string {
	tr := s.deps.Translator
	snap := s.snap

	switch snap.Phase {
	case sess.PhaseGrading:
		line := s.spinner() + " " + tr.T("Grading")
		if s.deps.Grading != nil {
			if done, total := s.deps.Grading.Load(); total > 0 {
				line += fmt.Sprintf(" %d/%d", done, total)
			}
		}
		return theme.Body.Render(line)
	case sess.PhaseFailed:
		return theme.Banner.Render(tr.Td("GradingFailed", map[string]any{"Reason": s.reason(snap.LastError)}))
	}
	if s.banner != "" {
		return theme.Banner.Render(s.banner)
	}
	if snap.TimeRemaining < TimeWarningSeconds {
		return theme.Banner.Render(tr.T("TimeWarning"))
	}
	return ""
}

// renderQuitConfirm renders the quit confirmation dialog.
func (s *SessionScreen) renderQuitConfirm(width int) string {
	tr := s.deps.Translator
	var b strings.Builder
	b.WriteString("\n\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render(tr.T("QuitConfirm")))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render("[Y] " + tr.T("KeyYes")))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Render("[N] " + tr.T("KeyNo")))

	return b.String()
}

// renderError renders an error message.
func renderError(width int, errMsg string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render("\n\n\n  " + errMsg)
}

func indent(s string) string {
	return lipgloss.NewStyle().PaddingLeft(2).Render(s)
}
