package home

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockexam/internal/ui/theme"
)

// contentWidth returns the uniform inner width used for all sections.
func contentWidth(frameWidth int) int {
	// Leave room for the frame border (2) + inner padding (4)
	return max(min(frameWidth-6, 72), 20)
}

// renderTitle returns the heading box with the tagline below it.
func renderTitle(heading, tagline, info string, cw int) string {
	title := lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Bold(true).
		Foreground(theme.Text).
		Background(theme.Primary).
		Padding(1, 0).
		Render(heading)

	sub := lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(info + "\n" + tagline)

	return title + "\n" + sub
}

// renderNote renders a one-line notice such as a missing API key or an
// available update.
func renderNote(text string, cw int, warn bool) string {
	style := lipgloss.NewStyle().Foreground(theme.TextDim)
	if warn {
		style = style.Foreground(theme.Accent)
	}
	return style.Width(cw).Align(lipgloss.Center).Render(text)
}

// renderFrame wraps content in a double-border frame, centering it
// vertically and horizontally within the given dimensions.
func renderFrame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Primary).
		Width(width - 2).   // account for border chars
		Height(height - 2). // account for border chars
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
