package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockexam/internal/ui/theme"
)

// ProgressBar shows how many of a fixed number of items are done, e.g.
// generated problems or answered questions.
type ProgressBar struct {
	Done      int
	Total     int
	Width     int
	ShowCount bool
}

// NewProgressBar creates a bar for done out of total items.
func NewProgressBar(done, total, width int, showCount bool) ProgressBar {
	return ProgressBar{Done: done, Total: total, Width: width, ShowCount: showCount}
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	count := ""
	if p.ShowCount {
		count = fmt.Sprintf("  %d/%d", p.Done, p.Total)
	}

	barWidth := max(p.Width-lipgloss.Width(count), 4)
	filled := 0
	if p.Total > 0 {
		filled = min(max(barWidth*p.Done/p.Total, 0), barWidth)
	}

	var b strings.Builder
	b.WriteString(theme.ProgressFilled.Render(strings.Repeat(" ", filled)))
	b.WriteString(theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled)))
	if count != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(count))
	}
	return b.String()
}

// QuestionStrip renders one cell per question: answered questions are
// filled and the current one is marked. It falls back to a ProgressBar
// when the cells do not fit in width.
func QuestionStrip(answered []bool, current, width int) string {
	if len(answered)*2 > width {
		done := 0
		for _, a := range answered {
			if a {
				done++
			}
		}
		return NewProgressBar(done, len(answered), width, false).View()
	}

	cells := make([]string, len(answered))
	for i, a := range answered {
		style := theme.ProgressEmpty
		if a {
			style = theme.ProgressFilled
		}
		cell := " "
		if i == current {
			cell = "•"
		}
		cells[i] = style.Render(cell)
	}
	return strings.Join(cells, " ")
}
