package layout

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/abhisek/mockexam/internal/ui/theme"
)

const (
	MinWidth  = 80
	MinHeight = 24

	HeaderHeight = 3
	FooterHeight = 3

	CompactHeightThreshold = 30
)

const crumbSep = " › "

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// Chrome is everything drawn around the active screen.
type Chrome struct {
	App    string
	Trail  []string // screen titles, bottom of the stack first
	Status string   // right side of the header, the exam clock while one runs
	Hints  []KeyHint
}

// IsCompactHeight returns true if the terminal height is in compact range.
func IsCompactHeight(height int) bool {
	return height < CompactHeightThreshold
}

// IsTooSmall returns true if the terminal is below minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// TooSmall centres msg on an otherwise empty screen.
func TooSmall(msg string, width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.Text).
		Width(width).
		Height(height).
		Render(msg)
}

// Render draws the header and footer and fills the space between them
// with body, which is told how much room it has.
func (c Chrome) Render(width, height int, body func(w, h int) string) string {
	header := c.header(width)
	footer := c.footer(width)
	bodyHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	content := lipgloss.NewStyle().
		Width(width).
		Height(bodyHeight).
		MaxHeight(bodyHeight).
		Render(body(width, bodyHeight))

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (c Chrome) header(width int) string {
	app := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("  " + c.App)
	inner := max(width-4, 0)

	room := inner - lipgloss.Width(app) - lipgloss.Width(c.Status) - 2
	trail := lipgloss.NewStyle().Foreground(theme.Text).Render(Breadcrumb(c.Trail, room))

	gap := max(inner-lipgloss.Width(app)-lipgloss.Width(trail)-lipgloss.Width(c.Status), 2)
	left := max((inner-lipgloss.Width(trail))/2-lipgloss.Width(app), 1)
	left = min(left, gap-1)

	line := app + strings.Repeat(" ", left) + trail + strings.Repeat(" ", gap-left) + c.Status
	return box(width).Render(line)
}

func (c Chrome) footer(width int) string {
	key := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	desc := lipgloss.NewStyle().Foreground(theme.TextDim)

	parts := make([]string, len(c.Hints))
	for i, h := range c.Hints {
		parts[i] = key.Render(h.Key) + " " + desc.Render(h.Description)
	}
	return box(width).Render("  " + strings.Join(parts, "   "))
}

func box(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)
}

// Breadcrumb joins the trail so it fits in width cells. The oldest crumbs
// give way to an ellipsis first; a lone crumb that still does not fit is
// truncated.
func Breadcrumb(trail []string, width int) string {
	crumbs := make([]string, 0, len(trail))
	for _, t := range trail {
		if t != "" {
			crumbs = append(crumbs, t)
		}
	}
	if len(crumbs) == 0 || width <= 0 {
		return ""
	}

	s := strings.Join(crumbs, crumbSep)
	for dropped := 1; ansi.StringWidth(s) > width && dropped < len(crumbs); dropped++ {
		s = "…" + crumbSep + strings.Join(crumbs[dropped:], crumbSep)
	}
	if ansi.StringWidth(s) > width {
		s = ansi.Truncate(crumbs[len(crumbs)-1], width, "…")
	}
	return s
}
