package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockexam/internal/ui/theme"
)

// ButtonWidth is the width of every menu button.
const ButtonWidth = 36

// MenuItem is one button of a Menu. An item with Change is a picker:
// left and right cycle its value and enter does nothing.
type MenuItem struct {
	Label    string
	Action   func() tea.Cmd
	Change   func(delta int)
	Disabled bool
}

func (it MenuItem) picker() bool { return it.Change != nil }

// Menu is a column of buttons with one selected. Disabled buttons are
// skipped by the cursor.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu selects the first enabled item.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	if !m.move(1) {
		m.Selected = 0
	}
	return m
}

// move steps the cursor to the next enabled item in direction dir and
// reports whether it found one. The cursor does not wrap.
func (m *Menu) move(dir int) bool {
	for i := m.Selected + dir; i >= 0 && i < len(m.Items); i += dir {
		if !m.Items[i].Disabled {
			m.Selected = i
			return true
		}
	}
	return false
}

// current returns the selected item if it can be used.
func (m Menu) current() (MenuItem, bool) {
	if m.Selected < 0 || m.Selected >= len(m.Items) || m.Items[m.Selected].Disabled {
		return MenuItem{}, false
	}
	return m.Items[m.Selected], true
}

func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k", "shift+tab":
		m.move(-1)
	case "down", "j", "tab":
		m.move(1)
	case "left", "h":
		if it, ok := m.current(); ok && it.picker() {
			it.Change(-1)
		}
	case "right", "l":
		if it, ok := m.current(); ok && it.picker() {
			it.Change(1)
		}
	case "enter", "space":
		if it, ok := m.current(); ok && it.Action != nil {
			return m, it.Action()
		}
	}
	return m, nil
}

// View renders the buttons centred in width. Compact drops the borders
// so the menu fits short terminals.
func (m Menu) View(width int, compact bool) string {
	base := lipgloss.NewStyle().
		Width(ButtonWidth).
		Align(lipgloss.Center).
		Padding(0, 1)
	if !compact {
		base = base.Border(lipgloss.RoundedBorder()).BorderForeground(theme.Border)
	}
	selected := base.Bold(true).Foreground(theme.Text).Background(theme.Primary)
	if !compact {
		selected = selected.BorderForeground(theme.Primary)
	}
	normal := base.Foreground(theme.Text)
	disabled := base.Foreground(theme.TextDim).Faint(true)

	buttons := make([]string, len(m.Items))
	for i, it := range m.Items {
		switch {
		case it.Disabled:
			buttons[i] = disabled.Render(it.Label)
		case i == m.Selected && it.picker():
			buttons[i] = selected.Render("◂ " + it.Label + " ▸")
		case i == m.Selected:
			buttons[i] = selected.Render(it.Label)
		default:
			buttons[i] = normal.Render(it.Label)
		}
	}

	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render(strings.Join(buttons, "\n"))
}
