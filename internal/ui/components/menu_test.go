package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func press(code rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: code} }

func TestNewMenuSkipsDisabled(t *testing.T) {
	m := NewMenu([]MenuItem{{Label: "Start", Disabled: true}, {Label: "History"}})
	if m.Selected != 1 {
		t.Errorf("selected = %d, want the first enabled item", m.Selected)
	}

	all := NewMenu([]MenuItem{{Label: "Start", Disabled: true}})
	if all.Selected != 0 {
		t.Errorf("selected = %d, want 0 when nothing is enabled", all.Selected)
	}
}

func TestMenuCursor(t *testing.T) {
	m := NewMenu([]MenuItem{{Label: "A"}, {Label: "B", Disabled: true}, {Label: "C"}})

	m, _ = m.Update(press(tea.KeyDown))
	if m.Selected != 2 {
		t.Fatalf("selected = %d, want 2 after skipping the disabled item", m.Selected)
	}
	m, _ = m.Update(press(tea.KeyDown))
	if m.Selected != 2 {
		t.Errorf("selected = %d, the cursor should stop at the last item", m.Selected)
	}
	m, _ = m.Update(press(tea.KeyUp))
	if m.Selected != 0 {
		t.Errorf("selected = %d, want 0", m.Selected)
	}
}

func TestMenuPickerAndAction(t *testing.T) {
	value := 0
	fired := false
	m := NewMenu([]MenuItem{
		{Label: "Subject", Change: func(d int) { value += d }},
		{Label: "Start", Action: func() tea.Cmd { fired = true; return tea.Quit }},
	})

	m, _ = m.Update(press(tea.KeyRight))
	m, _ = m.Update(press(tea.KeyRight))
	m, _ = m.Update(press(tea.KeyLeft))
	if value != 1 {
		t.Errorf("value = %d, want 1", value)
	}
	if _, cmd := m.Update(press(tea.KeyEnter)); cmd != nil {
		t.Error("enter on a picker should do nothing")
	}

	m, _ = m.Update(press(tea.KeyDown))
	_, cmd := m.Update(press(tea.KeyEnter))
	if cmd == nil || !fired {
		t.Error("enter should run the selected action")
	}
}

func TestMenuView(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "Subject", Change: func(int) {}},
		{Label: "Start"},
	})

	view := m.View(60, true)
	if !strings.Contains(view, "◂ Subject ▸") {
		t.Errorf("selected picker should show arrows: %q", view)
	}
	if strings.Contains(view, "◂ Start") {
		t.Error("only the selected picker shows arrows")
	}
	if got := strings.Count(m.View(60, false), "╭"); got != 2 {
		t.Errorf("expected a bordered button per item, got %d", got)
	}
}
