// Package screen defines what the router needs from a page of the TUI
// and the optional hooks a page can offer the surrounding frame.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mockexam/internal/ui/layout"
)

// Screen is one page: home, the exam itself, results or history.
type Screen interface {
	// Init runs when the screen becomes active through a push or replace.
	Init() tea.Cmd

	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View draws the area between the header and footer.
	View(width, height int) string

	// Title is the screen's crumb in the header trail. Empty titles are
	// left out of the trail.
	Title() string
}

// KeyHintProvider replaces the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider fills the right of the header. The exam screen shows
// its remaining time there.
type StatusProvider interface {
	Status() string
}

// BackHandler screens receive Esc instead of being popped when
// HandlesBack reports true, so the exam can ask before ending.
type BackHandler interface {
	HandlesBack() bool
}
