// Package router keeps the stack of screens the user has navigated
// through. Only the top screen receives messages and is drawn.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mockexam/internal/screen"
)

// PushScreenMsg opens Screen above the current one.
type PushScreenMsg struct {
	Screen screen.Screen
}

// PopScreenMsg returns to the previous screen.
type PopScreenMsg struct{}

// PopToRootMsg returns to the bottom screen, usually home.
type PopToRootMsg struct{}

// ReplaceScreenMsg swaps the current screen for Screen, so going back
// skips it. The exam screen hands over to its results this way.
type ReplaceScreenMsg struct {
	Screen screen.Screen
}

type Router struct {
	stack []screen.Screen
}

// New starts the stack at initial with rest above it. Only the caller
// knows when the program starts, so no Init is run here.
func New(initial screen.Screen, rest ...screen.Screen) *Router {
	return &Router{stack: append([]screen.Screen{initial}, rest...)}
}

// Push opens s above the current screen and initializes it.
func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

// Replace swaps the top screen for s and initializes it.
func (r *Router) Replace(s screen.Screen) tea.Cmd {
	if len(r.stack) == 0 {
		return r.Push(s)
	}
	r.stack[len(r.stack)-1] = s
	return s.Init()
}

// Pop drops the top screen. The bottom screen is never popped.
func (r *Router) Pop() tea.Cmd {
	r.truncate(len(r.stack) - 1)
	return nil
}

// PopToRoot drops every screen above the bottom one.
func (r *Router) PopToRoot() tea.Cmd {
	r.truncate(1)
	return nil
}

func (r *Router) truncate(depth int) {
	if depth < 1 || depth >= len(r.stack) {
		return
	}
	clear(r.stack[depth:])
	r.stack = r.stack[:depth]
}

// Active returns the top screen, or nil for an empty router.
func (r *Router) Active() screen.Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

func (r *Router) Depth() int {
	return len(r.stack)
}

// Trail lists the screen titles from the bottom of the stack up.
func (r *Router) Trail() []string {
	titles := make([]string, len(r.stack))
	for i, s := range r.stack {
		titles[i] = s.Title()
	}
	return titles
}

// Update applies navigation messages and hands everything else to the
// active screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case ReplaceScreenMsg:
		return r.Replace(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	case PopToRootMsg:
		return r.PopToRoot()
	}

	if len(r.stack) == 0 {
		return nil
	}
	top := len(r.stack) - 1
	next, cmd := r.stack[top].Update(msg)
	r.stack[top] = next
	return cmd
}

func (r *Router) View(width, height int) string {
	if s := r.Active(); s != nil {
		return s.View(width, height)
	}
	return ""
}
