package router

import (
	"slices"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mockexam/internal/screen"
)

type fakeScreen struct {
	title string
	inits int
	seen  []tea.Msg
}

func (s *fakeScreen) Init() tea.Cmd {
	s.inits++
	return nil
}

func (s *fakeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.seen = append(s.seen, msg)
	return s, nil
}

func (s *fakeScreen) View(int, int) string { return s.title }
func (s *fakeScreen) Title() string        { return s.title }

func screens(titles ...string) []*fakeScreen {
	out := make([]*fakeScreen, len(titles))
	for i, t := range titles {
		out[i] = &fakeScreen{title: t}
	}
	return out
}

func TestNewDoesNotInit(t *testing.T) {
	s := screens("Home", "Mock Exam")
	r := New(s[0], s[1])

	if r.Depth() != 2 || r.Active() != s[1] {
		t.Fatalf("depth = %d, active = %v", r.Depth(), r.Active().Title())
	}
	if s[0].inits != 0 || s[1].inits != 0 {
		t.Error("New should leave Init to the caller")
	}
}

func TestNavigationMessages(t *testing.T) {
	s := screens("Home", "History", "Results", "Mock Exam")
	r := New(s[0])

	r.Update(PushScreenMsg{Screen: s[1]})
	r.Update(PushScreenMsg{Screen: s[2]})
	if got := r.Trail(); !slices.Equal(got, []string{"Home", "History", "Results"}) {
		t.Fatalf("trail = %v", got)
	}
	if s[1].inits != 1 || s[2].inits != 1 {
		t.Error("pushed screens should be initialized once")
	}

	r.Update(ReplaceScreenMsg{Screen: s[3]})
	if r.Depth() != 3 || r.View(80, 24) != "Mock Exam" || s[3].inits != 1 {
		t.Fatalf("replace: depth = %d, view = %q", r.Depth(), r.View(80, 24))
	}

	r.Update(PopScreenMsg{})
	if r.View(80, 24) != "History" {
		t.Fatalf("after pop, view = %q", r.View(80, 24))
	}

	r.Update(PopToRootMsg{})
	if r.Depth() != 1 || r.View(80, 24) != "Home" {
		t.Fatalf("after pop to root, depth = %d, view = %q", r.Depth(), r.View(80, 24))
	}
}

func TestBottomScreenStays(t *testing.T) {
	home := &fakeScreen{title: "Home"}
	r := New(home)

	r.Pop()
	r.PopToRoot()
	if r.Depth() != 1 || r.Active() != home {
		t.Fatalf("depth = %d after popping the bottom screen", r.Depth())
	}
}

func TestReplaceOnEmptyRouterPushes(t *testing.T) {
	r := &Router{}
	if r.Active() != nil || r.View(80, 24) != "" {
		t.Fatal("empty router should have nothing to show")
	}

	s := &fakeScreen{title: "Welcome"}
	r.Replace(s)
	if r.Depth() != 1 || s.inits != 1 {
		t.Fatalf("depth = %d, inits = %d", r.Depth(), s.inits)
	}
}

func TestOnlyActiveScreenReceivesMessages(t *testing.T) {
	s := screens("Home", "Mock Exam")
	r := New(s[0], s[1])

	type tick struct{}
	r.Update(tick{})
	r.Update(PopScreenMsg{})

	if len(s[0].seen) != 0 {
		t.Errorf("covered screen saw %d messages", len(s[0].seen))
	}
	if len(s[1].seen) != 1 {
		t.Errorf("active screen saw %d messages, want 1", len(s[1].seen))
	}
}
