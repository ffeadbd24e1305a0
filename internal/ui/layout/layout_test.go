package layout

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

func TestChromeRender(t *testing.T) {
	c := Chrome{
		App:    "MockExam",
		Trail:  []string{"Home", "Mock Exam"},
		Status: "⏱ 89:59",
		Hints:  []KeyHint{{Key: "Tab", Description: "Next"}, {Key: "Esc", Description: "End"}},
	}

	var gotW, gotH int
	frame := c.Render(100, 40, func(w, h int) string {
		gotW, gotH = w, h
		return "question body"
	})

	for _, want := range []string{"MockExam", "Home › Mock Exam", "89:59", "Tab", "Next", "Esc", "End", "question body"} {
		if !strings.Contains(frame, want) {
			t.Errorf("frame missing %q", want)
		}
	}
	if gotW != 100 || gotH != 40-HeaderHeight-FooterHeight {
		t.Errorf("body got %dx%d, want 100x%d", gotW, gotH, 40-HeaderHeight-FooterHeight)
	}
	if h := lipgloss.Height(frame); h != 40 {
		t.Errorf("frame height = %d, want 40", h)
	}
}

func TestChromeRender_BodyIsClipped(t *testing.T) {
	frame := Chrome{App: "MockExam"}.Render(80, 24, func(w, h int) string {
		return strings.Repeat("line\n", 100)
	})
	if h := lipgloss.Height(frame); h != 24 {
		t.Errorf("frame height = %d, want 24", h)
	}
}

func TestBreadcrumb(t *testing.T) {
	trail := []string{"Home", "History", "Results"}

	tests := []struct {
		name  string
		trail []string
		width int
		want  string
	}{
		{"fits", trail, 80, "Home › History › Results"},
		{"drops oldest", trail, 22, "… › History › Results"},
		{"keeps the top screen", trail, 12, "… › Results"},
		{"truncates a lone crumb", []string{"Home", "Certification Results"}, 10, "Certifica…"},
		{"skips untitled screens", []string{"", "Home"}, 80, "Home"},
		{"empty", nil, 80, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Breadcrumb(tt.trail, tt.width)
			if got != tt.want {
				t.Errorf("Breadcrumb() = %q, want %q", got, tt.want)
			}
			if ansi.StringWidth(got) > tt.width {
				t.Errorf("width %d exceeds %d", ansi.StringWidth(got), tt.width)
			}
		})
	}
}

func TestTooSmall(t *testing.T) {
	out := TooSmall("Resize me", 40, 10)
	if !strings.Contains(out, "Resize me") {
		t.Errorf("missing message: %q", out)
	}
	if lipgloss.Height(out) != 10 {
		t.Errorf("height = %d, want 10", lipgloss.Height(out))
	}
}

func TestIsTooSmall(t *testing.T) {
	if !IsTooSmall(MinWidth-1, MinHeight) {
		t.Error("expected narrow terminal to be too small")
	}
	if IsTooSmall(MinWidth, MinHeight) {
		t.Error("expected minimum size to fit")
	}
}
