package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mockexam/internal/i18n"
	"github.com/abhisek/mockexam/internal/problemgen"
	"github.com/abhisek/mockexam/internal/router"
	"github.com/abhisek/mockexam/internal/screen"
	"github.com/abhisek/mockexam/internal/screens/home"
	examscreen "github.com/abhisek/mockexam/internal/screens/session"
	"github.com/abhisek/mockexam/internal/screens/welcome"
	"github.com/abhisek/mockexam/internal/ui/layout"
)

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	tr     *i18n.Translator
	width  int
	height int
}

// newAppModel creates a new AppModel starting at the welcome screen.
func newAppModel(deps screen.Deps) AppModel {
	if deps.Translator == nil {
		deps.Translator = i18n.MustNew("en")
	}
	var rules welcome.Rules
	if deps.Engine != nil {
		cfg := deps.Engine.Config()
		rules = welcome.Rules{Count: cfg.ExamLength, Minutes: int(cfg.Duration.Minutes())}
	}
	homeFactory := func() screen.Screen { return home.New(deps) }
	return AppModel{
		router: router.New(welcome.New(deps.Translator, rules, homeFactory)),
		tr:     deps.Translator,
	}
}

// newExamModel starts directly in an exam for req. Leaving the exam returns
// to the home screen.
func newExamModel(deps screen.Deps, req problemgen.ExamRequest) AppModel {
	if deps.Translator == nil {
		deps.Translator = i18n.MustNew("en")
	}
	return AppModel{
		router: router.New(home.New(deps), examscreen.New(deps, req)),
		tr:     deps.Translator,
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if bh, ok := m.router.Active().(screen.BackHandler); ok && bh.HandlesBack() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView(m.frame())
	v.AltScreen = true
	return v
}

// frame renders the whole terminal: the active screen inside the header
// and footer, or a resize notice.
func (m AppModel) frame() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if layout.IsTooSmall(m.width, m.height) {
		return layout.TooSmall(m.tr.Td("TerminalTooSmall", map[string]any{
			"MinWidth": layout.MinWidth, "MinHeight": layout.MinHeight,
			"Width": m.width, "Height": m.height,
		}), m.width, m.height)
	}

	chrome := layout.Chrome{App: m.tr.T("AppTitle"), Trail: m.router.Trail()}
	active := m.router.Active()
	if sp, ok := active.(screen.StatusProvider); ok {
		chrome.Status = sp.Status()
	}
	if kp, ok := active.(screen.KeyHintProvider); ok {
		chrome.Hints = kp.KeyHints()
	} else if m.router.Depth() > 1 {
		chrome.Hints = []layout.KeyHint{
			{Key: "Esc", Description: m.tr.T("KeyBack")},
			{Key: "Ctrl+C", Description: m.tr.T("KeyQuit")},
		}
	}
	return chrome.Render(m.width, m.height, m.router.View)
}

// Run starts the Bubble Tea program at the welcome screen.
func Run(deps screen.Deps) error {
	return run(newAppModel(deps))
}

// RunExam starts the Bubble Tea program inside a new exam.
func RunExam(deps screen.Deps, req problemgen.ExamRequest) error {
	return run(newExamModel(deps, req))
}

func run(m AppModel) error {
	p := tea.NewProgram(m)
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
