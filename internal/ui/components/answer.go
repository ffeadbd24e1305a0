package components

import (
	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mockexam/internal/exam"
)

// Editor heights per response type.
const (
	ShortAnswerRows = 3
	EssayAnswerRows = 6
)

// MaxAnswerLength bounds a single answer.
const MaxAnswerLength = 4000

// AnswerEditor wraps bubbles/textarea for exam answers.
type AnswerEditor struct {
	Model textarea.Model
}

// NewAnswerEditor creates a focused editor sized for the response type.
func NewAnswerEditor(placeholder string, kind exam.ResponseType, width int) AnswerEditor {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = MaxAnswerLength
	ta.SetWidth(width)
	ta.SetHeight(RowsFor(kind))
	ta.Focus()
	return AnswerEditor{Model: ta}
}

// RowsFor returns the editor height for a response type.
func RowsFor(kind exam.ResponseType) int {
	if kind == exam.ResponseEssay {
		return EssayAnswerRows
	}
	return ShortAnswerRows
}

// Update forwards messages to the textarea.
func (a AnswerEditor) Update(msg tea.Msg) (AnswerEditor, tea.Cmd) {
	var cmd tea.Cmd
	a.Model, cmd = a.Model.Update(msg)
	return a, cmd
}

// View renders the editor.
func (a AnswerEditor) View() string {
	return a.Model.View()
}

// Value returns the text as typed.
func (a AnswerEditor) Value() string {
	return a.Model.Value()
}

// SetValue replaces the editor contents.
func (a *AnswerEditor) SetValue(s string) {
	a.Model.SetValue(s)
}

// SetWidth resizes the editor.
func (a *AnswerEditor) SetWidth(w int) {
	a.Model.SetWidth(w)
}
