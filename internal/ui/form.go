package ui

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskpad/internal/task"
)

type field int

const (
	fieldTitle field = iota
	fieldDescription
)

type form struct {
	id     string
	back   screen
	status task.Status
	title  textinput.Model
	desc   textarea.Model
	focus  field
	err    error
}

// newForm edits t, or creates a new task when t is nil.
func newForm(t *task.Task, back screen, width int) *form {
	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 256
	ti.Width = 40

	ta := textarea.New()
	ta.Placeholder = "Description (optional)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetWidth(60)
	ta.SetHeight(5)

	f := &form{
		back:   back,
		status: task.StatusPending,
		title:  ti,
		desc:   ta,
	}
	if t != nil {
		f.id = t.ID
		f.status = t.Status
		f.title.SetValue(t.Title)
		f.desc.SetValue(t.Description)
	}
	f.resize(width)
	return f
}

func (f *form) editing() bool {
	return f.id != ""
}

func (f *form) focusTitle() tea.Cmd {
	f.focus = fieldTitle
	f.desc.Blur()
	return f.title.Focus()
}

func (f *form) focusDescription() tea.Cmd {
	f.focus = fieldDescription
	f.title.Blur()
	return f.desc.Focus()
}

func (f *form) cycleFocus() tea.Cmd {
	if f.focus == fieldTitle {
		return f.focusDescription()
	}
	return f.focusTitle()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		before := f.title.Value()
		f.title, cmd = f.title.Update(msg)
		if f.title.Value() != before {
			f.err = nil
		}
	case fieldDescription:
		f.desc, cmd = f.desc.Update(msg)
	}
	return cmd
}

func (f *form) resize(width int) {
	if width <= 0 {
		return
	}
	f.title.Width = max(width-12, 20)
	f.desc.SetWidth(max(width-4, 20))
}

func (f *form) command() command {
	if f.editing() {
		return editCmd{id: f.id, title: f.title.Value(), description: f.desc.Value(), status: f.status}
	}
	return createCmd{title: f.title.Value(), description: f.desc.Value()}
}

func (f *form) titleLength() int {
	return utf8.RuneCountInString(strings.TrimSpace(f.title.Value()))
}

func fieldMessage(err error) string {
	switch {
	case errors.Is(err, task.ErrEmptyTitle):
		return "Title cannot be empty"
	case errors.Is(err, task.ErrTitleTooLong):
		return fmt.Sprintf("Title must be at most %d characters", task.MaxTitleLength)
	case errors.Is(err, task.ErrInvalidStatus):
		return "Status must be pending or completed"
	default:
		return err.Error()
	}
}
