package ui

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskpad/internal/config"
	"taskpad/internal/store"
	"taskpad/internal/task"
)

type screen int

const (
	screenList screen = iota
	screenDetail
	screenForm
)

type Options struct {
	Logger *slog.Logger
	// Clipboard receives shared task text. Defaults to the system clipboard.
	Clipboard func(string) error
	// Notice replaces the initial status line.
	Notice string
}

type Model struct {
	store *store.Store
	cfg   config.Config
	log   *slog.Logger
	copy  func(string) error

	screen screen
	tasks  []task.Task
	total  int
	cursor int
	filter task.StatusFilter

	search    textinput.Model
	searching bool

	selected   string
	form       *form
	confirmDel bool
	pendingDel *task.Task
	// undoID is the task whose toggle can still be reverted with the undo key.
	undoID string
	status string
	width  int
}

func New(s *store.Store, cfg config.Config, opts Options) (Model, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	si := textinput.New()
	si.Prompt = "/ "
	si.Placeholder = "search title or description"
	si.CharLimit = 256
	si.Width = 40

	m := Model{
		store:  s,
		cfg:    cfg,
		log:    opts.Logger,
		copy:   opts.Clipboard,
		screen: screenList,
		filter: cfg.Filter(),
		search: si,
		status: opts.Notice,
	}
	if m.status == "" {
		m.status = fmt.Sprintf("Press '%s' to add, '%s' to search, '%s' to quit.",
			m.cfg.Keys.Add, m.cfg.Keys.Search, m.cfg.Keys.Quit)
	}
	if err := m.refresh(); err != nil {
		return m, err
	}
	return m, nil
}

func Run(s *store.Store, cfg config.Config, opts Options) error {
	m, err := New(s, cfg, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		undo := m.undoID
		m.undoID = ""
		if undo != "" && m.screen != screenForm && !m.searching && msg.String() == m.cfg.Keys.Undo {
			return m.undoToggle(undo), nil
		}
		switch {
		case m.screen == screenForm:
			return m.updateForm(msg)
		case m.screen == screenDetail:
			return m.updateDetail(msg.String())
		case m.searching:
			return m.updateSearch(msg)
		}
		return m.updateList(msg.String())
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.search.Width = max(msg.Width-10, 10)
		if m.form != nil {
			m.form.resize(msg.Width)
		}
	}
	return m, nil
}

func (m Model) updateList(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.tasks))
	case k.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.tasks))
	case k.Add:
		return m.openForm(nil)
	case k.Search:
		m.searching = true
		m.status = "Search: type to filter, enter to keep, esc to clear"
		return m, m.search.Focus()
	case k.Filter:
		m.filter = m.filter.Next()
		m.refreshOrReport()
		m.status = fmt.Sprintf("Showing %s tasks", m.filter)
	case k.Cancel:
		if m.query() != "" {
			m.search.SetValue("")
			m.refreshOrReport()
			m.status = "Search cleared"
		}
	case k.Toggle:
		if t, ok := m.current(); ok {
			return m.toggle(t.ID), nil
		}
		m.status = "No tasks"
	case k.Delete:
		if t, ok := m.current(); ok {
			return m.askDelete(t), nil
		}
		m.status = "No tasks"
	case k.Detail:
		if t, ok := m.current(); ok {
			m.screen = screenDetail
			m.selected = t.ID
			m.status = ""
			return m, nil
		}
		m.status = "No tasks"
	case k.Edit:
		if t, ok := m.current(); ok {
			return m.openForm(&t)
		}
		m.status = "No tasks to edit"
	case k.Share:
		if t, ok := m.current(); ok {
			return m.share(t), nil
		}
		m.status = "No tasks to share"
	}
	return m, nil
}

func (m Model) updateDetail(key string) (tea.Model, tea.Cmd) {
	t, err := m.store.Get(m.selected)
	if err != nil {
		m.screen = screenList
		m.selected = ""
		m.refreshOrReport()
		m.status = "Task no longer exists"
		return m, nil
	}
	k := m.cfg.Keys
	switch key {
	case k.Quit:
		return m, tea.Quit
	case k.Cancel, "backspace", "left":
		m.screen = screenList
		m.selected = ""
		m.selectTask(t.ID)
		m.status = ""
	case k.Edit:
		return m.openForm(&t)
	case k.Toggle:
		return m.toggle(t.ID), nil
	case k.Delete:
		return m.askDelete(t), nil
	case k.Share:
		return m.share(t), nil
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.refreshOrReport()
		m.status = "Search cleared"
		return m, nil
	case m.cfg.Keys.Confirm:
		m.searching = false
		m.search.Blur()
		m.status = fmt.Sprintf("%d matching tasks", len(m.tasks))
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.refreshOrReport()
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch msg.String() {
	case k.Cancel:
		m.screen = m.form.back
		m.form = nil
		m.status = "Cancelled"
		return m, nil
	case k.NextField, "shift+tab":
		return m, m.form.cycleFocus()
	case k.FormStatus:
		if m.form.editing() {
			m.form.status = m.form.status.Toggle()
		}
		return m, nil
	case k.Save:
		return m.submitForm()
	case k.Confirm:
		if m.form.focus == fieldTitle {
			return m.submitForm()
		}
	}
	return m, m.form.update(msg)
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	t, err := m.dispatch(f.command())
	if err != nil {
		if isValidation(err) {
			f.err = err
			m.status = fieldMessage(err)
			return m, f.focusTitle()
		}
		m.status = fmt.Sprintf("save failed: %v", err)
		return m, nil
	}
	m.form = nil
	m.screen = f.back
	if f.editing() {
		m.status = "Saved task"
	} else {
		m.screen = screenList
		m.status = "Added task"
	}
	if m.screen == screenDetail {
		m.selected = t.ID
	}
	m.selectTask(t.ID)
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		t, err := m.dispatch(deleteCmd{id: m.pendingDel.ID})
		if err != nil {
			m.status = fmt.Sprintf("delete failed: %v", err)
		} else {
			m.status = fmt.Sprintf("Deleted %q", t.Title)
			if m.screen == screenDetail && m.selected == t.ID {
				m.screen = screenList
				m.selected = ""
			}
		}
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) openForm(t *task.Task) (tea.Model, tea.Cmd) {
	m.form = newForm(t, m.screen, m.width)
	m.screen = screenForm
	if t == nil {
		m.status = "New task"
	} else {
		m.status = fmt.Sprintf("Editing %q", t.Title)
	}
	return m, m.form.focusTitle()
}

func (m Model) askDelete(t task.Task) Model {
	m.confirmDel = true
	m.pendingDel = &t
	m.status = fmt.Sprintf("Delete %q? y/n", t.Title)
	return m
}

func (m Model) toggle(id string) Model {
	t, err := m.dispatch(toggleCmd{id: id})
	if err != nil {
		m.status = fmt.Sprintf("toggle failed: %v", err)
		return m
	}
	m.selectTask(t.ID)
	m.undoID = t.ID
	m.status = fmt.Sprintf("Marked %q %s. Press '%s' to undo.", t.Title, t.Status, m.cfg.Keys.Undo)
	return m
}

func (m Model) undoToggle(id string) Model {
	t, err := m.dispatch(toggleCmd{id: id})
	if err != nil {
		m.status = fmt.Sprintf("undo failed: %v", err)
		return m
	}
	m.selectTask(t.ID)
	m.status = fmt.Sprintf("Undone: %q is %s again", t.Title, t.Status)
	return m
}

func (m Model) share(t task.Task) Model {
	if err := m.copy(shareText(t)); err != nil {
		m.log.Warn("share failed", "id", t.ID, "error", err)
		m.status = fmt.Sprintf("share failed: %v", err)
		return m
	}
	m.status = fmt.Sprintf("Copied %q to clipboard", t.Title)
	return m
}

func shareText(t task.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", t.Title, t.Status)
	if t.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(t.Description)
	}
	return b.String()
}

// dispatch applies c to the store and reloads the visible list on success.
func (m *Model) dispatch(c command) (task.Task, error) {
	t, err := c.apply(m.store)
	if err != nil {
		if isValidation(err) {
			m.log.Debug("rejected input", "command", c.name(), "error", err)
		} else {
			m.log.Error("command failed", "command", c.name(), "error", err)
		}
		return t, err
	}
	m.refreshOrReport()
	return t, nil
}

func (m *Model) refresh() error {
	all, err := m.store.Snapshot()
	if err != nil {
		return err
	}
	m.total = len(all)
	m.tasks = task.FilterStatus(task.View(all, m.query()), m.filter)
	m.cursor = clampCursor(m.cursor, len(m.tasks))
	return nil
}

func (m *Model) refreshOrReport() {
	if err := m.refresh(); err != nil {
		m.log.Error("reload failed", "error", err)
		m.status = fmt.Sprintf("reload failed: %v", err)
	}
}

func (m *Model) selectTask(id string) {
	for i, t := range m.tasks {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m Model) current() (task.Task, bool) {
	if len(m.tasks) == 0 {
		return task.Task{}, false
	}
	return m.tasks[clampCursor(m.cursor, len(m.tasks))], true
}

func (m Model) query() string {
	return m.search.Value()
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
