package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"taskpad/internal/config"
	"taskpad/internal/task"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
	doneStyle   = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("241"))
	matchStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("220"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	plainStyle  = lipgloss.NewStyle()
)

const snippetLength = 40

func (m Model) View() string {
	switch m.screen {
	case screenDetail:
		return m.viewDetail()
	case screenForm:
		return m.viewForm()
	}
	return m.viewList()
}

func (m Model) viewList() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Tasks"))
	b.WriteString(faintStyle.Render(fmt.Sprintf("  %s • %d of %d shown", m.filter, len(m.tasks), m.total)))
	b.WriteString("\n\n")

	if m.searching || m.query() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n\n")
	}

	switch {
	case m.total == 0:
		b.WriteString(fmt.Sprintf("No tasks yet. Press '%s' to add one.\n", m.cfg.Keys.Add))
	case len(m.tasks) == 0:
		b.WriteString("No tasks match the current search or filter.\n")
	default:
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(faintStyle.Render(listHelp(m.cfg.Keys)))
	return b.String()
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	query := m.query()
	for i, t := range m.tasks {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}

		checkbox := "[ ]"
		base := plainStyle
		if t.Status.Done() {
			checkbox = "[x]"
			base = doneStyle
		}

		b.WriteString(fmt.Sprintf("%s %s %s", cursor, checkbox, highlight(t.Title, query, base)))
		if snippet := firstLine(t.Description, snippetLength); snippet != "" {
			b.WriteString(faintStyle.Render(" - " + snippet))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewDetail() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Task"))
	b.WriteString("\n\n")

	t, err := m.store.Get(m.selected)
	if err != nil {
		b.WriteString("Task no longer exists\n")
	} else {
		b.WriteString(fmt.Sprintf("Title       : %s\n", t.Title))
		b.WriteString(fmt.Sprintf("Status      : %s\n", t.Status))
		b.WriteString(fmt.Sprintf("Created     : %s (%s)\n", humanize.Time(t.CreatedAt), t.CreatedAt.Local().Format("2006-01-02 15:04")))
		b.WriteString(fmt.Sprintf("ID          : %s\n", t.ID))
		b.WriteString("Description :\n")
		if strings.TrimSpace(t.Description) == "" {
			b.WriteString(faintStyle.Render("  (empty)"))
			b.WriteString("\n")
		} else {
			for _, line := range strings.Split(t.Description, "\n") {
				b.WriteString("  " + line + "\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(faintStyle.Render(detailHelp(m.cfg.Keys)))
	return b.String()
}

func (m Model) viewForm() string {
	f := m.form
	var b strings.Builder
	if f.editing() {
		b.WriteString(headerStyle.Render("Edit task"))
	} else {
		b.WriteString(headerStyle.Render("New task"))
	}
	b.WriteString("\n\n")

	b.WriteString("Title\n")
	b.WriteString(f.title.View())
	b.WriteString("\n")
	counter := fmt.Sprintf("%d/%d", f.titleLength(), task.MaxTitleLength)
	if f.titleLength() > task.MaxTitleLength {
		b.WriteString(errorStyle.Render(counter))
	} else {
		b.WriteString(faintStyle.Render(counter))
	}
	b.WriteString("\n")
	if f.err != nil {
		b.WriteString(errorStyle.Render(fieldMessage(f.err)))
		b.WriteString("\n")
	}

	b.WriteString("\nDescription\n")
	b.WriteString(f.desc.View())
	b.WriteString("\n")

	if f.editing() {
		b.WriteString(fmt.Sprintf("\nStatus: %s", f.status))
		b.WriteString(faintStyle.Render(fmt.Sprintf(" (%s to change)", keyName(m.cfg.Keys.FormStatus))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(faintStyle.Render(formHelp(m.cfg.Keys)))
	return b.String()
}

func (m Model) renderStatus() string {
	if m.form != nil && m.form.err != nil {
		return errorStyle.Render(m.status)
	}
	return m.status
}

// highlight renders every case-insensitive occurrence of query in s with
// matchStyle and the rest with base.
func highlight(s, query string, base lipgloss.Style) string {
	lower := strings.ToLower(s)
	needle := strings.ToLower(query)
	// Byte offsets only line up when lowering keeps the length.
	if needle == "" || len(lower) != len(s) {
		return base.Render(s)
	}
	var b strings.Builder
	for {
		i := strings.Index(lower, needle)
		if i < 0 {
			b.WriteString(renderNonEmpty(base, s))
			return b.String()
		}
		end := i + len(needle)
		b.WriteString(renderNonEmpty(base, s[:i]))
		b.WriteString(matchStyle.Render(s[i:end]))
		s, lower = s[end:], lower[end:]
	}
}

func renderNonEmpty(style lipgloss.Style, s string) string {
	if s == "" {
		return ""
	}
	return style.Render(s)
}

func firstLine(s string, limit int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	r := []rune(s)
	if len(r) > limit {
		return string(r[:limit-1]) + "…"
	}
	return s
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func listHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s detail • %s toggle • %s delete • %s edit • %s search • %s filter • %s share • %s quit",
		k.Up, k.Down, k.Add, keyName(k.Detail), keyName(k.Toggle), k.Delete, k.Edit, k.Search, k.Filter, k.Share, k.Quit)
}

func detailHelp(k config.Keymap) string {
	return fmt.Sprintf("%s back • %s edit • %s toggle • %s delete • %s share • %s quit",
		k.Cancel, k.Edit, keyName(k.Toggle), k.Delete, k.Share, k.Quit)
}

func formHelp(k config.Keymap) string {
	return fmt.Sprintf("%s next field • %s save (%s on title) • %s cancel",
		k.NextField, k.Save, k.Confirm, k.Cancel)
}
