package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
	Now  time.Time
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Description }

// Title returns the task description for the list.
func (i TaskItem) Title() string { return i.Task.Description }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{fmt.Sprintf("%.2f", i.Task.Urgency)}
	if i.Task.Project != "" {
		parts = append(parts, i.Task.Project)
	}
	if i.Task.Due != nil {
		parts = append(parts, "due "+relativeDue(*i.Task.Due, i.Now))
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering task rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task line: id, urgency, priority, description,
// project, tags and due date.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(TaskItem)
	if !ok {
		return
	}
	t := it.Task
	isSelected := index == m.Index()

	prefix := "○"
	if t.IsActive() {
		prefix = "▶"
	}

	id := fmt.Sprintf("%3d", t.ID)
	urg := theme.UrgencyStyle(t.Urgency).Render(fmt.Sprintf("%6.2f", t.Urgency))
	pri := theme.PriorityStyle(t.Priority).Render(priorityLabel(t.Priority))

	project := ""
	if t.Project != "" {
		project = lipgloss.NewStyle().
			Foreground(theme.ColorBlue).
			Render(" " + t.Project)
	}

	tags := ""
	if len(t.Tags) > 0 {
		display := t.Tags
		// Show max 3 tags to avoid overflow
		if len(display) > 3 {
			display = append(append([]string(nil), display[:3]...), "…")
		}
		tags = lipgloss.NewStyle().
			Foreground(theme.ColorMagenta).
			Render(" +" + strings.Join(display, " +"))
	}

	due := ""
	if t.Due != nil {
		style := lipgloss.NewStyle().Foreground(theme.ColorGray)
		if t.IsOverdue(it.Now) {
			style = theme.ErrorStyle
		}
		due = style.Render(" " + relativeDue(*t.Due, it.Now))
	}

	line := fmt.Sprintf("%s %s %s %s %s%s%s%s",
		prefix, id, urg, pri, t.Description, project, tags, due)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

// relativeDue returns a compact, human-friendly distance to a due date.
func relativeDue(due, now time.Time) string {
	d := due.Sub(now)
	past := d < 0
	if past {
		d = -d
	}

	var s string
	switch {
	case d < time.Hour:
		s = fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		s = fmt.Sprintf("%dh", int(d.Hours()))
	case d < 14*24*time.Hour:
		s = fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		s = fmt.Sprintf("%dw", int(d.Hours()/24/7))
	}
	if past {
		return s + " ago"
	}
	return "in " + s
}

// priorityLabel returns a one-letter label for the priority.
func priorityLabel(p model.Priority) string {
	if p == model.PriorityNone {
		return " "
	}
	return string(p)
}
