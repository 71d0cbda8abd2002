package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/theme"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/urgency"
)

const dateLayout = "2006-01-02 15:04"

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Padding(0, 1)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorBorder)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// writeTasks prints tasks in the urgency report layout.
func writeTasks(w io.Writer, tasks []model.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No matches.")
		return
	}
	t := newTable("ID", "Age", "P", "Project", "Tags", "Due", "Description", "Urg")
	for _, task := range tasks {
		t.Row(
			ref(task),
			age(task.Entry, now),
			string(task.Priority),
			task.Project,
			strings.Join(task.Tags, " "),
			relative(task.Due, now),
			describe(task),
			fmt.Sprintf("%.2f", task.Urgency),
		)
	}
	fmt.Fprintln(w, t.String())
	fmt.Fprintf(w, "%d task(s)\n", len(tasks))
}

// writeInfo prints every attribute of t and the terms of its urgency.
func writeInfo(w io.Writer, t model.Task, terms []urgency.Term) {
	rows := newTable("Name", "Value")
	add := func(name, value string) {
		if value != "" {
			rows.Row(name, value)
		}
	}
	if t.ID > 0 {
		add("ID", fmt.Sprint(t.ID))
	}
	add("Description", t.Description)
	add("Status", string(t.Status))
	add("Project", t.Project)
	add("Priority", t.Priority.Label())
	add("Tags", strings.Join(t.Tags, " "))
	add("Depends", strings.Join(t.Depends, " "))
	add("UUID", t.UUID)
	add("Entered", formatTime(&t.Entry))
	add("Modified", formatTime(&t.Modified))
	add("Start", formatTime(t.Start))
	add("End", formatTime(t.End))
	add("Due", formatTime(t.Due))
	add("Wait", formatTime(t.Wait))
	add("Scheduled", formatTime(t.Scheduled))
	add("Until", formatTime(t.Until))
	add("Recur", t.Recur)
	add("Parent", t.Parent)
	add("Urgency", fmt.Sprintf("%.4f", t.Urgency))

	keys := make([]string, 0, len(t.UDAs))
	for k := range t.UDAs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(k, t.UDAs[k])
	}
	fmt.Fprintln(w, rows.String())

	for _, a := range t.Annotations {
		fmt.Fprintf(w, "  %s %s\n", a.Entry.Local().Format(dateLayout), a.Description)
	}

	if len(terms) == 0 {
		return
	}
	fmt.Fprintln(w)
	breakdown := newTable("Term", "Coefficient", "Factor", "Value")
	total := 0.0
	for _, term := range terms {
		breakdown.Row(term.Name,
			fmt.Sprintf("%.2f", term.Coefficient),
			fmt.Sprintf("%.4f", term.Factor),
			fmt.Sprintf("%.4f", term.Value))
		total += term.Value
	}
	breakdown.Row("total", "", "", fmt.Sprintf("%.4f", total))
	fmt.Fprintln(w, breakdown.String())
}

func ref(t model.Task) string {
	if t.ID > 0 {
		return fmt.Sprint(t.ID)
	}
	return short(t.UUID)
}

func short(uuid string) string {
	return uuid[:min(8, len(uuid))]
}

func describe(t model.Task) string {
	d := t.Description
	if n := len(t.Annotations); n > 0 {
		d += fmt.Sprintf(" [%d]", n)
	}
	return d
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Local().Format(dateLayout)
}

// age renders the time since entry in the largest whole unit.
func age(entry, now time.Time) string {
	return span(now.Sub(entry))
}

// relative renders a due date as a signed offset from now.
func relative(due *time.Time, now time.Time) string {
	if due == nil {
		return ""
	}
	d := due.Sub(now)
	if d < 0 {
		return "-" + span(-d)
	}
	return span(d)
}

func span(d time.Duration) string {
	switch {
	case d >= 365*24*time.Hour:
		return fmt.Sprintf("%dy", int(d.Hours()/24/365))
	case d >= 30*24*time.Hour:
		return fmt.Sprintf("%dmo", int(d.Hours()/24/30))
	case d >= 7*24*time.Hour:
		return fmt.Sprintf("%dw", int(d.Hours()/24/7))
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d >= time.Minute:
		return fmt.Sprintf("%dmin", int(d.Minutes()))
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}

// confirm asks a yes/no question on the terminal.
func confirm(question string) (bool, error) {
	ok := false
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}
