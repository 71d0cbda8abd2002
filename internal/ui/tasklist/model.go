package tasklist

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/filter"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/keys"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/service"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/theme"
)

// TasksLoadedMsg is sent when tasks have been loaded from the service.
type TasksLoadedMsg struct {
	Tasks []model.Task
	Err   error
}

// SelectedTaskMsg is sent when a user selects a task to view details.
type SelectedTaskMsg struct {
	UUID string
}

// Model is the main task list view component. Tasks are shown in urgency
// order and narrowed by a filter expression typed into the filter bar.
type Model struct {
	list        list.Model
	svc         *service.Service
	keys        *keys.KeyMap
	expr        string
	filterErr   string
	filterMode  bool
	filterInput textinput.Model
	width       int
	height      int
}

// New creates a new task list model.
func New(svc *service.Service, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	fi := textinput.New()
	fi.Placeholder = "project:home +urgent due.before:eow"
	fi.Prompt = "/ "
	fi.Width = width - 4

	return Model{
		list:        l,
		svc:         svc,
		keys:        k,
		filterInput: fi,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial set of tasks.
func (m Model) Init() tea.Cmd {
	return m.LoadTasks()
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TasksLoadedMsg:
		if msg.Err != nil {
			m.filterErr = msg.Err.Error()
			return m, nil
		}
		m.filterErr = ""
		items := make([]list.Item, len(msg.Tasks))
		for i, t := range msg.Tasks {
			items[i] = TaskItem{Task: t, Now: m.svc.Now()}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if m.filterMode {
			return m.handleFilterKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleFilterKeys processes key input while the filter bar is focused.
func (m Model) handleFilterKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filterMode = false
		m.filterInput.Blur()
		m.expr = strings.TrimSpace(m.filterInput.Value())
		return m, m.LoadTasks()

	case "esc":
		m.filterMode = false
		m.filterInput.Blur()
		m.filterInput.SetValue(m.expr)
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input outside the filter bar.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		t, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedTaskMsg{UUID: t.UUID}
		}

	case key.Matches(msg, m.keys.Filter):
		m.filterMode = true
		m.filterInput.SetValue(m.expr)
		m.filterInput.CursorEnd()
		return m, m.filterInput.Focus()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// SelectedTask returns the highlighted task.
func (m Model) SelectedTask() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

// Filtering reports whether the filter bar has focus, so that global keys
// are not intercepted while typing.
func (m Model) Filtering() bool {
	return m.filterMode
}

// Expression returns the active filter expression.
func (m Model) Expression() string {
	return m.expr
}

// SetExpression replaces the active filter expression and reloads.
func (m *Model) SetExpression(expr string) tea.Cmd {
	m.expr = strings.TrimSpace(expr)
	m.filterInput.SetValue(m.expr)
	return m.LoadTasks()
}

// View renders the task list view.
func (m Model) View() string {
	var bar string
	switch {
	case m.filterMode:
		bar = lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.filterInput.View())
	case m.filterErr != "":
		bar = theme.ErrorStyle.Padding(0, 1).Render(m.filterErr)
	case m.expr != "":
		bar = theme.LabelStyle.Padding(0, 1).Render("filter: " + m.expr)
	}

	body := m.list.View()
	if len(m.list.Items()) == 0 {
		body = m.renderEmptyState()
	}
	if bar == "" {
		return body
	}
	return lipgloss.JoinVertical(lipgloss.Left, bar, body)
}

// renderEmptyState shows guidance text when no tasks are available.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.expr != "" {
		return style.Render("No matching tasks.\nPress / to adjust the filter.")
	}
	return style.Render("No pending tasks.\n\nPress a to add one.")
}

// LoadTasks returns a tea.Cmd that lists tasks matching the current filter
// expression. Without an explicit status only pending tasks are shown.
func (m Model) LoadTasks() tea.Cmd {
	expr := m.expr
	svc := m.svc
	return func() tea.Msg {
		f, err := filter.ParseExpression(expr, svc.Now())
		if err != nil {
			return TasksLoadedMsg{Err: err}
		}
		tasks, err := svc.List(context.Background(), f.WithDefaultStatus(model.StatusPending))
		return TasksLoadedMsg{Tasks: tasks, Err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.filterInput.Width = width - 4
}
