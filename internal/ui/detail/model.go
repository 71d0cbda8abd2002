package detail

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/keys"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/service"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/theme"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/urgency"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// DetailLoadedMsg carries the loaded task and its urgency terms.
type DetailLoadedMsg struct {
	Task  model.Task
	Terms []urgency.Term
	Err   error
}

// Model is the task detail view component.
type Model struct {
	task     *model.Task
	terms    []urgency.Term
	err      error
	viewport viewport.Model
	svc      *service.Service
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(svc *service.Service, keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		svc:      svc,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Load returns a command that fetches the task with its urgency breakdown.
func (m Model) Load(uuid string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		t, terms, err := svc.UrgencyBreakdown(context.Background(), uuid)
		return DetailLoadedMsg{Task: t, Terms: terms, Err: err}
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			t := msg.Task
			m.task = &t
			m.terms = msg.Terms
		}
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg {
				return BackMsg{}
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Task returns the displayed task.
func (m Model) Task() (model.Task, bool) {
	if m.task == nil {
		return model.Task{}, false
	}
	return *m.task, true
}

// View renders the detail view.
func (m Model) View() string {
	center := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.loading:
		return center.Render("Loading task details...")
	case m.err != nil:
		return center.Render(theme.ErrorStyle.Render(m.err.Error()))
	case m.task == nil:
		return center.Render("No task selected")
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}

	t := m.task
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(t.Description))

	statusBadge := theme.StatusStyle(t.Status).Render(string(t.Status))
	priBadge := theme.PriorityStyle(t.Priority).Render(t.Priority.Label())
	urgBadge := theme.UrgencyStyle(t.Urgency).Render(fmt.Sprintf("urgency %.2f", t.Urgency))
	sections = append(sections, lipgloss.JoinHorizontal(
		lipgloss.Top, statusBadge, "  ", priBadge, "  ", urgBadge,
	))
	sections = append(sections, "")

	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	field := func(label, value string) {
		if value == "" {
			return
		}
		sections = append(sections, theme.LabelStyle.Render(label)+valStyle.Render(value))
	}

	if t.ID > 0 {
		field("ID", fmt.Sprint(t.ID))
	}
	field("UUID", t.UUID)
	field("Project", t.Project)
	if len(t.Tags) > 0 {
		field("Tags", "+"+strings.Join(t.Tags, " +"))
	}
	if len(t.Depends) > 0 {
		short := make([]string, len(t.Depends))
		for i, d := range t.Depends {
			short[i] = d[:min(8, len(d))]
		}
		field("Depends", strings.Join(short, ", "))
	}
	field("Entered", formatTime(&t.Entry))
	field("Modified", formatTime(&t.Modified))
	field("Started", formatTime(t.Start))
	field("Ended", formatTime(t.End))
	field("Due", formatTime(t.Due))
	field("Wait", formatTime(t.Wait))
	field("Scheduled", formatTime(t.Scheduled))
	field("Until", formatTime(t.Until))
	field("Recur", t.Recur)
	if t.Parent != "" {
		field("Parent", t.Parent[:min(8, len(t.Parent))])
	}
	udaNames := make([]string, 0, len(t.UDAs))
	for k := range t.UDAs {
		udaNames = append(udaNames, k)
	}
	sort.Strings(udaNames)
	for _, k := range udaNames {
		field(k, t.UDAs[k])
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)

	if len(m.terms) > 0 {
		sections = append(sections, "", separator, "", headerStyle.Render("Urgency"), "")
		numStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		for _, term := range m.terms {
			sections = append(sections, fmt.Sprintf("%-22s %s %s = %s",
				term.Name,
				numStyle.Render(fmt.Sprintf("%7.2f", term.Coefficient)),
				numStyle.Render(fmt.Sprintf("* %6.4f", term.Factor)),
				theme.UrgencyStyle(term.Value).Render(fmt.Sprintf("%7.4f", term.Value)),
			))
		}
		sections = append(sections, fmt.Sprintf("%-22s %s", "",
			theme.UrgencyStyle(t.Urgency).Render(fmt.Sprintf("%26.4f", t.Urgency))))
	}

	if len(t.Annotations) > 0 {
		sections = append(sections, "", separator, "")
		sections = append(sections, headerStyle.Render(
			fmt.Sprintf("Annotations (%d)", len(t.Annotations)),
		))
		sections = append(sections, "")
		timeStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		for _, a := range t.Annotations {
			sections = append(sections, timeStyle.Render(a.Entry.Local().Format("2006-01-02 15:04"))+"  "+a.Description)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}
