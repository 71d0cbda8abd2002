package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/keys"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/theme"
)

// filterHelp lists the filter bar syntax.
var filterHelp = [][2]string{
	{"project:home", "project and its sub-projects"},
	{"+tag / -tag", "has / lacks tag"},
	{"tags.any:a,b", "has any of the tags"},
	{"status:pending", "status (defaults to pending)"},
	{"pri:H,M", "any of the priorities"},
	{"due.before:eow", "due before a date"},
	{"urgency.over:5", "urgency at least 5"},
	{"+OVERDUE +BLOCKED +ACTIVE", "virtual tags"},
	{"3,5-7 or 8f2e1c0a", "ids or UUID prefixes"},
	{"other words", "search description and annotations"},
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	termStyle := lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(28)
	descStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	rows := []string{"", titleStyle.Render("Filter Syntax")}
	for _, r := range filterHelp {
		rows = append(rows, termStyle.Render(r[0])+descStyle.Render(r[1]))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
