package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Name string
	Args []string
}

// Known lists the palette commands with a short usage line.
var Known = [][2]string{
	{"add <mods>", "add a task, e.g. add pay rent due:eom +bills"},
	{"mod <id> <mods>", "modify a task"},
	{"annotate <id> <text>", "add an annotation"},
	{"denotate <id> <text>", "remove an annotation"},
	{"purge <id>", "remove a deleted task for good"},
	{"filter <expr>", "set the list filter"},
	{"preset <name>", "apply a saved filter"},
	{"save <name>", "save the current filter"},
	{"rename <name>", "rename your hero"},
	{"read", "mark all notifications read"},
	{"export <path>", "export tasks as Taskwarrior JSON"},
	{"quit", "exit"},
}

// Parse splits a palette line into a command. Aliases are resolved to their
// canonical names.
func Parse(line string) (CommandMsg, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return CommandMsg{}, false
	}
	name := strings.ToLower(fields[0])
	switch name {
	case "a":
		name = "add"
	case "m", "modify":
		name = "mod"
	case "ann":
		name = "annotate"
	case "f":
		name = "filter"
	case "q", "exit":
		name = "quit"
	}
	return CommandMsg{Name: name, Args: fields[1:]}, true
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			line := m.input.Value()
			m.input.Reset()
			if c, ok := Parse(line); ok {
				return m, func() tea.Msg {
					return c
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	usageStyle := lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(24)
	descStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	var rows []string
	for _, k := range Known {
		rows = append(rows, usageStyle.Render(k[0])+descStyle.Render(k[1]))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Command Palette"),
		m.input.View(),
		"",
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Prefill focuses the input with text already typed, for commands that
// need a task reference.
func (m *Model) Prefill(text string) tea.Cmd {
	m.input.SetValue(text)
	m.input.CursorEnd()
	return m.input.Focus()
}
