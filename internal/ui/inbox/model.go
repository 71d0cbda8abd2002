// Package inbox lists stored notifications and marks them read.
package inbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/keys"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/service"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/theme"
)

// listLimit caps how many notifications are shown.
const listLimit = 100

// CloseMsg signals the parent to close the notification view.
type CloseMsg struct{}

// ChangedMsg signals that read state changed, so unread counts must be
// refreshed.
type ChangedMsg struct{}

type loadedMsg struct {
	notes []model.Notification
	err   error
}

type markedMsg struct{ err error }

// Model is the Bubble Tea model for the notification list.
type Model struct {
	svc         *service.Service
	keys        *keys.KeyMap
	notes       []model.Notification
	selectedIdx int
	statusMsg   string
	width       int
	height      int
}

// New creates a new notification list model.
func New(svc *service.Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		svc:   svc,
		keys:  k,
		width: width, height: height,
	}
}

// Init loads notifications.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		}
		m.notes = msg.notes
		if m.selectedIdx >= len(m.notes) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.notes) - 1
		}
		return m, nil

	case markedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		}
		return m, tea.Batch(m.load(), func() tea.Msg { return ChangedMsg{} })

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.notes) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.notes)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.notes) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.notes) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if len(m.notes) == 0 || m.notes[m.selectedIdx].Read {
			return m, nil
		}
		return m, m.markRead(m.notes[m.selectedIdx].ID)

	case msg.String() == "A":
		return m, m.markRead("")
	}
	return m, nil
}

// View renders the notification list.
func (m Model) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Notifications"))
	b.WriteString("\n\n")

	if len(m.notes) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("Nothing to report."))
	} else {
		timeStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		for i, n := range m.notes {
			mark := "●"
			if n.Read {
				mark = " "
			}
			label := fmt.Sprintf("%s %s %s %s",
				kindStyle(n.Kind).Render(mark),
				timeStyle.Render(n.CreatedAt.Local().Format("Jan 02 15:04")),
				kindStyle(n.Kind).Render(fmt.Sprintf("%-14s", n.Kind)),
				n.Message,
			)
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"enter mark read | A mark all read | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func kindStyle(k model.NotificationKind) lipgloss.Style {
	switch k {
	case model.NotifyOverdue:
		return lipgloss.NewStyle().Foreground(theme.ColorRed)
	case model.NotifyDueSoon:
		return lipgloss.NewStyle().Foreground(theme.ColorYellow)
	case model.NotifyLevelUp, model.NotifyTitleUnlocked:
		return lipgloss.NewStyle().Foreground(theme.ColorGreen)
	}
	return lipgloss.NewStyle().Foreground(theme.ColorBlue)
}

func (m Model) load() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		notes, err := svc.Notifications(context.Background(), false, listLimit)
		return loadedMsg{notes: notes, err: err}
	}
}

func (m Model) markRead(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return markedMsg{err: svc.MarkRead(context.Background(), id)}
	}
}
