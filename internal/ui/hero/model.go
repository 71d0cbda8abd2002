// Package hero renders the character sheet: level, XP progress, ability
// scores, titles and recent XP awards.
package hero

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/keys"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/service"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/theme"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/xp"
)

// historyLimit is the number of recent awards listed on the sheet.
const historyLimit = 10

// CloseMsg signals the parent to close the hero sheet.
type CloseMsg struct{}

// LoadedMsg carries the hero and the recent XP history.
type LoadedMsg struct {
	Hero    model.Hero
	History []model.XpHistoryEntry
	Err     error
}

// Model is the hero sheet view.
type Model struct {
	svc      *service.Service
	keys     *keys.KeyMap
	hero     model.Hero
	history  []model.XpHistoryEntry
	err      error
	viewport viewport.Model
	width    int
	height   int
}

// New creates a new hero sheet model.
func New(svc *service.Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		svc:      svc,
		keys:     k,
		viewport: viewport.New(width, height-2),
		width:    width,
		height:   height,
	}
}

// Init loads the hero profile.
func (m Model) Init() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx := context.Background()
		h, err := svc.Hero(ctx)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		history, err := svc.XPHistory(ctx, historyLimit)
		return LoadedMsg{Hero: h, History: history, Err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.err = msg.Err
		m.hero = msg.Hero
		m.history = msg.History
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the hero sheet.
func (m Model) View() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(theme.ErrorStyle.Render(m.err.Error()))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(m.viewport.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 4
	m.viewport.Height = height - 4
	m.viewport.SetContent(m.renderContent())
}

func (m Model) renderContent() string {
	h := m.hero
	if h.Level == 0 {
		return ""
	}
	cfg := m.svc.Config().XP

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	headerStyle := titleStyle.MarginTop(1)
	gray := lipgloss.NewStyle().Foreground(theme.ColorGray)

	var sections []string
	sections = append(sections, titleStyle.Render(fmt.Sprintf("%s the %s", h.Name, h.Title)))
	sections = append(sections, fmt.Sprintf("Level %d  %s  %s",
		h.Level,
		XPBar(h, cfg, 30),
		gray.Render(fmt.Sprintf("%d / %d XP", h.XP, xp.ThresholdFor(h.Level, cfg))),
	))
	if next, at, ok := xp.NextLevelTitle(h.Level); ok {
		sections = append(sections, gray.Render(fmt.Sprintf("Next rank: %s at level %d", next, at)))
	}

	sections = append(sections, "",
		fmt.Sprintf("%s %d   %s %d / %d   %s %d",
			theme.LabelStyle.Render("Total XP"), h.TotalXP,
			gray.Render("Streak"), h.CurrentStreak, h.LongestStreak,
			gray.Render("Completed"), h.TasksCompleted,
		))

	sections = append(sections, headerStyle.Render("Abilities"))
	var stats []string
	for _, st := range model.AllStats {
		score := h.Stats.Get(st)
		stats = append(stats, fmt.Sprintf("%s %s",
			gray.Render(string(st)),
			theme.StatStyle(score).Render(fmt.Sprintf("%2d", score)),
		))
	}
	sections = append(sections, strings.Join(stats, "   "))

	sections = append(sections, headerStyle.Render("Titles"))
	for _, lt := range xp.LevelTitles {
		sections = append(sections, titleLine(h, lt.Title, fmt.Sprintf("reach level %d", lt.Level)))
	}
	for _, a := range xp.Achievements {
		sections = append(sections, titleLine(h, a.Title, a.Description))
	}

	if len(m.history) > 0 {
		sections = append(sections, headerStyle.Render("Recent XP"))
		for _, e := range m.history {
			line := fmt.Sprintf("%s %s %s",
				gray.Render(e.CreatedAt.Local().Format("Jan 02 15:04")),
				theme.XPBarFull.Render(fmt.Sprintf("+%-4d", e.Reward.Total)),
				e.Description,
			)
			if e.LevelAfter > e.LevelBefore {
				line += theme.XPBarFull.Render(fmt.Sprintf("  level %d!", e.LevelAfter))
			}
			sections = append(sections, line)
		}
	}

	sections = append(sections, "", gray.Render("esc back"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func titleLine(h model.Hero, title, how string) string {
	gray := lipgloss.NewStyle().Foreground(theme.ColorGray)
	if h.HasTitle(title) {
		mark := "✓"
		if h.Title == title {
			mark = "★"
		}
		return theme.XPBarFull.Render(mark+" "+title) + "  " + gray.Render(how)
	}
	return gray.Render("· " + title + "  " + how)
}

// XPBar renders the progress towards the next level as a fixed-width bar.
func XPBar(h model.Hero, cfg model.XPConfig, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(xp.Progress(h, cfg) * float64(width))
	if filled > width {
		filled = width
	}
	return theme.XPBarFull.Render(strings.Repeat("█", filled)) +
		theme.XPBarEmpty.Render(strings.Repeat("░", width-filled))
}
