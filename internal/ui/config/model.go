// Package config is the urgency coefficient editor.
package config

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/keys"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/service"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/theme"
)

// ConfigMode represents the current state of the configuration view.
type ConfigMode int

const (
	ModeList         ConfigMode = iota // List coefficients
	ModeEdit                           // Edit one coefficient
	ModeConfirmReset                   // Confirm restoring defaults
)

// ConfigDoneMsg signals the config view should close and return to the main app.
type ConfigDoneMsg struct{}

// UrgencyChangedMsg signals that coefficients changed and urgencies were
// recomputed.
type UrgencyChangedMsg struct{}

// savedMsg is sent after a change is persisted.
type savedMsg struct {
	name string
	err  error
}

// coefficient is one editable row.
type coefficient struct {
	name  string
	value float64
	// tag is set for per-tag coefficients.
	tag bool
}

// Model is the Bubble Tea model for the urgency settings UI.
type Model struct {
	mode        ConfigMode
	svc         *service.Service
	rows        []coefficient
	selectedIdx int

	editForm    *huh.Form
	resetForm   *huh.Form
	formValue   *string
	formConfirm *bool

	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates a new configuration view model.
func New(svc *service.Service, k *keys.KeyMap, width, height int) Model {
	m := Model{
		mode:        ModeList,
		svc:         svc,
		keys:        k,
		formValue:   new(string),
		formConfirm: new(bool),
		width:       width,
		height:      height,
	}
	m.rows = rowsFor(svc.Config().Urgency)
	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// rowsFor lists the scalar coefficients in name order followed by the
// per-tag coefficients.
func rowsFor(cfg model.UrgencyConfig) []coefficient {
	var rows []coefficient
	for name, v := range cfg.Coefficients() {
		rows = append(rows, coefficient{name: name, value: v})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })

	var tags []coefficient
	for tag, v := range cfg.TagCoefficients {
		tags = append(tags, coefficient{name: tag, value: v, tag: true})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].name < tags[j].name })
	return append(rows, tags...)
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case savedMsg:
		m.mode = ModeList
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("%s saved, urgencies recomputed", msg.name)
		m.rows = rowsFor(m.svc.Config().Urgency)
		return m, func() tea.Msg { return UrgencyChangedMsg{} }

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m.updateActiveForm(msg)
}

// handleKeyMsg processes key messages based on the current mode.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeList:
		return m.handleListKeys(msg)
	case ModeEdit, ModeConfirmReset:
		return m.updateActiveForm(msg)
	}
	return m, nil
}

// handleListKeys processes key events in the coefficient list.
func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ConfigDoneMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.rows) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.rows)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.rows) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.rows) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select), msg.String() == "e":
		if len(m.rows) == 0 {
			return m, nil
		}
		row := m.rows[m.selectedIdx]
		*m.formValue = strconv.FormatFloat(row.value, 'f', -1, 64)
		m.editForm = m.buildEditForm(row)
		m.mode = ModeEdit
		return m, m.editForm.Init()

	case msg.String() == "R":
		*m.formConfirm = false
		m.resetForm = m.buildResetForm()
		m.mode = ModeConfirmReset
		return m, m.resetForm.Init()
	}
	return m, nil
}

func (m Model) buildEditForm(row coefficient) *huh.Form {
	title := row.name
	if row.tag {
		title = "tag " + row.name
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description("Coefficient weight; 0 disables the term.").
				Value(m.formValue).
				Validate(validateFloat),
		),
	).WithWidth(m.formWidth())
}

func (m Model) buildResetForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Restore default urgency coefficients?").
				Affirmative("Yes, reset").
				Negative("Cancel").
				Value(m.formConfirm),
		),
	).WithWidth(m.formWidth())
}

// updateActiveForm forwards a message to whichever form is open.
func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	var form **huh.Form
	switch m.mode {
	case ModeEdit:
		form = &m.editForm
	case ModeConfirmReset:
		form = &m.resetForm
	default:
		return m, nil
	}
	if *form == nil {
		return m, nil
	}

	mdl, cmd := (*form).Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		*form = f
	}

	switch (*form).State {
	case huh.StateCompleted:
		if m.mode == ModeConfirmReset {
			if !*m.formConfirm {
				m.mode = ModeList
				return m, nil
			}
			return m, m.reset()
		}
		return m, m.save(m.rows[m.selectedIdx], *m.formValue)
	case huh.StateAborted:
		m.mode = ModeList
		return m, nil
	}
	return m, cmd
}

func (m Model) save(row coefficient, raw string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return savedMsg{name: row.name, err: err}
		}
		ctx := context.Background()
		if row.tag {
			cfg, err := svc.Config().Urgency.WithTagCoefficient(row.name, v)
			if err != nil {
				return savedMsg{name: row.name, err: err}
			}
			return savedMsg{name: row.name, err: svc.SetUrgencyConfig(ctx, cfg)}
		}
		return savedMsg{name: row.name, err: svc.SetUrgencyCoefficient(ctx, row.name, v)}
	}
}

func (m Model) reset() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		err := svc.SetUrgencyConfig(context.Background(), model.DefaultUrgencyConfig())
		return savedMsg{name: "defaults", err: err}
	}
}

// View renders the configuration UI.
func (m Model) View() string {
	switch m.mode {
	case ModeEdit:
		return lipgloss.NewStyle().Padding(1, 2).Render(m.editForm.View())
	case ModeConfirmReset:
		return lipgloss.NewStyle().Padding(1, 2).Render(m.resetForm.View())
	}

	var b strings.Builder
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Urgency Coefficients"))
	b.WriteString("\n\n")

	gray := lipgloss.NewStyle().Foreground(theme.ColorGray)
	for i, row := range m.rows {
		name := row.name
		if row.tag {
			name = "+" + name
		}
		label := fmt.Sprintf("%-20s %8.2f", name, row.value)
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(gray.Render("enter edit | R reset defaults | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func validateFloat(s string) error {
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
		return fmt.Errorf("enter a number")
	}
	return nil
}
