// Package presets manages the saved filter presets from the TUI.
package presets

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/filter"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/keys"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/service"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/theme"
)

// CloseMsg signals the parent to close the preset view.
type CloseMsg struct{}

// AppliedMsg asks the parent to load the preset's expression into the task
// list filter.
type AppliedMsg struct {
	Name       string
	Expression string
}

type presetMode int

const (
	modeList presetMode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	name       string
	expression string
	confirm    bool
}

type presetsLoadedMsg struct {
	presets []model.FilterPreset
	err     error
}

type presetSavedMsg struct{ err error }
type presetDeletedMsg struct{ err error }

// Model is the Bubble Tea model for preset management.
type Model struct {
	mode        presetMode
	svc         *service.Service
	keys        *keys.KeyMap
	presets     []model.FilterPreset
	selectedIdx int
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new preset manager model.
func New(svc *service.Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeList,
		svc:   svc,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Init loads presets from the store.
func (m Model) Init() tea.Cmd {
	return m.loadPresets()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case presetsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		}
		m.presets = msg.presets
		if m.selectedIdx >= len(m.presets) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.presets) - 1
		}
		return m, nil

	case presetSavedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Preset saved"
		}
		m.mode = modeList
		return m, m.loadPresets()

	case presetDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Preset deleted"
		}
		m.mode = modeList
		return m, m.loadPresets()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		return m.handleListKey(msg)
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.presets) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.presets)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.presets) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.presets) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if len(m.presets) == 0 {
			return m, nil
		}
		p := m.presets[m.selectedIdx]
		return m, func() tea.Msg {
			return AppliedMsg{Name: p.Name, Expression: p.Expression}
		}

	case msg.String() == "n":
		m.fb.name = ""
		m.fb.expression = ""
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case msg.String() == "e":
		if len(m.presets) == 0 {
			return m, nil
		}
		p := m.presets[m.selectedIdx]
		m.fb.name = p.Name
		m.fb.expression = p.Expression
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case msg.String() == "d":
		if len(m.presets) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	now := m.svc.Now
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("work").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Filter").
				Placeholder("project:work +OVERDUE").
				Value(&m.fb.expression).
				Validate(func(s string) error {
					_, err := filter.ParseExpression(s, now())
					return err
				}),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	name := ""
	if m.selectedIdx < len(m.presets) {
		name = m.presets[m.selectedIdx].Name
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete preset %q?", name)).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		return m, m.savePreset()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		if m.fb.confirm && m.selectedIdx < len(m.presets) {
			return m, m.deletePreset(m.presets[m.selectedIdx].Name)
		}
		m.mode = modeList
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

// View renders the preset manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Filter Presets"))
	b.WriteString("\n\n")

	if len(m.presets) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No presets yet. Press 'n' to create one."))
	} else {
		exprStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		for i, p := range m.presets {
			label := fmt.Sprintf("%-16s %s", p.Name, exprStyle.Render(p.Expression))
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
		"enter apply | n new | e edit | d delete | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func (m Model) loadPresets() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		presets, err := svc.Presets(context.Background())
		return presetsLoadedMsg{presets: presets, err: err}
	}
}

func (m Model) savePreset() tea.Cmd {
	svc := m.svc
	name := strings.TrimSpace(m.fb.name)
	expr := strings.TrimSpace(m.fb.expression)
	return func() tea.Msg {
		return presetSavedMsg{err: svc.SavePreset(context.Background(), name, expr)}
	}
}

func (m Model) deletePreset(name string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return presetDeletedMsg{err: svc.DeletePreset(context.Background(), name)}
	}
}
