// Package taskform is the huh form used to add and edit tasks.
package taskform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/dates"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/service"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/theme"
)

// dateLayout renders existing dates back into the form.
const dateLayout = "2006-01-02 15:04"

// TaskSubmittedMsg is dispatched when the form is submitted. UUID is empty
// for new tasks.
type TaskSubmittedMsg struct {
	UUID string
	Mod  service.Modification
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	description string
	project     string
	priority    model.Priority
	tags        string
	due         string
	wait        string
	scheduled   string
	until       string
	recur       string
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	original *model.Task
	now      func() time.Time
	width    int
	height   int
}

// New creates a new task form model. now anchors relative dates.
func New(now func() time.Time, width, height int) Model {
	return Model{
		fb:     &formBindings{},
		now:    now,
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for a new task.
func (m *Model) StartCreate() tea.Cmd {
	m.original = nil
	*m.fb = formBindings{}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form with an existing task.
func (m *Model) StartEdit(t model.Task) tea.Cmd {
	orig := t.Clone()
	m.original = &orig
	*m.fb = bindingsFor(t)
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.original != nil {
		titleText = fmt.Sprintf("Edit Task %d", m.original.ID)
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	validDate := m.validateOptionalDate
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Description").
				Placeholder("What needs to be done?").
				Value(&m.fb.description).
				Validate(validateRequired("Description")),
			huh.NewInput().
				Title("Project").
				Placeholder("home.garden (optional)").
				Value(&m.fb.project),
			huh.NewSelect[model.Priority]().
				Title("Priority").
				Options(
					huh.NewOption("None", model.PriorityNone),
					huh.NewOption("H - High", model.PriorityHigh),
					huh.NewOption("M - Medium", model.PriorityMedium),
					huh.NewOption("L - Low", model.PriorityLow),
				).
				Value(&m.fb.priority),
			huh.NewInput().
				Title("Tags").
				Placeholder("space separated").
				Value(&m.fb.tags),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Due").
				Placeholder("tomorrow, fri, eow, 2024-06-01 ...").
				Value(&m.fb.due).
				Validate(validDate),
			huh.NewInput().
				Title("Wait").
				Placeholder("hidden until (optional)").
				Value(&m.fb.wait).
				Validate(validDate),
			huh.NewInput().
				Title("Scheduled").
				Placeholder("optional").
				Value(&m.fb.scheduled).
				Validate(validDate),
			huh.NewInput().
				Title("Until").
				Placeholder("expires (optional)").
				Value(&m.fb.until).
				Validate(validDate),
			huh.NewInput().
				Title("Recur").
				Placeholder("daily, weekly, 2w, monthly ...").
				Value(&m.fb.recur).
				Validate(validateOptionalPeriod),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	mod, err := buildModification(*m.fb, m.original, m.now())
	if err != nil {
		return func() tea.Msg { return CancelMsg{} }
	}
	uuid := ""
	if m.original != nil {
		uuid = m.original.UUID
	}
	return func() tea.Msg { return TaskSubmittedMsg{UUID: uuid, Mod: mod} }
}

func bindingsFor(t model.Task) formBindings {
	return formBindings{
		description: t.Description,
		project:     t.Project,
		priority:    t.Priority,
		tags:        strings.Join(t.Tags, " "),
		due:         formatDate(t.Due),
		wait:        formatDate(t.Wait),
		scheduled:   formatDate(t.Scheduled),
		until:       formatDate(t.Until),
		recur:       t.Recur,
	}
}

// buildModification turns the form values into a modification. When
// editing, only fields that differ from the original are included.
func buildModification(fb formBindings, orig *model.Task, now time.Time) (service.Modification, error) {
	var mod service.Modification
	var base model.Task
	if orig != nil {
		base = *orig
	}

	desc := strings.TrimSpace(fb.description)
	if desc != base.Description {
		mod.Description = desc
	}
	if p := strings.TrimSpace(fb.project); p != base.Project {
		mod.Project = &p
	}
	if fb.priority != base.Priority {
		p := fb.priority
		mod.Priority = &p
	}

	tags := model.NormalizeTags(strings.Fields(fb.tags))
	for _, tag := range tags {
		if !base.HasTag(tag) {
			mod.AddTags = append(mod.AddTags, tag)
		}
	}
	for _, tag := range base.Tags {
		if !containsTag(tags, tag) {
			mod.RemoveTags = append(mod.RemoveTags, tag)
		}
	}

	for _, d := range []struct {
		attr  string
		value string
		old   *time.Time
	}{
		{service.AttrDue, fb.due, base.Due},
		{service.AttrWait, fb.wait, base.Wait},
		{service.AttrScheduled, fb.scheduled, base.Scheduled},
		{service.AttrUntil, fb.until, base.Until},
	} {
		value := strings.TrimSpace(d.value)
		if value == formatDate(d.old) {
			continue
		}
		if value == "" {
			mod.SetDate(d.attr, nil)
			continue
		}
		t, err := dates.Parse(value, now)
		if err != nil {
			return service.Modification{}, err
		}
		mod.SetDate(d.attr, &t)
	}

	if r := strings.TrimSpace(fb.recur); r != base.Recur {
		mod.Recur = &r
	}
	return mod, nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(dateLayout)
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

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func (m Model) validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := dates.Parse(s, m.now()); err != nil {
		return fmt.Errorf("unrecognised date %q", s)
	}
	return nil
}

func validateOptionalPeriod(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := dates.ParsePeriod(s); err != nil {
		return fmt.Errorf("unrecognised period %q", s)
	}
	return nil
}
