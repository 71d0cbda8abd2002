package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/keys"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/report"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/service"
	appsync "github.com/137-reciprocal/TaskGeek-sub001/internal/sync"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/ui"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/ui/command"
	configview "github.com/137-reciprocal/TaskGeek-sub001/internal/ui/config"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/ui/detail"
	helpview "github.com/137-reciprocal/TaskGeek-sub001/internal/ui/help"
	heroview "github.com/137-reciprocal/TaskGeek-sub001/internal/ui/hero"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/ui/inbox"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/ui/presets"
	reportview "github.com/137-reciprocal/TaskGeek-sub001/internal/ui/report"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/ui/taskform"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/ui/tasklist"
)

// unreadCountMsg carries the number of unread notifications to the UI.
type unreadCountMsg struct {
	count int
}

// heroLoadedMsg carries the hero profile for the header.
type heroLoadedMsg struct {
	hero model.Hero
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewConfig
	ViewHelp
	ViewCommand
	ViewTaskCreate
	ViewTaskEdit
	ViewHero
	ViewReports
	ViewPresets
	ViewInbox
)

// Model is the root Bubble Tea model that manages view routing, layout
// and access to the task service.
type Model struct {
	currentView  ViewState
	previousView ViewState
	frame        ui.Frame
	svc          *service.Service
	keys         *keys.KeyMap
	taskList     tasklist.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	configView   configview.Model
	taskForm     taskform.Model
	heroView     heroview.Model
	reportView   reportview.Model
	presetView   presets.Model
	inboxView    inbox.Model
	scheduler    *appsync.Scheduler
	ready        bool
	hero         model.Hero
	unreadCount  int
	statusMsg    string
}

// New creates a new root application model. The scheduler runs
// housekeeping in the background while the UI is open.
func New(svc *service.Service, scheduler *appsync.Scheduler) Model {
	km := keys.DefaultKeyMap()
	cfg := svc.Config()
	iv, err := report.ParseInterval(cfg.Display.DefaultReport)
	if err != nil {
		iv = report.Daily
	}

	return Model{
		currentView: ViewList,
		svc:         svc,
		keys:        km,
		taskList:    tasklist.New(svc, km, 80, 24),
		detail:      detail.New(svc, km, 80, 24),
		helpView:    helpview.New(km, 80, 24),
		commandView: command.New(80, 24),
		configView:  configview.New(svc, km, 80, 24),
		taskForm:    taskform.New(svc.Now, 80, 24),
		heroView:    heroview.New(svc, km, 80, 24),
		reportView:  reportview.New(svc, km, iv, 80, 24),
		presetView:  presets.New(svc, km, 80, 24),
		inboxView:   inbox.New(svc, km, 80, 24),
		scheduler:   scheduler,
	}
}

// Init returns the initial commands to load tasks and start housekeeping.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.taskList.Init(),
		m.loadHero(),
		m.fetchUnreadCount(),
		m.scheduler.Start(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.frame = ui.NewFrame(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.frame.Width
		contentHeight := m.frame.ContentHeight()
		m.taskList.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.configView.SetSize(contentWidth, contentHeight)
		m.taskForm.SetSize(contentWidth, contentHeight)
		m.heroView.SetSize(contentWidth, contentHeight)
		m.reportView.SetSize(contentWidth, contentHeight)
		m.presetView.SetSize(contentWidth, contentHeight)
		m.inboxView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.ResultMsg:
		cmds := []tea.Cmd{m.scheduler.WaitForNextResult()}
		if msg.Error != nil {
			m.statusMsg = "housekeeping failed: " + msg.Error.Error()
			return m, tea.Batch(cmds...)
		}
		m.unreadCount = msg.Result.Unread
		if msg.Result.Changed() {
			cmds = append(cmds, m.taskList.LoadTasks())
		}
		return m, tea.Batch(cmds...)

	case unreadCountMsg:
		m.unreadCount = msg.count
		return m, nil

	case heroLoadedMsg:
		m.hero = msg.hero
		return m, nil

	case actionResultMsg:
		return m, m.handleActionResult(msg)

	case tasklist.TasksLoadedMsg:
		var cmd tea.Cmd
		m.taskList, cmd = m.taskList.Update(msg)
		return m, cmd

	case tasklist.SelectedTaskMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetLoading(true)
		return m, m.detail.Load(msg.UUID)

	case detail.DetailLoadedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case taskform.TaskSubmittedMsg:
		m.currentView = m.previousView
		if msg.UUID == "" {
			return m, m.addTask(msg.Mod)
		}
		return m, m.modifyTask(msg.UUID, msg.Mod)

	case taskform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg)

	case configview.ConfigDoneMsg:
		m.currentView = ViewList
		return m, nil

	case configview.UrgencyChangedMsg:
		return m, m.taskList.LoadTasks()

	case heroview.CloseMsg, reportview.CloseMsg, presets.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case presets.AppliedMsg:
		m.currentView = ViewList
		m.statusMsg = fmt.Sprintf("preset %s applied", msg.Name)
		return m, m.taskList.SetExpression(msg.Expression)

	case inbox.CloseMsg:
		m.currentView = ViewList
		return m, m.fetchUnreadCount()

	case inbox.ChangedMsg:
		return m, m.fetchUnreadCount()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.scheduler.Stop()
			return m, tea.Quit
		}
		if m.capturesKeys() {
			break
		}
		if next, cmd, ok := m.handleGlobalKey(msg); ok {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// capturesKeys reports whether the active view has a text input or form
// that must receive every key.
func (m Model) capturesKeys() bool {
	switch m.currentView {
	case ViewList:
		return m.taskList.Filtering()
	case ViewDetail, ViewHelp:
		return false
	}
	return true
}

// handleGlobalKey processes the shortcuts available from the list and
// detail views.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		if m.currentView == ViewList {
			m.scheduler.Stop()
			return m, tea.Quit, true
		}

	case key.Matches(msg, k.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case m.currentView == ViewHelp:
		if key.Matches(msg, k.Back) {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, true

	case key.Matches(msg, k.Command):
		return m, m.openCommand(""), true

	case key.Matches(msg, k.Refresh):
		m.statusMsg = "running housekeeping..."
		return m, tea.Batch(m.scheduler.Trigger(), m.taskList.LoadTasks()), true

	case key.Matches(msg, k.Add):
		m.previousView = m.currentView
		m.currentView = ViewTaskCreate
		return m, m.taskForm.StartCreate(), true

	case key.Matches(msg, k.Hero):
		return m, m.switchTo(ViewHero, m.heroView.Init()), true

	case key.Matches(msg, k.Reports):
		return m, m.switchTo(ViewReports, m.reportView.Init()), true

	case key.Matches(msg, k.Settings):
		return m, m.switchTo(ViewConfig, m.configView.Init()), true

	case key.Matches(msg, k.Presets):
		return m, m.switchTo(ViewPresets, m.presetView.Init()), true

	case key.Matches(msg, k.Inbox):
		return m, m.switchTo(ViewInbox, m.inboxView.Init()), true
	}

	t, ok := m.selectedTask()
	if !ok {
		return m, nil, false
	}
	switch {
	case key.Matches(msg, k.Edit):
		m.previousView = m.currentView
		m.currentView = ViewTaskEdit
		return m, m.taskForm.StartEdit(t), true
	case key.Matches(msg, k.Done):
		return m, m.completeTask(t.UUID), true
	case key.Matches(msg, k.Delete):
		return m, m.deleteTask(t.UUID), true
	case key.Matches(msg, k.Start):
		return m, m.toggleStart(t), true
	case key.Matches(msg, k.Annotate):
		return m, m.openCommand(fmt.Sprintf("annotate %s ", taskRef(t))), true
	}
	return m, nil, false
}

func (m *Model) switchTo(v ViewState, cmd tea.Cmd) tea.Cmd {
	m.previousView = m.currentView
	m.currentView = v
	return cmd
}

func (m *Model) openCommand(prefill string) tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewCommand
	return m.commandView.Prefill(prefill)
}

// selectedTask returns the task the shortcuts act on.
func (m Model) selectedTask() (model.Task, bool) {
	switch m.currentView {
	case ViewList:
		return m.taskList.SelectedTask()
	case ViewDetail:
		return m.detail.Task()
	}
	return model.Task{}, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewConfig:
		m.configView, cmd = m.configView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
			m.currentView = m.previousView
			return m, nil
		}
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewTaskCreate, ViewTaskEdit:
		m.taskForm, cmd = m.taskForm.Update(msg)
	case ViewHero:
		m.heroView, cmd = m.heroView.Update(msg)
	case ViewReports:
		m.reportView, cmd = m.reportView.Update(msg)
	case ViewPresets:
		m.presetView, cmd = m.presetView.Update(msg)
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	}

	return m, cmd
}

// View renders the header, the active view and the status bar.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.frame.Header(m.unreadCount, m.heroStatus())
	statusBar := m.frame.StatusBar(m.keyHints(), m.statusMsg)
	return m.frame.Render(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.taskList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewConfig:
		return m.configView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewTaskCreate, ViewTaskEdit:
		return m.taskForm.View()
	case ViewHero:
		return m.heroView.View()
	case ViewReports:
		return m.reportView.View()
	case ViewPresets:
		return m.presetView.View()
	case ViewInbox:
		return m.inboxView.View()
	default:
		return ""
	}
}

// heroStatus returns the level and XP summary shown in the header.
func (m Model) heroStatus() string {
	if m.hero.Level == 0 {
		return ""
	}
	status := fmt.Sprintf("%s Lv %d %s %d XP",
		m.hero.Name, m.hero.Level,
		heroview.XPBar(m.hero, m.svc.Config().XP, 10),
		m.hero.XP,
	)
	if st := m.scheduler.Status(); st.State != appsync.RunIdle {
		status += " | " + st.State.String()
	}
	return status
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return "esc back | e edit | d done | s start/stop | n annotate | x delete"
	case ViewConfig:
		return "enter edit | R reset | esc back"
	case ViewTaskCreate, ViewTaskEdit:
		return "enter next | esc cancel"
	case ViewHero:
		return "esc back"
	case ViewReports:
		return "1-4 report | tab interval | ←/→ page | esc back"
	case ViewPresets:
		return "enter apply | n new | e edit | d delete | esc back"
	case ViewInbox:
		return "enter read | A all read | esc back"
	default:
		return "q quit | ? help | a add | d done | / filter | h hero | R reports"
	}
}

// loadHero returns a command that fetches the hero profile.
func (m Model) loadHero() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		h, err := svc.Hero(context.Background())
		if err != nil {
			return nil
		}
		return heroLoadedMsg{hero: h}
	}
}

// fetchUnreadCount returns a tea.Cmd that queries the number of unread
// notifications.
func (m Model) fetchUnreadCount() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		notes, err := svc.Notifications(context.Background(), true, 0)
		if err != nil {
			return unreadCountMsg{count: 0}
		}
		return unreadCountMsg{count: len(notes)}
	}
}

// taskRef returns the shortest reference the service resolves to t.
func taskRef(t model.Task) string {
	if t.ID > 0 {
		return strconv.Itoa(t.ID)
	}
	return t.UUID
}
