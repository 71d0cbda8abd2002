package app

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/export"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/service"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/store"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/ui/command"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/ui/presets"
)

// actionResultMsg is sent after a task action completes. uuid names the
// task to refresh in the detail view.
type actionResultMsg struct {
	status string
	uuid   string
	err    error
}

// handleActionResult shows the outcome and refreshes every view that
// depends on task or hero state.
func (m *Model) handleActionResult(msg actionResultMsg) tea.Cmd {
	if msg.err != nil {
		m.statusMsg = "error: " + msg.err.Error()
		return nil
	}
	m.statusMsg = msg.status
	cmds := []tea.Cmd{m.taskList.LoadTasks(), m.loadHero(), m.fetchUnreadCount()}
	if m.currentView == ViewDetail && msg.uuid != "" {
		cmds = append(cmds, m.detail.Load(msg.uuid))
	}
	return tea.Batch(cmds...)
}

// taskAction runs fn in the background and reports its status line.
func (m *Model) taskAction(fn func(ctx context.Context, svc *service.Service) (string, string, error)) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		status, uuid, err := fn(context.Background(), svc)
		return actionResultMsg{status: status, uuid: uuid, err: err}
	}
}

func (m *Model) addTask(mod service.Modification) tea.Cmd {
	return m.taskAction(func(ctx context.Context, svc *service.Service) (string, string, error) {
		t, err := svc.Add(ctx, mod)
		if err != nil {
			return "", "", err
		}
		if t.ID > 0 {
			return fmt.Sprintf("Created task %d", t.ID), t.UUID, nil
		}
		return fmt.Sprintf("Created %s task", t.Status), t.UUID, nil
	})
}

func (m *Model) modifyTask(ref string, mod service.Modification) tea.Cmd {
	if mod.IsZero() {
		m.statusMsg = "no changes"
		return nil
	}
	return m.taskAction(func(ctx context.Context, svc *service.Service) (string, string, error) {
		t, err := svc.Modify(ctx, ref, mod)
		if err != nil {
			return "", "", err
		}
		return fmt.Sprintf("Modified %q", t.Description), t.UUID, nil
	})
}

func (m *Model) completeTask(ref string) tea.Cmd {
	return m.taskAction(func(ctx context.Context, svc *service.Service) (string, string, error) {
		res, err := svc.Complete(ctx, ref)
		if err != nil {
			return "", "", err
		}
		return completionStatus(res), res.Task.UUID, nil
	})
}

// completionStatus summarizes the XP award and any level-up.
func completionStatus(res service.CompletionResult) string {
	status := fmt.Sprintf("Completed %q +%d XP", res.Task.Description, res.Reward.Total)
	if res.LevelUp.LevelsGained > 0 {
		status += fmt.Sprintf(" | LEVEL UP! %d → %d", res.LevelUp.From, res.LevelUp.To)
	}
	if len(res.LevelUp.Titles) > 0 {
		status += " | title unlocked: " + strings.Join(res.LevelUp.Titles, ", ")
	}
	return status
}

func (m *Model) deleteTask(ref string) tea.Cmd {
	return m.taskAction(func(ctx context.Context, svc *service.Service) (string, string, error) {
		t, err := svc.Delete(ctx, ref)
		if err != nil {
			return "", "", err
		}
		return fmt.Sprintf("Deleted %q", t.Description), t.UUID, nil
	})
}

func (m *Model) toggleStart(t model.Task) tea.Cmd {
	return m.taskAction(func(ctx context.Context, svc *service.Service) (string, string, error) {
		if t.IsActive() {
			if _, err := svc.Stop(ctx, t.UUID); err != nil {
				return "", "", err
			}
			return fmt.Sprintf("Stopped %q", t.Description), t.UUID, nil
		}
		if _, err := svc.Start(ctx, t.UUID); err != nil {
			return "", "", err
		}
		return fmt.Sprintf("Started %q", t.Description), t.UUID, nil
	})
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	now := m.svc.Now()
	need := func(n int, usage string) bool {
		if len(c.Args) < n {
			m.statusMsg = "usage: " + usage
			return false
		}
		return true
	}

	switch c.Name {
	case "quit":
		m.scheduler.Stop()
		return tea.Quit

	case "add":
		mod, err := service.ParseModification(c.Args, now)
		if err != nil {
			m.statusMsg = "error: " + err.Error()
			return nil
		}
		return m.addTask(mod)

	case "mod":
		if !need(2, "mod <id> <modifications>") {
			return nil
		}
		mod, err := service.ParseModification(c.Args[1:], now)
		if err != nil {
			m.statusMsg = "error: " + err.Error()
			return nil
		}
		return m.modifyTask(c.Args[0], mod)

	case "annotate", "denotate":
		if !need(2, c.Name+" <id> <text>") {
			return nil
		}
		ref, text := c.Args[0], strings.Join(c.Args[1:], " ")
		denotate := c.Name == "denotate"
		return m.taskAction(func(ctx context.Context, svc *service.Service) (string, string, error) {
			var (
				t   model.Task
				err error
			)
			if denotate {
				t, err = svc.Denotate(ctx, ref, text)
			} else {
				t, err = svc.Annotate(ctx, ref, text)
			}
			if err != nil {
				return "", "", err
			}
			return fmt.Sprintf("%d annotation(s) on %q", len(t.Annotations), t.Description), t.UUID, nil
		})

	case "purge":
		if !need(1, "purge <id>") {
			return nil
		}
		ref := c.Args[0]
		return m.taskAction(func(ctx context.Context, svc *service.Service) (string, string, error) {
			return "Purged " + ref, "", svc.Purge(ctx, ref)
		})

	case "filter":
		m.currentView = ViewList
		return m.taskList.SetExpression(strings.Join(c.Args, " "))

	case "preset":
		if !need(1, "preset <name>") {
			return nil
		}
		name := c.Args[0]
		svc := m.svc
		return func() tea.Msg {
			list, err := svc.Presets(context.Background())
			if err != nil {
				return actionResultMsg{err: err}
			}
			for _, p := range list {
				if p.Name == name {
					return presets.AppliedMsg{Name: p.Name, Expression: p.Expression}
				}
			}
			return actionResultMsg{err: fmt.Errorf("no preset named %q", name)}
		}

	case "save":
		if !need(1, "save <name>") {
			return nil
		}
		name, expr := c.Args[0], m.taskList.Expression()
		return m.taskAction(func(ctx context.Context, svc *service.Service) (string, string, error) {
			return fmt.Sprintf("Saved preset %s", name), "", svc.SavePreset(ctx, name, expr)
		})

	case "rename":
		if !need(1, "rename <name>") {
			return nil
		}
		name := strings.Join(c.Args, " ")
		return m.taskAction(func(ctx context.Context, svc *service.Service) (string, string, error) {
			h, err := svc.RenameHero(ctx, name)
			if err != nil {
				return "", "", err
			}
			return "Your hero is now " + h.Name, "", nil
		})

	case "read":
		return m.taskAction(func(ctx context.Context, svc *service.Service) (string, string, error) {
			return "All notifications read", "", svc.MarkRead(ctx, "")
		})

	case "export":
		if !need(1, "export <path>") {
			return nil
		}
		path := c.Args[0]
		return m.taskAction(func(ctx context.Context, svc *service.Service) (string, string, error) {
			tasks, err := svc.Store().GetTasks(ctx, store.TaskQuery{})
			if err != nil {
				return "", "", err
			}
			if err := export.ToJSON(tasks, path); err != nil {
				return "", "", err
			}
			return fmt.Sprintf("Exported %d tasks to %s", len(tasks), path), "", nil
		})
	}

	m.statusMsg = fmt.Sprintf("unknown command %q", c.Name)
	return nil
}
