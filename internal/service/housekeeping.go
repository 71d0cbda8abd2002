package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/dates"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/store"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/urgency"
)

// HousekeepResult counts what a housekeeping pass changed.
type HousekeepResult struct {
	Unwaited  int
	Expired   int
	Spawned   int
	Notified  int
	Rescored  int
	Unread    int
	Timestamp time.Time
}

// Changed reports whether the pass touched any task or notification.
func (r HousekeepResult) Changed() bool {
	return r.Unwaited+r.Expired+r.Spawned+r.Notified+r.Rescored > 0
}

// Housekeep runs the periodic maintenance pass: waiting tasks whose wait
// date passed become pending, tasks past their until date are deleted,
// recurring templates get their next instance, due-soon and overdue
// notifications are raised once per task and stored urgencies are
// refreshed.
func (s *Service) Housekeep(ctx context.Context) (HousekeepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	res := HousekeepResult{Timestamp: now}

	tasks, err := s.store.GetTasks(ctx, store.TaskQuery{})
	if err != nil {
		return res, err
	}

	for i := range tasks {
		t := &tasks[i]
		changed := false
		switch {
		case t.IsPending() && t.Until != nil && !t.Until.After(now):
			end := now
			t.Status = model.StatusDeleted
			t.End = &end
			t.Start = nil
			res.Expired++
			changed = true
		case t.Status == model.StatusWaiting && (t.Wait == nil || !t.Wait.After(now)):
			t.Status = model.StatusPending
			res.Unwaited++
			changed = true
		}
		if changed {
			t.Modified = now
			if err := s.store.UpdateTask(ctx, *t); err != nil {
				return res, fmt.Errorf("updating task %s: %w", t.UUID, err)
			}
		}
	}

	tasks, res.Spawned, err = s.generateRecurrences(ctx, tasks, now)
	if err != nil {
		return res, err
	}

	if res.Notified, err = s.notifyDue(ctx, tasks, now); err != nil {
		return res, err
	}

	if res.Rescored, err = s.persistUrgencies(ctx, now); err != nil {
		return res, err
	}

	unread, err := s.store.GetUnreadNotifications(ctx)
	if err != nil {
		return res, err
	}
	res.Unread = len(unread)
	return res, nil
}

// generateRecurrences creates the next instance of every recurring
// template that has no open instance. The returned slice includes the new
// instances.
func (s *Service) generateRecurrences(ctx context.Context, tasks []model.Task, now time.Time) ([]model.Task, int, error) {
	spawned := 0
	n := len(tasks)
	for i := 0; i < n; i++ {
		tmpl := tasks[i]
		if tmpl.Status != model.StatusRecurring || tmpl.Due == nil {
			continue
		}
		period, err := dates.ParsePeriod(tmpl.Recur)
		if err != nil {
			log.Printf("recurring task %s: %v", tmpl.UUID, err)
			continue
		}

		var latest *time.Time
		open := false
		for _, t := range tasks {
			if t.Parent != tmpl.UUID {
				continue
			}
			if t.IsPending() {
				open = true
				break
			}
			if t.Due != nil && (latest == nil || t.Due.After(*latest)) {
				latest = t.Due
			}
		}
		if open {
			continue
		}

		due := *tmpl.Due
		if latest != nil {
			due = period.Advance(*latest)
		}
		if tmpl.Until != nil && due.After(*tmpl.Until) {
			continue
		}

		inst := newInstance(tmpl, due, now)
		if err := s.store.CreateTask(ctx, inst); err != nil {
			return tasks, spawned, fmt.Errorf("creating instance of %s: %w", tmpl.UUID, err)
		}
		note := newNotification(inst.UUID, model.NotifyRecurrence,
			fmt.Sprintf("New occurrence of %q due %s", inst.Description, due.Format("2006-01-02")), now)
		if err := s.store.CreateNotification(ctx, note); err != nil {
			return tasks, spawned, err
		}
		tasks = append(tasks, inst)
		spawned++
	}
	return tasks, spawned, nil
}

func newInstance(tmpl model.Task, due, now time.Time) model.Task {
	inst := tmpl.Clone()
	inst.UUID = uuid.NewString()
	inst.ID = 0
	inst.Status = model.StatusPending
	inst.Parent = tmpl.UUID
	inst.Recur = ""
	inst.Entry = now
	inst.Modified = now
	inst.Start = nil
	inst.End = nil
	inst.Wait = nil
	inst.Until = nil
	inst.Annotations = nil
	inst.Urgency = 0
	inst.Due = &due
	return inst
}

// notifyDue raises one overdue and one due-soon notification per task.
func (s *Service) notifyDue(ctx context.Context, tasks []model.Task, now time.Time) (int, error) {
	window := time.Duration(s.cfg.Scheduler.DueSoonHours) * time.Hour
	created := 0
	for _, t := range tasks {
		if t.Status != model.StatusPending || t.Due == nil {
			continue
		}
		var (
			kind model.NotificationKind
			msg  string
		)
		switch {
		case t.Due.Before(now):
			kind = model.NotifyOverdue
			msg = fmt.Sprintf("%q is overdue", t.Description)
		case window > 0 && t.Due.Sub(now) <= window:
			kind = model.NotifyDueSoon
			msg = fmt.Sprintf("%q is due %s", t.Description, t.Due.Local().Format("Mon 15:04"))
		default:
			continue
		}

		exists, err := s.store.HasNotification(ctx, t.UUID, kind)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}
		if err := s.store.CreateNotification(ctx, newNotification(t.UUID, kind, msg, now)); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// persistUrgencies recomputes urgency across all tasks and stores the
// values that changed.
func (s *Service) persistUrgencies(ctx context.Context, now time.Time) (int, error) {
	tasks, err := s.store.GetTasks(ctx, store.TaskQuery{})
	if err != nil {
		return 0, err
	}
	stored := make(map[string]float64, len(tasks))
	for _, t := range tasks {
		stored[t.UUID] = t.Urgency
	}

	urgency.Recompute(tasks, s.cfg.Urgency, now)

	changed := make(map[string]float64)
	for _, t := range tasks {
		if stored[t.UUID] != t.Urgency {
			changed[t.UUID] = t.Urgency
		}
	}
	if len(changed) == 0 {
		return 0, nil
	}
	if err := s.store.SaveUrgencies(ctx, changed); err != nil {
		return 0, err
	}
	return len(changed), nil
}
