package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/filter"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/urgency"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/xp"
)

// ErrDeleted is returned when an operation targets a deleted task.
var ErrDeleted = errors.New("task is deleted")

// CompletionResult describes what completing a task changed.
type CompletionResult struct {
	Task    model.Task
	Reward  model.XpReward
	LevelUp xp.LevelUp
	Hero    model.Hero
}

// Add creates a task from a modification. A wait date in the future makes
// the task waiting; a recurrence turns it into a template whose first
// instance is generated immediately.
func (s *Service) Add(ctx context.Context, mod Modification) (model.Task, error) {
	if strings.TrimSpace(mod.Description) == "" {
		return model.Task{}, fmt.Errorf("%w: description must not be empty", model.ErrInvalidTask)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	tasks, err := s.loadAll(ctx, now)
	if err != nil {
		return model.Task{}, err
	}

	t := model.Task{
		UUID:     uuid.NewString(),
		Status:   model.StatusPending,
		Entry:    now,
		Modified: now,
	}
	addDeps, removeDeps, err := resolveDepends(tasks, mod)
	if err != nil {
		return model.Task{}, err
	}
	applyModification(&t, mod, addDeps, removeDeps)
	settleStatus(&t, now)

	if err := checkCycle(tasks, t); err != nil {
		return model.Task{}, err
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return model.Task{}, err
	}

	if t.Status == model.StatusRecurring {
		tasks = append(tasks, t)
		if _, _, err := s.generateRecurrences(ctx, tasks, now); err != nil {
			return model.Task{}, err
		}
	}
	return s.reload(ctx, t.UUID, now)
}

// Modify applies mod to the task ref points to.
func (s *Service) Modify(ctx context.Context, ref string, mod Modification) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	tasks, err := s.loadAll(ctx, now)
	if err != nil {
		return model.Task{}, err
	}
	i, err := resolve(tasks, ref)
	if err != nil {
		return model.Task{}, err
	}
	if tasks[i].Status == model.StatusDeleted {
		return model.Task{}, fmt.Errorf("task %s: %w", tasks[i].UUID, ErrDeleted)
	}

	t := tasks[i].Clone()
	addDeps, removeDeps, err := resolveDepends(tasks, mod)
	if err != nil {
		return model.Task{}, err
	}
	applyModification(&t, mod, addDeps, removeDeps)
	settleStatus(&t, now)
	t.Modified = now

	if err := checkCycle(tasks, t); err != nil {
		return model.Task{}, err
	}
	if err := t.Validate(); err != nil {
		return model.Task{}, err
	}
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return model.Task{}, err
	}
	if t.Status == model.StatusRecurring {
		tasks[i] = t
		if _, _, err := s.generateRecurrences(ctx, tasks, now); err != nil {
			return model.Task{}, err
		}
	}
	return s.reload(ctx, t.UUID, now)
}

// Complete marks a pending task done, awards XP to the hero and records
// the award. The task, hero, history entry and notifications are written
// in one transaction.
func (s *Service) Complete(ctx context.Context, ref string) (CompletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	tasks, err := s.loadAll(ctx, now)
	if err != nil {
		return CompletionResult{}, err
	}
	i, err := resolve(tasks, ref)
	if err != nil {
		return CompletionResult{}, err
	}
	if !tasks[i].IsPending() {
		return CompletionResult{}, fmt.Errorf("task %s: %w", tasks[i].UUID, ErrNotPending)
	}

	hero, err := s.hero(ctx)
	if err != nil {
		return CompletionResult{}, err
	}

	// Urgency is frozen at completion time and feeds the reward.
	t := tasks[i].Clone()
	end := now
	t.End = &end
	reward := xp.Reward(t, hero, s.cfg.XP, now)
	next, up := xp.Apply(hero, reward, t, s.cfg.XP, now)

	t.Status = model.StatusCompleted
	t.Start = nil
	t.Modified = now
	t.Urgency = 0

	entry := model.XpHistoryEntry{
		ID:          uuid.NewString(),
		TaskUUID:    t.UUID,
		Description: t.Description,
		Reward:      reward,
		LevelBefore: up.From,
		LevelAfter:  up.To,
		CreatedAt:   now,
	}

	var notes []model.Notification
	if up.LevelsGained > 0 {
		notes = append(notes, newNotification("", model.NotifyLevelUp,
			fmt.Sprintf("Level up! %s reached level %d (%s)", next.Name, next.Level, next.Title), now))
	}
	for _, title := range up.Titles {
		notes = append(notes, newNotification("", model.NotifyTitleUnlocked,
			fmt.Sprintf("Title unlocked: %s", title), now))
	}

	if err := s.store.CompleteTask(ctx, t, next, entry, notes); err != nil {
		return CompletionResult{}, err
	}

	if t.Parent != "" {
		tasks[i] = t
		if _, _, err := s.generateRecurrences(ctx, tasks, now); err != nil {
			return CompletionResult{}, err
		}
	}

	return CompletionResult{Task: t, Reward: reward, LevelUp: up, Hero: next}, nil
}

// Delete marks a task deleted. Deleted tasks stay in the database until
// purged.
func (s *Service) Delete(ctx context.Context, ref string) (model.Task, error) {
	return s.update(ctx, ref, func(t *model.Task, now time.Time) error {
		if t.Status == model.StatusDeleted {
			return fmt.Errorf("task %s: %w", t.UUID, ErrDeleted)
		}
		end := now
		t.Status = model.StatusDeleted
		t.End = &end
		t.Start = nil
		t.Urgency = 0
		return nil
	})
}

// Purge removes a deleted task permanently and drops it from the
// dependency lists of other tasks.
func (s *Service) Purge(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	tasks, err := s.loadAll(ctx, now)
	if err != nil {
		return err
	}
	i, err := resolve(tasks, ref)
	if err != nil {
		return err
	}
	target := tasks[i]
	if target.Status != model.StatusDeleted {
		return fmt.Errorf("task %s: %w", target.UUID, ErrNotDeleted)
	}

	for _, t := range tasks {
		if !t.DependsOn(target.UUID) {
			continue
		}
		c := t.Clone()
		applyModification(&c, Modification{}, nil, []string{target.UUID})
		c.Modified = now
		if err := s.store.UpdateTask(ctx, c); err != nil {
			return err
		}
	}
	return s.store.DeleteTask(ctx, target.UUID)
}

// Start marks a pending task active.
func (s *Service) Start(ctx context.Context, ref string) (model.Task, error) {
	return s.update(ctx, ref, func(t *model.Task, now time.Time) error {
		if !t.IsPending() {
			return fmt.Errorf("task %s: %w", t.UUID, ErrNotPending)
		}
		if t.Start == nil {
			start := now
			t.Start = &start
		}
		return nil
	})
}

// Stop clears the start time of an active task.
func (s *Service) Stop(ctx context.Context, ref string) (model.Task, error) {
	return s.update(ctx, ref, func(t *model.Task, _ time.Time) error {
		if !t.IsPending() {
			return fmt.Errorf("task %s: %w", t.UUID, ErrNotPending)
		}
		t.Start = nil
		return nil
	})
}

// Annotate appends a timestamped note.
func (s *Service) Annotate(ctx context.Context, ref, text string) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, fmt.Errorf("%w: annotation must not be empty", model.ErrInvalidTask)
	}
	return s.update(ctx, ref, func(t *model.Task, now time.Time) error {
		t.Annotations = append(t.Annotations, model.Annotation{Entry: now, Description: text})
		return nil
	})
}

// Denotate removes the first annotation equal to text, falling back to the
// first one containing it (case-insensitive).
func (s *Service) Denotate(ctx context.Context, ref, text string) (model.Task, error) {
	return s.update(ctx, ref, func(t *model.Task, _ time.Time) error {
		idx := -1
		for i, a := range t.Annotations {
			if a.Description == text {
				idx = i
				break
			}
		}
		if idx < 0 {
			needle := strings.ToLower(text)
			for i, a := range t.Annotations {
				if strings.Contains(strings.ToLower(a.Description), needle) {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			return fmt.Errorf("%q: %w", text, ErrNoAnnotation)
		}
		t.Annotations = append(t.Annotations[:idx], t.Annotations[idx+1:]...)
		return nil
	})
}

// List returns the tasks matching f, ordered by urgency. The limit of f is
// applied after sorting.
func (s *Service) List(ctx context.Context, f filter.TaskFilter) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	tasks, err := s.loadAll(ctx, now)
	if err != nil {
		return nil, err
	}
	urgency.Sort(tasks)
	return filter.Apply(tasks, f, now), nil
}

// UrgencyBreakdown returns the task ref points to together with the terms
// of its urgency score.
func (s *Service) UrgencyBreakdown(ctx context.Context, ref string) (model.Task, []urgency.Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	tasks, err := s.loadAll(ctx, now)
	if err != nil {
		return model.Task{}, nil, err
	}
	i, err := resolve(tasks, ref)
	if err != nil {
		return model.Task{}, nil, err
	}
	terms := urgency.Breakdown(tasks[i], s.cfg.Urgency, urgency.NewContext(tasks, now))
	return tasks[i], terms, nil
}

// update resolves ref, applies fn to a copy and writes the copy back.
func (s *Service) update(ctx context.Context, ref string, fn func(t *model.Task, now time.Time) error) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	tasks, err := s.loadAll(ctx, now)
	if err != nil {
		return model.Task{}, err
	}
	i, err := resolve(tasks, ref)
	if err != nil {
		return model.Task{}, err
	}
	t := tasks[i].Clone()
	if err := fn(&t, now); err != nil {
		return model.Task{}, err
	}
	t.Modified = now
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return model.Task{}, err
	}
	return s.reload(ctx, t.UUID, now)
}

// reload reads the task back with fresh urgency and id.
func (s *Service) reload(ctx context.Context, id string, now time.Time) (model.Task, error) {
	tasks, err := s.loadAll(ctx, now)
	if err != nil {
		return model.Task{}, err
	}
	i, err := resolve(tasks, id)
	if err != nil {
		return model.Task{}, err
	}
	return tasks[i], nil
}

// settleStatus derives waiting/pending/recurring from the task dates.
func settleStatus(t *model.Task, now time.Time) {
	switch {
	case t.Recur != "" && t.Parent == "" && t.Status != model.StatusCompleted && t.Status != model.StatusDeleted:
		t.Status = model.StatusRecurring
	case t.Status == model.StatusPending && t.Wait != nil && t.Wait.After(now):
		t.Status = model.StatusWaiting
	case t.Status == model.StatusWaiting && (t.Wait == nil || !t.Wait.After(now)):
		t.Status = model.StatusPending
	}
}

func resolveDepends(tasks []model.Task, mod Modification) (add, remove []string, err error) {
	for _, ref := range mod.AddDepends {
		i, err := resolve(tasks, ref)
		if err != nil {
			return nil, nil, fmt.Errorf("depends: %w", err)
		}
		add = append(add, tasks[i].UUID)
	}
	for _, ref := range mod.RemoveDepends {
		i, err := resolve(tasks, ref)
		if err != nil {
			return nil, nil, fmt.Errorf("depends: %w", err)
		}
		remove = append(remove, tasks[i].UUID)
	}
	return add, remove, nil
}

// checkCycle reports an error if t, with its new dependencies, can reach
// itself through the dependency graph.
func checkCycle(tasks []model.Task, t model.Task) error {
	deps := make(map[string][]string, len(tasks)+1)
	for _, other := range tasks {
		deps[other.UUID] = other.Depends
	}
	deps[t.UUID] = t.Depends

	seen := make(map[string]bool)
	stack := append([]string(nil), t.Depends...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == t.UUID {
			return fmt.Errorf("task %s: %w", t.UUID, ErrDependencyCycle)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, deps[id]...)
	}
	return nil
}

func newNotification(taskUUID string, kind model.NotificationKind, msg string, now time.Time) model.Notification {
	return model.Notification{
		ID:        uuid.NewString(),
		TaskUUID:  taskUUID,
		Kind:      kind,
		Message:   msg,
		CreatedAt: now,
	}
}
