package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/filter"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/service"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/store"
	"github.com/137-reciprocal/TaskGeek-sub001/tests/testutil"
)

var base = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, cfg *model.AppConfig) (*service.Service, *testutil.Clock, store.Store) {
	t.Helper()
	st := testutil.NewTestStore(t)
	c := testutil.NewClock(base)
	return service.New(st, cfg, service.WithClock(c.Now)), c, st
}

func add(t *testing.T, svc *service.Service, args ...string) model.Task {
	t.Helper()
	mod, err := service.ParseModification(args, svc.Now())
	if err != nil {
		t.Fatalf("ParseModification(%q): %v", args, err)
	}
	task, err := svc.Add(context.Background(), mod)
	if err != nil {
		t.Fatalf("Add(%q): %v", args, err)
	}
	return task
}

// ============================================================
// Modification parsing
// ============================================================

func TestParseModification(t *testing.T) {
	mod, err := service.ParseModification([]string{
		"Buy milk", "project:home.shop", "pri:H", "+errand", "-old",
		"due:2026-03-06", "recur:weekly", "depends:1,-2", "uda.estimate:2h",
	}, base)
	if err != nil {
		t.Fatal(err)
	}
	if mod.Description != "Buy milk" {
		t.Errorf("Description = %q", mod.Description)
	}
	if mod.Project == nil || *mod.Project != "home.shop" {
		t.Errorf("Project = %v", mod.Project)
	}
	if mod.Priority == nil || *mod.Priority != model.PriorityHigh {
		t.Errorf("Priority = %v", mod.Priority)
	}
	if len(mod.AddTags) != 1 || mod.AddTags[0] != "errand" {
		t.Errorf("AddTags = %v", mod.AddTags)
	}
	if len(mod.RemoveTags) != 1 || mod.RemoveTags[0] != "old" {
		t.Errorf("RemoveTags = %v", mod.RemoveTags)
	}
	due := mod.Dates[service.AttrDue]
	if due == nil || due.Day() != 6 {
		t.Errorf("due = %v", due)
	}
	if mod.Recur == nil || *mod.Recur != "weekly" {
		t.Errorf("Recur = %v", mod.Recur)
	}
	if len(mod.AddDepends) != 1 || mod.AddDepends[0] != "1" {
		t.Errorf("AddDepends = %v", mod.AddDepends)
	}
	if len(mod.RemoveDepends) != 1 || mod.RemoveDepends[0] != "2" {
		t.Errorf("RemoveDepends = %v", mod.RemoveDepends)
	}
	if mod.UDAs["estimate"] != "2h" {
		t.Errorf("UDAs = %v", mod.UDAs)
	}
}

func TestParseModificationClearsDate(t *testing.T) {
	mod, err := service.ParseModification([]string{"due:"}, base)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := mod.Dates[service.AttrDue]
	if !ok || v != nil {
		t.Fatalf("due clear not recorded: %v %v", v, ok)
	}
	if mod.Description != "" {
		t.Errorf("Description = %q", mod.Description)
	}
}

func TestParseModificationErrors(t *testing.T) {
	for _, args := range [][]string{
		{"pri:urgent"},
		{"due:someday"},
		{"recur:sometimes"},
	} {
		if _, err := service.ParseModification(args, base); err == nil {
			t.Errorf("ParseModification(%q) succeeded", args)
		}
	}
}

// ============================================================
// Task lifecycle
// ============================================================

func TestAddAssignsIDs(t *testing.T) {
	svc, c, _ := newService(t, nil)
	ctx := context.Background()

	a := add(t, svc, "first")
	c.Advance(time.Minute)
	b := add(t, svc, "second", "pri:H")

	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", a.ID, b.ID)
	}
	if b.Urgency <= a.Urgency {
		t.Errorf("high priority urgency %v not above %v", b.Urgency, a.Urgency)
	}

	got, err := svc.Resolve(ctx, b.UUID[:13])
	if err != nil {
		t.Fatal(err)
	}
	if got.UUID != b.UUID {
		t.Errorf("Resolve by prefix = %s, want %s", got.UUID, b.UUID)
	}

	if _, err := svc.Resolve(ctx, "99"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Resolve(99) err = %v, want ErrNotFound", err)
	}
}

func TestAddRequiresDescription(t *testing.T) {
	svc, _, _ := newService(t, nil)
	_, err := svc.Add(context.Background(), service.Modification{AddTags: []string{"x"}})
	if !errors.Is(err, model.ErrInvalidTask) {
		t.Fatalf("err = %v, want ErrInvalidTask", err)
	}
}

func TestWaitingTaskWakesUp(t *testing.T) {
	svc, c, _ := newService(t, nil)
	ctx := context.Background()

	task := add(t, svc, "later", "wait:+2d")
	if task.Status != model.StatusWaiting {
		t.Fatalf("Status = %s, want waiting", task.Status)
	}

	c.Advance(72 * time.Hour)
	res, err := svc.Housekeep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Unwaited != 1 {
		t.Errorf("Unwaited = %d, want 1", res.Unwaited)
	}
	got, err := svc.Get(ctx, task.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.StatusPending {
		t.Errorf("Status = %s, want pending", got.Status)
	}
}

func TestModify(t *testing.T) {
	svc, _, _ := newService(t, nil)
	ctx := context.Background()
	task := add(t, svc, "draft", "+old", "uda.size:L")

	mod, err := service.ParseModification([]string{"project:work", "+new", "-old", "pri:M", "uda.size:"}, base)
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.Modify(ctx, "1", mod)
	if err != nil {
		t.Fatal(err)
	}
	if got.UUID != task.UUID {
		t.Fatalf("modified wrong task")
	}
	if got.Description != "draft" {
		t.Errorf("Description = %q", got.Description)
	}
	if got.Project != "work" || got.Priority != model.PriorityMedium {
		t.Errorf("Project/Priority = %q/%q", got.Project, got.Priority)
	}
	if !got.HasTag("new") || got.HasTag("old") {
		t.Errorf("Tags = %v", got.Tags)
	}
	if len(got.UDAs) != 0 {
		t.Errorf("UDAs = %v", got.UDAs)
	}
}

func TestDependencies(t *testing.T) {
	svc, c, _ := newService(t, nil)
	ctx := context.Background()

	a := add(t, svc, "foundation")
	c.Advance(time.Minute)
	b := add(t, svc, "walls", "depends:1")
	if !b.DependsOn(a.UUID) {
		t.Fatalf("Depends = %v", b.Depends)
	}

	mod := service.Modification{AddDepends: []string{"2"}}
	if _, err := svc.Modify(ctx, "1", mod); !errors.Is(err, service.ErrDependencyCycle) {
		t.Fatalf("err = %v, want ErrDependencyCycle", err)
	}
	if _, err := svc.Modify(ctx, "1", service.Modification{AddDepends: []string{"1"}}); !errors.Is(err, service.ErrDependencyCycle) {
		t.Fatalf("self dependency err = %v", err)
	}

	blocked, err := svc.List(ctx, filter.TaskFilter{Blocked: boolPtr(true)})
	if err != nil {
		t.Fatal(err)
	}
	if len(blocked) != 1 || blocked[0].UUID != b.UUID {
		t.Errorf("blocked = %v", blocked)
	}
}

func TestStartStopAnnotate(t *testing.T) {
	svc, _, _ := newService(t, nil)
	ctx := context.Background()
	add(t, svc, "focus")

	got, err := svc.Start(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsActive() {
		t.Fatal("task not active after Start")
	}
	if got, err = svc.Stop(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	if got.IsActive() {
		t.Fatal("task still active after Stop")
	}

	if _, err := svc.Annotate(ctx, "1", "Called the plumber"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Annotate(ctx, "1", "Bought pipes"); err != nil {
		t.Fatal(err)
	}
	got, err = svc.Denotate(ctx, "1", "plumber")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Annotations) != 1 || got.Annotations[0].Description != "Bought pipes" {
		t.Errorf("Annotations = %v", got.Annotations)
	}
	if _, err := svc.Denotate(ctx, "1", "nothing"); !errors.Is(err, service.ErrNoAnnotation) {
		t.Errorf("err = %v, want ErrNoAnnotation", err)
	}
}

func TestDeleteAndPurge(t *testing.T) {
	svc, c, st := newService(t, nil)
	ctx := context.Background()

	a := add(t, svc, "obsolete")
	c.Advance(time.Minute)
	b := add(t, svc, "depends on obsolete", "depends:1")

	if err := svc.Purge(ctx, a.UUID); !errors.Is(err, service.ErrNotDeleted) {
		t.Fatalf("Purge pending err = %v, want ErrNotDeleted", err)
	}

	deleted, err := svc.Delete(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if deleted.Status != model.StatusDeleted || deleted.End == nil || deleted.ID != 0 {
		t.Fatalf("deleted = %+v", deleted)
	}
	if _, err := svc.Delete(ctx, a.UUID); !errors.Is(err, service.ErrDeleted) {
		t.Errorf("second Delete err = %v, want ErrDeleted", err)
	}

	if err := svc.Purge(ctx, a.UUID); err != nil {
		t.Fatal(err)
	}
	if _, err := st.GetTask(ctx, a.UUID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("purged task still stored: %v", err)
	}
	got, err := st.GetTask(ctx, b.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Depends) != 0 {
		t.Errorf("dangling dependency kept: %v", got.Depends)
	}
}

func TestListSortsBeforeLimit(t *testing.T) {
	svc, c, _ := newService(t, nil)
	ctx := context.Background()

	add(t, svc, "low")
	c.Advance(time.Minute)
	add(t, svc, "high", "pri:H")
	c.Advance(time.Minute)
	add(t, svc, "medium", "pri:M")

	got, err := svc.List(ctx, filter.TaskFilter{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Description != "high" || got[1].Description != "medium" {
		var names []string
		for _, task := range got {
			names = append(names, task.Description)
		}
		t.Fatalf("List = %v, want [high medium]", names)
	}
}

// ============================================================
// Completion and XP
// ============================================================

func TestCompleteAwardsXP(t *testing.T) {
	svc, _, st := newService(t, nil)
	ctx := context.Background()
	task := add(t, svc, "ship it", "pri:H")

	res, err := svc.Complete(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Task.Status != model.StatusCompleted || res.Task.End == nil {
		t.Fatalf("task = %+v", res.Task)
	}
	if res.Reward.Total <= 0 {
		t.Fatalf("Reward.Total = %d", res.Reward.Total)
	}
	if res.Reward.Base <= 10 {
		t.Errorf("Base = %v, want urgency folded in", res.Reward.Base)
	}

	hero, err := svc.Hero(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if hero.TotalXP != res.Reward.Total || hero.TasksCompleted != 1 || hero.CurrentStreak != 1 {
		t.Errorf("hero = %+v", hero)
	}

	history, err := svc.XPHistory(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].TaskUUID != task.UUID {
		t.Fatalf("history = %+v", history)
	}

	stored, err := st.GetTask(ctx, task.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != model.StatusCompleted || stored.Urgency != 0 {
		t.Errorf("stored = %+v", stored)
	}

	if _, err := svc.Complete(ctx, task.UUID); !errors.Is(err, service.ErrNotPending) {
		t.Errorf("second Complete err = %v, want ErrNotPending", err)
	}
}

func TestCompleteLevelsUpAndNotifies(t *testing.T) {
	cfg := model.DefaultAppConfig()
	cfg.XP.LevelBase = 5
	cfg.XP.LevelCubic = 0
	svc, _, _ := newService(t, cfg)
	ctx := context.Background()
	add(t, svc, "grind")

	res, err := svc.Complete(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if res.LevelUp.LevelsGained < 2 {
		t.Fatalf("LevelsGained = %d, want overflow into several levels", res.LevelUp.LevelsGained)
	}
	if res.Hero.XP >= 5 {
		t.Errorf("carried XP %d reaches the threshold", res.Hero.XP)
	}
	if res.Hero.Level != 1+res.LevelUp.LevelsGained {
		t.Errorf("Level = %d", res.Hero.Level)
	}

	notes, err := svc.Notifications(ctx, true, 0)
	if err != nil {
		t.Fatal(err)
	}
	var levelUps int
	for _, n := range notes {
		if n.Kind == model.NotifyLevelUp {
			levelUps++
		}
	}
	if levelUps != 1 {
		t.Errorf("level_up notifications = %d, want 1", levelUps)
	}

	if err := svc.MarkRead(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if notes, _ = svc.Notifications(ctx, true, 0); len(notes) != 0 {
		t.Errorf("unread after MarkRead = %d", len(notes))
	}
}

func TestStreakAcrossDays(t *testing.T) {
	svc, c, _ := newService(t, nil)
	ctx := context.Background()

	add(t, svc, "day one")
	if _, err := svc.Complete(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	c.Advance(24 * time.Hour)
	add(t, svc, "day two")
	res, err := svc.Complete(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Hero.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", res.Hero.CurrentStreak)
	}
}

// ============================================================
// Recurrence and housekeeping
// ============================================================

func TestRecurrence(t *testing.T) {
	svc, c, _ := newService(t, nil)
	ctx := context.Background()

	tmpl := add(t, svc, "water plants", "recur:weekly", "due:2026-03-05")
	if tmpl.Status != model.StatusRecurring {
		t.Fatalf("Status = %s, want recurring", tmpl.Status)
	}

	instances, err := svc.List(ctx, filter.TaskFilter{Statuses: []model.Status{model.StatusPending}})
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 1 || instances[0].Parent != tmpl.UUID {
		t.Fatalf("instances = %+v", instances)
	}
	first := instances[0]

	// No duplicate while an instance is open.
	res, err := svc.Housekeep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Spawned != 0 {
		t.Fatalf("Spawned = %d with an open instance", res.Spawned)
	}

	c.Advance(time.Hour)
	if _, err := svc.Complete(ctx, first.UUID); err != nil {
		t.Fatal(err)
	}
	instances, err = svc.List(ctx, filter.TaskFilter{Statuses: []model.Status{model.StatusPending}})
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 1 {
		t.Fatalf("instances after completion = %d", len(instances))
	}
	if want := first.Due.AddDate(0, 0, 7); !instances[0].Due.Equal(want) {
		t.Errorf("next due = %v, want %v", instances[0].Due, want)
	}
}

func TestHousekeepNotificationsAndExpiry(t *testing.T) {
	svc, c, _ := newService(t, nil)
	ctx := context.Background()

	soon := add(t, svc, "soon", "due:+2h")
	c.Advance(time.Minute)
	add(t, svc, "expiring", "until:+1h")
	c.Advance(time.Minute)
	add(t, svc, "far", "due:+30d")

	res, err := svc.Housekeep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Notified != 1 {
		t.Errorf("Notified = %d, want 1", res.Notified)
	}

	res, err = svc.Housekeep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Notified != 0 {
		t.Errorf("duplicate notifications: %d", res.Notified)
	}

	c.Advance(3 * time.Hour)
	res, err = svc.Housekeep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Expired != 1 {
		t.Errorf("Expired = %d, want 1", res.Expired)
	}
	if res.Notified != 1 {
		t.Errorf("overdue Notified = %d, want 1", res.Notified)
	}

	notes, err := svc.Notifications(ctx, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	kinds := map[model.NotificationKind]string{}
	for _, n := range notes {
		kinds[n.Kind] = n.TaskUUID
	}
	if kinds[model.NotifyDueSoon] != soon.UUID || kinds[model.NotifyOverdue] != soon.UUID {
		t.Errorf("notifications = %v", kinds)
	}
}

// ============================================================
// Configuration, presets and reports
// ============================================================

func TestSetUrgencyCoefficientRescores(t *testing.T) {
	svc, _, st := newService(t, nil)
	ctx := context.Background()
	task := add(t, svc, "important", "pri:H")

	if err := svc.SetUrgencyCoefficient(ctx, "priority_high", 20); err != nil {
		t.Fatal(err)
	}
	if got := svc.Config().Urgency.PriorityHigh; got != 20 {
		t.Fatalf("PriorityHigh = %v", got)
	}
	stored, err := st.GetTask(ctx, task.UUID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Urgency < 20 {
		t.Errorf("stored urgency = %v, want rescored", stored.Urgency)
	}

	if err := svc.SetUrgencyCoefficient(ctx, "bogus", 1); err == nil {
		t.Error("unknown coefficient accepted")
	}
}

func TestPresets(t *testing.T) {
	svc, _, _ := newService(t, nil)
	ctx := context.Background()
	add(t, svc, "home chore", "project:home")
	add(t, svc, "work item", "project:work")

	if err := svc.SavePreset(ctx, "bad", "due.before:never"); err == nil {
		t.Fatal("invalid preset accepted")
	}
	if err := svc.SavePreset(ctx, "home", "project:home status:pending"); err != nil {
		t.Fatal(err)
	}
	got, err := svc.ApplyPreset(ctx, "home")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Project != "home" {
		t.Errorf("ApplyPreset = %+v", got)
	}

	presets, err := svc.Presets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(presets) != 1 {
		t.Fatalf("Presets = %d", len(presets))
	}
	if err := svc.DeletePreset(ctx, "home"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ApplyPreset(ctx, "home"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSummaryAndBreakdown(t *testing.T) {
	svc, c, _ := newService(t, nil)
	ctx := context.Background()
	add(t, svc, "a", "project:home", "+x")
	c.Advance(time.Minute)
	add(t, svc, "b", "project:home.garden", "pri:H")
	if _, err := svc.Complete(ctx, "1"); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Pending != 1 || stats.Completed != 1 {
		t.Errorf("Pending/Completed = %d/%d", stats.Pending, stats.Completed)
	}

	task, terms, err := svc.UrgencyBreakdown(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, term := range terms {
		sum += term.Value
	}
	if diff := sum - task.Urgency; diff > 0.001 || diff < -0.001 {
		t.Errorf("breakdown sums to %v, urgency %v", sum, task.Urgency)
	}

	days, err := svc.XPByDay(ctx, base, base)
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 1 || days[0].XP <= 0 {
		t.Errorf("XPByDay = %+v", days)
	}
}

func boolPtr(b bool) *bool { return &b }
