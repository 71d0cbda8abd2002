package urgency

import (
	"math"
	"testing"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func pending(desc string) model.Task {
	return model.Task{
		UUID:        desc,
		Description: desc,
		Status:      model.StatusPending,
		Entry:       now,
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculate(t *testing.T) {
	cfg := model.DefaultUrgencyConfig()

	tests := []struct {
		name string
		task func() model.Task
		want float64
	}{
		{
			name: "bare pending task",
			task: func() model.Task { return pending("a") },
			want: 0,
		},
		{
			name: "priority project and one tag",
			task: func() model.Task {
				tk := pending("a")
				tk.Priority = model.PriorityHigh
				tk.Project = "home"
				tk.Tags = []string{"garden"}
				return tk
			},
			want: 6 + 1 + 0.8,
		},
		{
			name: "next tag",
			task: func() model.Task {
				tk := pending("a")
				tk.Tags = []string{model.TagNext}
				return tk
			},
			want: 15 + 0.8,
		},
		{
			name: "due now",
			task: func() model.Task {
				tk := pending("a")
				tk.Due = ptr(now)
				return tk
			},
			want: 8.8,
		},
		{
			name: "due a week ago",
			task: func() model.Task {
				tk := pending("a")
				tk.Due = ptr(now.AddDate(0, 0, -7))
				return tk
			},
			want: 12,
		},
		{
			name: "due in a month",
			task: func() model.Task {
				tk := pending("a")
				tk.Due = ptr(now.AddDate(0, 1, 0))
				return tk
			},
			want: 2.4,
		},
		{
			name: "one year old",
			task: func() model.Task {
				tk := pending("a")
				tk.Entry = now.AddDate(-1, 0, 0)
				return tk
			},
			want: 2,
		},
		{
			name: "active and scheduled",
			task: func() model.Task {
				tk := pending("a")
				tk.Start = ptr(now.Add(-time.Hour))
				tk.Scheduled = ptr(now.Add(-time.Hour))
				return tk
			},
			want: 4 + 5,
		},
		{
			name: "scheduled in the future",
			task: func() model.Task {
				tk := pending("a")
				tk.Scheduled = ptr(now.Add(time.Hour))
				return tk
			},
			want: 0,
		},
		{
			name: "waiting",
			task: func() model.Task {
				tk := pending("a")
				tk.Status = model.StatusWaiting
				return tk
			},
			want: -3,
		},
		{
			name: "three annotations",
			task: func() model.Task {
				tk := pending("a")
				tk.Annotations = make([]model.Annotation, 3)
				return tk
			},
			want: 1,
		},
		{
			name: "completed scores zero",
			task: func() model.Task {
				tk := pending("a")
				tk.Priority = model.PriorityHigh
				tk.Status = model.StatusCompleted
				return tk
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := tt.task()
			got := Calculate(tk, cfg, NewContext([]model.Task{tk}, now))
			if !approx(got, tt.want) {
				t.Errorf("Calculate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculateDependencies(t *testing.T) {
	cfg := model.DefaultUrgencyConfig()
	blocker := pending("blocker")
	blocked := pending("blocked")
	blocked.Depends = []string{"blocker"}

	tasks := []model.Task{blocker, blocked}
	ctx := NewContext(tasks, now)

	if got := Calculate(blocker, cfg, ctx); !approx(got, 8) {
		t.Errorf("blocking urgency = %v, want 8", got)
	}
	if got := Calculate(blocked, cfg, ctx); !approx(got, -5) {
		t.Errorf("blocked urgency = %v, want -5", got)
	}

	// Completing the blocker releases the dependent task.
	blocker.Status = model.StatusCompleted
	tasks = []model.Task{blocker, blocked}
	ctx = NewContext(tasks, now)
	if got := Calculate(blocked, cfg, ctx); got != 0 {
		t.Errorf("urgency after blocker completed = %v, want 0", got)
	}
}

func TestCalculateCustomCoefficients(t *testing.T) {
	cfg, err := model.DefaultUrgencyConfig().WithTagCoefficient("urgent", 7)
	if err != nil {
		t.Fatal(err)
	}
	cfg.ProjectCoefficients = map[string]float64{"work": 2}
	cfg.UDACoefficients = map[string]float64{"estimate": 0.5}

	tk := pending("a")
	tk.Tags = []string{"urgent"}
	tk.Project = "work.reports"
	tk.UDAs = map[string]string{"estimate": "2h"}

	// tags 0.8 + tag.urgent 7 + project 1 + project.work 2 + uda 0.5
	want := 0.8 + 7 + 1 + 2 + 0.5
	got := Calculate(tk, cfg, NewContext([]model.Task{tk}, now))
	if !approx(got, want) {
		t.Errorf("Calculate() = %v, want %v", got, want)
	}
}

func TestCalculateIsFinite(t *testing.T) {
	cfg := model.DefaultUrgencyConfig()
	cfg.Due = math.Inf(1)

	tk := pending("a")
	tk.Due = ptr(now)
	got := Calculate(tk, cfg, NewContext([]model.Task{tk}, now))
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("Calculate() = %v, want finite", got)
	}
}

func TestDueFactorBuckets(t *testing.T) {
	tests := []struct {
		offset time.Duration
		want   float64
	}{
		{offset: -10 * 24 * time.Hour, want: 1.0},
		{offset: -7 * 24 * time.Hour, want: 1.0},
		{offset: 0, want: 0.2 + 14*0.8/21},
		{offset: 14 * 24 * time.Hour, want: 0.2},
		{offset: 30 * 24 * time.Hour, want: 0.2},
	}
	for _, tt := range tests {
		got := DueFactor(now.Add(tt.offset), now)
		if !approx(got, tt.want) {
			t.Errorf("DueFactor(%v) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestBreakdownSumsToCalculate(t *testing.T) {
	cfg := model.DefaultUrgencyConfig()
	tk := pending("a")
	tk.Priority = model.PriorityMedium
	tk.Tags = []string{"a", "b"}
	tk.Due = ptr(now.Add(48 * time.Hour))
	tk.Entry = now.AddDate(0, 0, -30)
	ctx := NewContext([]model.Task{tk}, now)

	terms := Breakdown(tk, cfg, ctx)
	names := make(map[string]bool)
	var sum float64
	for _, term := range terms {
		names[term.Name] = true
		sum += term.Value
	}
	for _, want := range []string{"priority", "tags", "due", "age"} {
		if !names[want] {
			t.Errorf("breakdown missing %q term", want)
		}
	}
	if math.Abs(sum-Calculate(tk, cfg, ctx)) > 1e-3 {
		t.Errorf("breakdown sum %v differs from Calculate %v", sum, Calculate(tk, cfg, ctx))
	}
}

func TestRecomputeAndSort(t *testing.T) {
	cfg := model.DefaultUrgencyConfig()
	low := pending("low")
	high := pending("high")
	high.Priority = model.PriorityHigh
	older := pending("older")
	older.Entry = now.Add(-time.Minute)
	done := pending("done")
	done.Status = model.StatusCompleted

	tasks := []model.Task{low, done, high, older}
	Recompute(tasks, cfg, now)
	Sort(tasks)

	want := []string{"high", "older", "done", "low"}
	for i, uuid := range want {
		if tasks[i].UUID != uuid {
			t.Fatalf("position %d = %s, want %s (order %v)", i, tasks[i].UUID, uuid, uuids(tasks))
		}
	}
}

func uuids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.UUID
	}
	return out
}
