package report

import (
	"errors"
	"testing"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

var now = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

func at(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func fixture() []model.Task {
	return []model.Task{
		{UUID: "a", Description: "prune roses", Status: model.StatusCompleted, Project: "home.garden", Entry: at(1, 9), End: ptr(at(3, 10))},
		{UUID: "b", Description: "fix sink", Status: model.StatusPending, Project: "home", Tags: []string{"x"}, Entry: at(2, 9), Start: ptr(at(3, 8)), Urgency: 3},
		{UUID: "c", Description: "cancelled", Status: model.StatusDeleted, Entry: at(2, 10), End: ptr(at(4, 9))},
		{UUID: "d", Description: "send invoice", Status: model.StatusPending, Project: "work", Tags: []string{"x", "y"}, Entry: at(4, 8), Depends: []string{"b"}, Urgency: 5},
		{UUID: "r", Description: "water plants", Status: model.StatusRecurring, Recur: "weekly", Entry: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Due: ptr(at(1, 0))},
	}
}

func TestBuckets(t *testing.T) {
	tests := []struct {
		name      string
		from, to  time.Time
		iv        Interval
		wantStart []time.Time
	}{
		{"daily", at(1, 15), at(3, 1), Daily, []time.Time{at(1, 0), at(2, 0), at(3, 0)}},
		{"weekly starts monday", at(4, 12), time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), Weekly, []time.Time{at(2, 0), at(9, 0), at(16, 0)}},
		{"monthly", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), now, Monthly, []time.Time{
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		}},
		{"empty range", now, now.Add(-time.Hour), Daily, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Buckets(tt.from, tt.to, tt.iv)
			if len(got) != len(tt.wantStart) {
				t.Fatalf("len = %d, want %d (%v)", len(got), len(tt.wantStart), got)
			}
			for i, b := range got {
				if !b.Start.Equal(tt.wantStart[i]) {
					t.Errorf("bucket %d start = %v, want %v", i, b.Start, tt.wantStart[i])
				}
			}
		})
	}
}

func TestParseInterval(t *testing.T) {
	if iv, err := ParseInterval("w"); err != nil || iv != Weekly {
		t.Errorf("ParseInterval(w) = %v, %v", iv, err)
	}
	if _, err := ParseInterval("hourly"); !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("ParseInterval(hourly) error = %v", err)
	}
}

func TestBurndown(t *testing.T) {
	got := Burndown(fixture(), at(1, 0), now, Daily)
	want := []struct{ pending, started, done int }{
		{1, 0, 0},
		{3, 0, 0},
		{1, 1, 1},
		{1, 1, 1},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		p := got[i]
		if p.Pending != w.pending || p.Started != w.started || p.Done != w.done {
			t.Errorf("point %d (%s) = %d/%d/%d, want %d/%d/%d",
				i, p.Label(Daily), p.Pending, p.Started, p.Done, w.pending, w.started, w.done)
		}
	}
}

func TestHistory(t *testing.T) {
	got := History(fixture(), at(1, 0), now, Daily)
	want := []HistoryRow{
		{Added: 1},
		{Added: 2},
		{Completed: 1},
		{Added: 1, Deleted: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		g := got[i]
		if g.Added != w.Added || g.Completed != w.Completed || g.Deleted != w.Deleted {
			t.Errorf("row %d = %+v, want %+v", i, g, w)
		}
	}
	if got[1].Net() != 2 || got[2].Net() != -1 {
		t.Errorf("Net = %d, %d", got[1].Net(), got[2].Net())
	}
}

func TestSummary(t *testing.T) {
	s := Summary(fixture(), now)

	if s.Total != 5 || s.Pending != 2 || s.Completed != 1 || s.Deleted != 1 || s.Recurring != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.Active != 1 || s.Blocked != 1 || s.Blocking != 1 || s.Overdue != 0 {
		t.Errorf("active/blocked/blocking/overdue = %d/%d/%d/%d", s.Active, s.Blocked, s.Blocking, s.Overdue)
	}
	if s.AvgUrgency != 4 || s.MaxUrgency != 5 {
		t.Errorf("urgency avg/max = %v/%v, want 4/5", s.AvgUrgency, s.MaxUrgency)
	}
	if s.CompletionRate < 0.333 || s.CompletionRate > 0.334 {
		t.Errorf("CompletionRate = %v", s.CompletionRate)
	}
	if s.AvgCompletionTime != 49*time.Hour {
		t.Errorf("AvgCompletionTime = %v, want 49h", s.AvgCompletionTime)
	}

	wantProjects := []ProjectSummary{
		{Project: "home", Depth: 0, Remaining: 1, Completed: 1, AvgAge: 51 * time.Hour, PercentComplete: 50},
		{Project: "home.garden", Depth: 1, Completed: 1, PercentComplete: 100},
		{Project: "work", Depth: 0, Remaining: 1, AvgAge: 4 * time.Hour, PercentComplete: 0},
	}
	if len(s.Projects) != len(wantProjects) {
		t.Fatalf("Projects = %+v", s.Projects)
	}
	for i, w := range wantProjects {
		if s.Projects[i] != w {
			t.Errorf("project %d = %+v, want %+v", i, s.Projects[i], w)
		}
	}

	if len(s.Tags) != 2 || s.Tags[0] != (TagCount{"x", 2}) || s.Tags[1] != (TagCount{"y", 1}) {
		t.Errorf("Tags = %+v", s.Tags)
	}
}

func TestSummaryEmpty(t *testing.T) {
	s := Summary(nil, now)
	if s.Total != 0 || s.AvgUrgency != 0 || s.CompletionRate != 0 || len(s.Projects) != 0 {
		t.Errorf("Summary(nil) = %+v", s)
	}
}

func TestXPByDay(t *testing.T) {
	history := []model.XpHistoryEntry{
		{CreatedAt: at(2, 10), Reward: model.XpReward{Total: 10}},
		{CreatedAt: at(2, 20), Reward: model.XpReward{Total: 5}},
		{CreatedAt: at(4, 9), Reward: model.XpReward{Total: 7}},
		{CreatedAt: time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC), Reward: model.XpReward{Total: 100}},
	}
	got := XPByDay(history, at(2, 0), now)
	want := []int{15, 0, 7}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].XP != w {
			t.Errorf("day %d XP = %d, want %d", i, got[i].XP, w)
		}
	}
}
