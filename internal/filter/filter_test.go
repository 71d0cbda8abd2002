package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

var now = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func fixture() []model.Task {
	return []model.Task{
		{
			UUID: "aaaaaaaa-0000-0000-0000-000000000001", ID: 1,
			Description: "Water the garden", Status: model.StatusPending,
			Priority: model.PriorityHigh, Project: "home.garden",
			Tags: []string{"outside"}, Entry: now.AddDate(0, 0, -10),
			Due: ptr(now.AddDate(0, 0, -1)), Urgency: 14.2,
		},
		{
			UUID: "bbbbbbbb-0000-0000-0000-000000000002", ID: 2,
			Description: "Write quarterly report", Status: model.StatusPending,
			Priority: model.PriorityMedium, Project: "work",
			Tags: []string{"office", "writing"}, Entry: now.AddDate(0, 0, -3),
			Depends:     []string{"aaaaaaaa-0000-0000-0000-000000000001"},
			Annotations: []model.Annotation{{Entry: now, Description: "ask finance for numbers"}},
			Due:         ptr(now.AddDate(0, 0, 5)), Urgency: 3.1,
			Start: ptr(now.Add(-time.Hour)),
		},
		{
			UUID: "cccccccc-0000-0000-0000-000000000003",
			Description: "Old finished chore", Status: model.StatusCompleted,
			Project: "home", Entry: now.AddDate(0, -1, 0),
		},
		{
			UUID: "dddddddd-0000-0000-0000-000000000004", ID: 3,
			Description: "Plan trip", Status: model.StatusWaiting,
			Priority: model.PriorityLow, Tags: []string{"outside", "fun"},
			Entry: now, Urgency: -1.5,
		},
	}
}

func descriptions(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Description
	}
	return out
}

func boolp(b bool) *bool { return &b }

func floatp(f float64) *float64 { return &f }

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		filter TaskFilter
		want   []string
	}{
		{"zero filter matches all", TaskFilter{}, []string{"Water the garden", "Write quarterly report", "Old finished chore", "Plan trip"}},
		{"status", TaskFilter{Statuses: []model.Status{model.StatusPending}}, []string{"Water the garden", "Write quarterly report"}},
		{"project prefix", TaskFilter{Project: "home"}, []string{"Water the garden", "Old finished chore"}},
		{"project is not a string prefix", TaskFilter{Project: "hom"}, nil},
		{"priority", TaskFilter{Priorities: []model.Priority{model.PriorityHigh, model.PriorityLow}}, []string{"Water the garden", "Plan trip"}},
		{"include tags", TaskFilter{IncludeTags: []string{"outside", "fun"}}, []string{"Plan trip"}},
		{"exclude tags", TaskFilter{ExcludeTags: []string{"outside"}}, []string{"Write quarterly report", "Old finished chore"}},
		{"any tags", TaskFilter{AnyTags: []string{"fun", "office"}}, []string{"Write quarterly report", "Plan trip"}},
		{"due before", TaskFilter{DueBefore: ptr(now)}, []string{"Water the garden"}},
		{"due after", TaskFilter{DueAfter: ptr(now)}, []string{"Write quarterly report"}},
		{"entry after", TaskFilter{EntryAfter: ptr(now.AddDate(0, 0, -5))}, []string{"Write quarterly report", "Plan trip"}},
		{"urgency range", TaskFilter{MinUrgency: floatp(0), MaxUrgency: floatp(10)}, []string{"Write quarterly report", "Old finished chore"}},
		{"has dependencies", TaskFilter{HasDependencies: boolp(true)}, []string{"Write quarterly report"}},
		{"blocked", TaskFilter{Blocked: boolp(true)}, []string{"Write quarterly report"}},
		{"blocking", TaskFilter{Blocking: boolp(true)}, []string{"Water the garden"}},
		{"overdue", TaskFilter{Overdue: boolp(true)}, []string{"Water the garden"}},
		{"active", TaskFilter{Active: boolp(true)}, []string{"Write quarterly report"}},
		{"search description", TaskFilter{Search: "GARDEN"}, []string{"Water the garden"}},
		{"search annotations", TaskFilter{Search: "finance"}, []string{"Write quarterly report"}},
		{"uuid prefix", TaskFilter{UUIDs: []string{"cccccccc"}}, []string{"Old finished chore"}},
		{"ids", TaskFilter{IDs: []int{1, 3}}, []string{"Water the garden", "Plan trip"}},
		{"limit", TaskFilter{Limit: 2}, []string{"Water the garden", "Write quarterly report"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := descriptions(Apply(fixture(), tt.filter, now))
			if len(got) != len(tt.want) {
				t.Fatalf("Apply() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Apply() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestApplyConjunction(t *testing.T) {
	f := TaskFilter{
		Statuses:    []model.Status{model.StatusPending, model.StatusWaiting},
		IncludeTags: []string{"outside"},
		Overdue:     boolp(false),
	}
	got := descriptions(Apply(fixture(), f, now))
	if len(got) != 1 || got[0] != "Plan trip" {
		t.Errorf("Apply() = %v, want [Plan trip]", got)
	}
}

func TestParse(t *testing.T) {
	f, err := Parse([]string{
		"status:pending,waiting", "project:home", "pri:H", "+garden", "-later",
		"due.before:2026-03-10", "urgency.over:2.5", "+BLOCKING", "-ACTIVE",
		"depends.none:", "limit:5", "2,4-5", "water", "plants",
	}, now)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(f.Statuses) != 2 || f.Statuses[1] != model.StatusWaiting {
		t.Errorf("Statuses = %v", f.Statuses)
	}
	if f.Project != "home" {
		t.Errorf("Project = %q", f.Project)
	}
	if len(f.Priorities) != 1 || f.Priorities[0] != model.PriorityHigh {
		t.Errorf("Priorities = %v", f.Priorities)
	}
	if len(f.IncludeTags) != 1 || f.IncludeTags[0] != "garden" {
		t.Errorf("IncludeTags = %v", f.IncludeTags)
	}
	if len(f.ExcludeTags) != 1 || f.ExcludeTags[0] != "later" {
		t.Errorf("ExcludeTags = %v", f.ExcludeTags)
	}
	if f.DueBefore == nil || !f.DueBefore.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DueBefore = %v", f.DueBefore)
	}
	if f.MinUrgency == nil || *f.MinUrgency != 2.5 {
		t.Errorf("MinUrgency = %v", f.MinUrgency)
	}
	if f.Blocking == nil || !*f.Blocking {
		t.Errorf("Blocking = %v", f.Blocking)
	}
	if f.Active == nil || *f.Active {
		t.Errorf("Active = %v", f.Active)
	}
	if f.HasDependencies == nil || *f.HasDependencies {
		t.Errorf("HasDependencies = %v", f.HasDependencies)
	}
	if f.Limit != 5 {
		t.Errorf("Limit = %d", f.Limit)
	}
	if want := []int{2, 4, 5}; len(f.IDs) != 3 || f.IDs[0] != want[0] || f.IDs[2] != want[2] {
		t.Errorf("IDs = %v, want %v", f.IDs, want)
	}
	if f.Search != "water plants" {
		t.Errorf("Search = %q", f.Search)
	}
}

func TestParsePatternAndUUID(t *testing.T) {
	f, err := ParseExpression("/quarterly report/ bbbbbbbb-0000", now)
	if err != nil {
		t.Fatalf("ParseExpression: %v", err)
	}
	if f.Search != "quarterly report" {
		t.Errorf("Search = %q", f.Search)
	}
	if len(f.UUIDs) != 1 || f.UUIDs[0] != "bbbbbbbb-0000" {
		t.Errorf("UUIDs = %v", f.UUIDs)
	}
	got := descriptions(Apply(fixture(), f, now))
	if len(got) != 1 || got[0] != "Write quarterly report" {
		t.Errorf("Apply() = %v", got)
	}
}

func TestParseErrors(t *testing.T) {
	for _, args := range [][]string{
		{"status:sleeping"},
		{"pri:urgent"},
		{"due.before:someday"},
		{"urgency.over:high"},
		{"colour:red"},
		{"limit:-1"},
		{"1-20000000"},
		{"3,1-2000000000"},
	} {
		if _, err := Parse(args, now); !errors.Is(err, ErrInvalidFilter) {
			t.Errorf("Parse(%v) error = %v, want ErrInvalidFilter", args, err)
		}
	}
}

func TestStringParsesBack(t *testing.T) {
	f := TaskFilter{
		Statuses:    []model.Status{model.StatusPending},
		Project:     "work",
		Priorities:  []model.Priority{model.PriorityNone},
		IncludeTags: []string{"office"},
		DueBefore:   ptr(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)),
		MaxUrgency:  floatp(9.5),
		Blocked:     boolp(false),
		Search:      "quarterly report",
		IDs:         []int{2},
	}

	expr := f.String()
	back, err := ParseExpression(expr, now)
	if err != nil {
		t.Fatalf("ParseExpression(%q): %v", expr, err)
	}
	if back.String() != expr {
		t.Errorf("round trip = %q, want %q", back.String(), expr)
	}
	if !(TaskFilter{}).IsZero() || f.IsZero() {
		t.Error("IsZero mismatch")
	}
}
