package taskform

import (
	"testing"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/service"
)

// ============================================================================
// buildModification
// ============================================================================

func TestBuildModificationCreate(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.Local)
	fb := formBindings{
		description: "  water plants ",
		project:     "home",
		priority:    model.PriorityHigh,
		tags:        "garden  garden chores",
		due:         "tomorrow",
		recur:       "weekly",
	}

	mod, err := buildModification(fb, nil, now)
	if err != nil {
		t.Fatalf("buildModification: %v", err)
	}
	if mod.Description != "water plants" {
		t.Errorf("Description = %q", mod.Description)
	}
	if mod.Project == nil || *mod.Project != "home" {
		t.Errorf("Project = %v", mod.Project)
	}
	if mod.Priority == nil || *mod.Priority != model.PriorityHigh {
		t.Errorf("Priority = %v", mod.Priority)
	}
	if len(mod.AddTags) != 2 || mod.AddTags[0] != "chores" || mod.AddTags[1] != "garden" {
		t.Errorf("AddTags = %v", mod.AddTags)
	}
	due := mod.Dates[service.AttrDue]
	if due == nil || !due.Equal(time.Date(2024, 6, 11, 0, 0, 0, 0, time.Local)) {
		t.Errorf("due = %v", due)
	}
	if _, ok := mod.Dates[service.AttrWait]; ok {
		t.Error("empty wait should not be set on create")
	}
	if mod.Recur == nil || *mod.Recur != "weekly" {
		t.Errorf("Recur = %v", mod.Recur)
	}
}

func TestBuildModificationEditOnlyChanges(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.Local)
	due := time.Date(2024, 6, 12, 17, 0, 0, 0, time.Local)
	orig := model.Task{
		UUID:        "a",
		Description: "write report",
		Project:     "work",
		Tags:        []string{"draft", "q2"},
		Due:         &due,
	}

	fb := bindingsFor(orig)
	mod, err := buildModification(fb, &orig, now)
	if err != nil {
		t.Fatalf("buildModification: %v", err)
	}
	if !mod.IsZero() {
		t.Fatalf("unchanged form produced %+v", mod)
	}

	fb.tags = "q2 final"
	fb.due = ""
	fb.priority = model.PriorityLow
	mod, err = buildModification(fb, &orig, now)
	if err != nil {
		t.Fatalf("buildModification: %v", err)
	}
	if mod.Description != "" || mod.Project != nil {
		t.Errorf("unchanged fields included: %+v", mod)
	}
	if len(mod.AddTags) != 1 || mod.AddTags[0] != "final" {
		t.Errorf("AddTags = %v", mod.AddTags)
	}
	if len(mod.RemoveTags) != 1 || mod.RemoveTags[0] != "draft" {
		t.Errorf("RemoveTags = %v", mod.RemoveTags)
	}
	if v, ok := mod.Dates[service.AttrDue]; !ok || v != nil {
		t.Errorf("cleared due = %v, %v", v, ok)
	}
	if mod.Priority == nil || *mod.Priority != model.PriorityLow {
		t.Errorf("Priority = %v", mod.Priority)
	}
}

func TestBuildModificationBadDate(t *testing.T) {
	_, err := buildModification(formBindings{description: "x", due: "someday-ish"}, nil, time.Now())
	if err == nil {
		t.Fatal("expected error for unparseable date")
	}
}
