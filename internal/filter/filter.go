// Package filter selects tasks with declarative, Taskwarrior-style
// predicates.
package filter

import (
	"strings"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/urgency"
)

// TaskFilter is a conjunction of optional predicates. The zero value
// matches every task.
type TaskFilter struct {
	// Statuses matches any of the listed statuses.
	Statuses []model.Status

	// Project matches the project and every sub-project below it.
	Project string

	// Priorities matches any of the listed priorities.
	Priorities []model.Priority

	// IncludeTags must all be present; ExcludeTags must all be absent;
	// at least one of AnyTags must be present.
	IncludeTags []string
	ExcludeTags []string
	AnyTags     []string

	DueBefore   *time.Time
	DueAfter    *time.Time
	EntryBefore *time.Time
	EntryAfter  *time.Time

	// MinUrgency and MaxUrgency bound the urgency range (inclusive).
	MinUrgency *float64
	MaxUrgency *float64

	HasDependencies *bool
	Blocked         *bool
	Blocking        *bool
	Overdue         *bool
	Active          *bool

	// Search is a case-insensitive substring of the description or of an
	// annotation.
	Search string

	// UUIDs match by prefix; IDs match working-set numbers.
	UUIDs []string
	IDs   []int

	// Limit caps the number of results when positive.
	Limit int
}

// IsZero reports whether the filter has no predicates.
func (f TaskFilter) IsZero() bool {
	return f.String() == ""
}

// WithDefaultStatus returns f restricted to statuses when it names neither
// a status nor specific tasks.
func (f TaskFilter) WithDefaultStatus(statuses ...model.Status) TaskFilter {
	if len(f.Statuses) > 0 || len(f.UUIDs) > 0 || len(f.IDs) > 0 {
		return f
	}
	f.Statuses = append([]model.Status(nil), statuses...)
	return f
}

// Apply returns the tasks matching f, preserving input order. Dependency
// predicates are evaluated against the whole input collection.
func Apply(tasks []model.Task, f TaskFilter, now time.Time) []model.Task {
	graph := urgency.NewGraph(tasks)
	var out []model.Task
	for _, t := range tasks {
		if !Matches(t, f, graph, now) {
			continue
		}
		out = append(out, t)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

// Matches evaluates f against a single task.
func Matches(t model.Task, f TaskFilter, graph urgency.Graph, now time.Time) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
		return false
	}
	if f.Project != "" && !model.ProjectMatches(t.Project, f.Project) {
		return false
	}
	if len(f.Priorities) > 0 && !containsPriority(f.Priorities, t.Priority) {
		return false
	}
	for _, tag := range f.IncludeTags {
		if !t.HasTag(tag) {
			return false
		}
	}
	for _, tag := range f.ExcludeTags {
		if t.HasTag(tag) {
			return false
		}
	}
	if len(f.AnyTags) > 0 {
		found := false
		for _, tag := range f.AnyTags {
			if t.HasTag(tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.DueBefore != nil && (t.Due == nil || !t.Due.Before(*f.DueBefore)) {
		return false
	}
	if f.DueAfter != nil && (t.Due == nil || !t.Due.After(*f.DueAfter)) {
		return false
	}
	if f.EntryBefore != nil && !t.Entry.Before(*f.EntryBefore) {
		return false
	}
	if f.EntryAfter != nil && !t.Entry.After(*f.EntryAfter) {
		return false
	}

	if f.MinUrgency != nil && t.Urgency < *f.MinUrgency {
		return false
	}
	if f.MaxUrgency != nil && t.Urgency > *f.MaxUrgency {
		return false
	}

	if f.HasDependencies != nil && (len(t.Depends) > 0) != *f.HasDependencies {
		return false
	}
	if f.Blocked != nil && graph.Blocked(t.UUID) != *f.Blocked {
		return false
	}
	if f.Blocking != nil && graph.Blocking(t.UUID) != *f.Blocking {
		return false
	}
	if f.Overdue != nil && t.IsOverdue(now) != *f.Overdue {
		return false
	}
	if f.Active != nil && t.IsActive() != *f.Active {
		return false
	}

	if f.Search != "" && !matchesSearch(t, f.Search) {
		return false
	}

	if len(f.UUIDs) > 0 || len(f.IDs) > 0 {
		if !matchesIdentity(t, f.UUIDs, f.IDs) {
			return false
		}
	}

	return true
}

func matchesSearch(t model.Task, q string) bool {
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	for _, a := range t.Annotations {
		if strings.Contains(strings.ToLower(a.Description), q) {
			return true
		}
	}
	return false
}

// matchesIdentity accepts the task when any of the listed UUID prefixes or
// working-set numbers refers to it.
func matchesIdentity(t model.Task, uuids []string, ids []int) bool {
	for _, prefix := range uuids {
		if strings.HasPrefix(t.UUID, strings.ToLower(prefix)) {
			return true
		}
	}
	if t.ID == 0 {
		return false
	}
	for _, id := range ids {
		if t.ID == id {
			return true
		}
	}
	return false
}

func containsStatus(list []model.Status, s model.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsPriority(list []model.Priority, p model.Priority) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}
