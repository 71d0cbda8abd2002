// Package urgency scores tasks with Taskwarrior's weighted-coefficient
// urgency algorithm.
package urgency

import (
	"math"
	"sort"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

// Term is one contribution to a task's urgency score.
type Term struct {
	Name        string  `json:"name"`
	Coefficient float64 `json:"coefficient"`
	Factor      float64 `json:"factor"`
	Value       float64 `json:"value"`
}

// Context carries the evaluation time and the dependency graph of the
// collection the task belongs to.
type Context struct {
	Now   time.Time
	Graph Graph
}

// NewContext builds a context over the given collection.
func NewContext(tasks []model.Task, now time.Time) Context {
	return Context{Now: now, Graph: NewGraph(tasks)}
}

// Calculate returns the urgency of t. Only pending and waiting tasks are
// scored; every other status yields 0. The result is always finite.
func Calculate(t model.Task, cfg model.UrgencyConfig, ctx Context) float64 {
	if !t.IsPending() {
		return 0
	}
	var sum float64
	for _, term := range terms(t, cfg, ctx) {
		sum += term.Value
	}
	return finite(round4(sum))
}

// Breakdown returns the non-zero terms that make up the urgency of t,
// rounded for display.
func Breakdown(t model.Task, cfg model.UrgencyConfig, ctx Context) []Term {
	if !t.IsPending() {
		return nil
	}
	out := terms(t, cfg, ctx)
	for i := range out {
		out[i].Factor = round4(out[i].Factor)
		out[i].Value = finite(round4(out[i].Value))
	}
	return out
}

func terms(t model.Task, cfg model.UrgencyConfig, ctx Context) []Term {
	var out []Term
	add := func(name string, coefficient, factor float64) {
		if coefficient == 0 || factor == 0 {
			return
		}
		out = append(out, Term{
			Name:        name,
			Coefficient: coefficient,
			Factor:      factor,
			Value:       coefficient * factor,
		})
	}

	add("priority", cfg.PriorityCoefficient(t.Priority), 1)

	if t.Project != "" {
		add("project", cfg.Project, 1)
		for _, prefix := range sortedKeys(cfg.ProjectCoefficients) {
			if model.ProjectMatches(t.Project, prefix) {
				add("project."+prefix, cfg.ProjectCoefficients[prefix], 1)
			}
		}
	}

	if t.IsActive() {
		add("active", cfg.Active, 1)
	}
	if t.Scheduled != nil && !t.Scheduled.After(ctx.Now) {
		add("scheduled", cfg.Scheduled, 1)
	}
	if t.Status == model.StatusWaiting {
		add("waiting", cfg.Waiting, 1)
	}
	if ctx.Graph.Blocked(t.UUID) {
		add("blocked", cfg.Blocked, 1)
	}
	if ctx.Graph.Blocking(t.UUID) {
		add("blocking", cfg.Blocking, 1)
	}

	add("annotations", cfg.Annotations, countFactor(len(t.Annotations)))
	add("tags", cfg.Tags, countFactor(len(t.Tags)))

	if t.HasTag(model.TagNext) {
		add("next", cfg.NextTag, 1)
	}
	for _, tag := range sortedKeys(cfg.TagCoefficients) {
		if t.HasTag(tag) {
			add("tag."+tag, cfg.TagCoefficients[tag], 1)
		}
	}

	if t.Due != nil {
		add("due", cfg.Due, DueFactor(*t.Due, ctx.Now))
	}
	add("age", cfg.Age, AgeFactor(t.Entry, ctx.Now, cfg.AgeMaxDays))

	for _, name := range sortedKeys(cfg.UDACoefficients) {
		if v, ok := t.UDAs[name]; ok && v != "" {
			add("uda."+name, cfg.UDACoefficients[name], 1)
		}
	}

	return out
}

// DueFactor maps due-date proximity onto [0.2, 1.0]: tasks overdue by a
// week or more score 1.0, tasks more than two weeks out score 0.2, and the
// window in between is linear.
func DueFactor(due, now time.Time) float64 {
	daysOverdue := now.Sub(due).Hours() / 24
	switch {
	case daysOverdue >= 7:
		return 1.0
	case daysOverdue >= -14:
		return ((daysOverdue + 14) * 0.8 / 21) + 0.2
	default:
		return 0.2
	}
}

// AgeFactor is the task age as a fraction of maxDays, clamped to [0, 1].
func AgeFactor(entry, now time.Time, maxDays float64) float64 {
	if entry.IsZero() {
		return 0
	}
	if maxDays <= 0 {
		return 1
	}
	age := now.Sub(entry).Hours() / 24
	if age <= 0 {
		return 0
	}
	return math.Min(age/maxDays, 1)
}

// countFactor is Taskwarrior's ladder for tag and annotation counts.
func countFactor(n int) float64 {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return 0.8
	case n == 2:
		return 0.9
	default:
		return 1.0
	}
}

// Recompute stores a fresh urgency on every task of the collection.
func Recompute(tasks []model.Task, cfg model.UrgencyConfig, now time.Time) {
	ctx := NewContext(tasks, now)
	for i := range tasks {
		tasks[i].Urgency = Calculate(tasks[i], cfg, ctx)
	}
}

// Sort orders tasks by urgency (highest first), then by entry time, then by
// UUID so the order is total.
func Sort(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Urgency != b.Urgency {
			return a.Urgency > b.Urgency
		}
		if !a.Entry.Equal(b.Entry) {
			return a.Entry.Before(b.Entry)
		}
		return a.UUID < b.UUID
	})
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
