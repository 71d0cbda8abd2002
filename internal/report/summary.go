package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/urgency"
)

// NoProject labels tasks without a project in summaries.
const NoProject = "(none)"

// ProjectSummary is one row of the project summary. Parent projects
// aggregate every sub-project below them.
type ProjectSummary struct {
	Project         string        `json:"project"`
	Depth           int           `json:"depth"`
	Remaining       int           `json:"remaining"`
	Completed       int           `json:"completed"`
	AvgAge          time.Duration `json:"avg_age"`
	PercentComplete float64       `json:"percent_complete"`

	ageSum time.Duration
}

// TagCount is the number of open tasks carrying a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Stats summarizes a task collection.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Waiting   int `json:"waiting"`
	Completed int `json:"completed"`
	Deleted   int `json:"deleted"`
	Recurring int `json:"recurring"`

	Overdue  int `json:"overdue"`
	Active   int `json:"active"`
	Blocked  int `json:"blocked"`
	Blocking int `json:"blocking"`

	AvgUrgency float64 `json:"avg_urgency"`
	MaxUrgency float64 `json:"max_urgency"`

	// CompletionRate is completed / (completed + open), in [0, 1].
	CompletionRate    float64       `json:"completion_rate"`
	AvgCompletionTime time.Duration `json:"avg_completion_time"`

	Projects []ProjectSummary `json:"projects"`
	Tags     []TagCount       `json:"tags"`
}

// Summary computes collection statistics at now. Urgency figures cover
// open tasks and use the stored urgency values.
func Summary(tasks []model.Task, now time.Time) Stats {
	var (
		s          Stats
		urgencySum float64
		open       int
		doneSum    time.Duration
		doneCount  int
	)
	graph := urgency.NewGraph(tasks)
	projects := make(map[string]*ProjectSummary)
	tags := make(map[string]int)

	for _, t := range tasks {
		s.Total++
		switch t.Status {
		case model.StatusPending:
			s.Pending++
		case model.StatusWaiting:
			s.Waiting++
		case model.StatusCompleted:
			s.Completed++
		case model.StatusDeleted:
			s.Deleted++
		case model.StatusRecurring:
			s.Recurring++
		}

		if t.IsPending() {
			if t.IsOverdue(now) {
				s.Overdue++
			}
			if t.IsActive() {
				s.Active++
			}
			if graph.Blocked(t.UUID) {
				s.Blocked++
			}
			if graph.Blocking(t.UUID) {
				s.Blocking++
			}
			if open == 0 || t.Urgency > s.MaxUrgency {
				s.MaxUrgency = t.Urgency
			}
			urgencySum += t.Urgency
			open++
			for _, tag := range t.Tags {
				tags[tag]++
			}
		}

		if t.Status == model.StatusCompleted && t.End != nil && !t.Entry.IsZero() {
			doneSum += t.End.Sub(t.Entry)
			doneCount++
		}

		if t.IsPending() || t.Status == model.StatusCompleted {
			addToProjects(projects, t, now)
		}
	}

	if open > 0 {
		s.AvgUrgency = round2(urgencySum / float64(open))
	}
	if s.Completed+open > 0 {
		s.CompletionRate = float64(s.Completed) / float64(s.Completed+open)
	}
	if doneCount > 0 {
		s.AvgCompletionTime = doneSum / time.Duration(doneCount)
	}

	s.Projects = finishProjects(projects)
	s.Tags = sortTags(tags)
	return s
}

func addToProjects(projects map[string]*ProjectSummary, t model.Task, now time.Time) {
	name := t.Project
	if name == "" {
		name = NoProject
	}
	parts := strings.Split(name, ".")
	for i := range parts {
		key := strings.Join(parts[:i+1], ".")
		row, ok := projects[key]
		if !ok {
			row = &ProjectSummary{Project: key, Depth: i}
			projects[key] = row
		}
		if t.IsPending() {
			row.Remaining++
			row.ageSum += now.Sub(t.Entry)
		} else {
			row.Completed++
		}
	}
}

func finishProjects(projects map[string]*ProjectSummary) []ProjectSummary {
	out := make([]ProjectSummary, 0, len(projects))
	for _, row := range projects {
		if row.Remaining > 0 {
			row.AvgAge = row.ageSum / time.Duration(row.Remaining)
		}
		if total := row.Remaining + row.Completed; total > 0 {
			row.PercentComplete = round2(float64(row.Completed) * 100 / float64(total))
		}
		row.ageSum = 0
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Project < out[j].Project
	})
	return out
}

func sortTags(tags map[string]int) []TagCount {
	out := make([]TagCount, 0, len(tags))
	for tag, n := range tags {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
