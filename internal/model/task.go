package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusDeleted   Status = "deleted"
	StatusWaiting   Status = "waiting"
	StatusRecurring Status = "recurring"
)

// Priority is the Taskwarrior-style priority level. The empty value means
// no priority.
type Priority string

const (
	PriorityHigh   Priority = "H"
	PriorityMedium Priority = "M"
	PriorityLow    Priority = "L"
	PriorityNone   Priority = ""
)

// TagNext is the special tag that carries its own urgency coefficient.
const TagNext = "next"

// CompactTimeLayout is the timestamp layout used by Taskwarrior exports.
const CompactTimeLayout = "20060102T150405Z"

// ErrInvalidTask is returned by Validate for malformed tasks.
var ErrInvalidTask = errors.New("invalid task")

// ParseStatus converts user input into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusDeleted:
		return StatusDeleted, nil
	case StatusWaiting:
		return StatusWaiting, nil
	case StatusRecurring:
		return StatusRecurring, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// ParsePriority converts user input (H/M/L, high/medium/low, none) into a
// Priority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "h", "high":
		return PriorityHigh, nil
	case "m", "medium":
		return PriorityMedium, nil
	case "l", "low":
		return PriorityLow, nil
	case "", "none", "n":
		return PriorityNone, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Label returns a human-readable priority name.
func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	}
	return "none"
}

// Annotation is a timestamped note attached to a task.
type Annotation struct {
	Entry       time.Time `json:"entry"`
	Description string    `json:"description"`
}

// Task is a single unit of work. Tasks are replaced as whole records;
// callers mutate a Clone and write it back.
type Task struct {
	// UUID is the stable identity of the task.
	UUID string `json:"uuid"`

	// ID is the short working-set number shown to the user. It is assigned
	// at listing time and is zero for completed and deleted tasks.
	ID int `json:"id"`

	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority,omitempty"`

	// Project is a dotted hierarchy such as "home.garden".
	Project string `json:"project,omitempty"`

	Tags        []string          `json:"tags,omitempty"`
	Depends     []string          `json:"depends,omitempty"`
	Annotations []Annotation      `json:"annotations,omitempty"`
	UDAs        map[string]string `json:"udas,omitempty"`

	Entry     time.Time  `json:"entry"`
	Modified  time.Time  `json:"modified"`
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`
	Due       *time.Time `json:"due,omitempty"`
	Wait      *time.Time `json:"wait,omitempty"`
	Scheduled *time.Time `json:"scheduled,omitempty"`
	Until     *time.Time `json:"until,omitempty"`

	// Recur is the recurrence period of a template task (status recurring).
	Recur string `json:"recur,omitempty"`

	// Parent links a recurring instance to its template.
	Parent string `json:"parent,omitempty"`

	// Urgency is derived from the task attributes and the urgency
	// configuration.
	Urgency float64 `json:"urgency"`
}

// IsPending reports whether the task is still open (pending or waiting).
func (t Task) IsPending() bool {
	return t.Status == StatusPending || t.Status == StatusWaiting
}

// IsActive reports whether the task has been started and not stopped.
func (t Task) IsActive() bool {
	return t.Start != nil && t.IsPending()
}

// IsOverdue reports whether a pending task is past its due date.
func (t Task) IsOverdue(now time.Time) bool {
	return t.IsPending() && t.Due != nil && t.Due.Before(now)
}

// HasTag reports whether the task carries the given tag.
func (t Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// AddTag adds tags, keeping the set sorted and free of duplicates.
func (t *Task) AddTag(tags ...string) {
	t.Tags = NormalizeTags(append(t.Tags, tags...))
}

// RemoveTag removes tags if present.
func (t *Task) RemoveTag(tags ...string) {
	drop := make(map[string]bool, len(tags))
	for _, tag := range tags {
		drop[tag] = true
	}
	kept := t.Tags[:0]
	for _, tag := range t.Tags {
		if !drop[tag] {
			kept = append(kept, tag)
		}
	}
	t.Tags = NormalizeTags(kept)
}

// DependsOn reports whether the task depends on the task with the given UUID.
func (t Task) DependsOn(uuid string) bool {
	for _, dep := range t.Depends {
		if dep == uuid {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	c.Tags = append([]string(nil), t.Tags...)
	c.Depends = append([]string(nil), t.Depends...)
	c.Annotations = append([]Annotation(nil), t.Annotations...)
	if t.UDAs != nil {
		c.UDAs = make(map[string]string, len(t.UDAs))
		for k, v := range t.UDAs {
			c.UDAs[k] = v
		}
	}
	c.Start = cloneTime(t.Start)
	c.End = cloneTime(t.End)
	c.Due = cloneTime(t.Due)
	c.Wait = cloneTime(t.Wait)
	c.Scheduled = cloneTime(t.Scheduled)
	c.Until = cloneTime(t.Until)
	return c
}

// Validate checks the structural invariants of a task.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: description must not be empty", ErrInvalidTask)
	}
	if _, err := ParseStatus(string(t.Status)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTask, err)
	}
	if _, err := ParsePriority(string(t.Priority)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTask, err)
	}
	if t.UUID != "" && t.DependsOn(t.UUID) {
		return fmt.Errorf("%w: task cannot depend on itself", ErrInvalidTask)
	}
	if t.Status == StatusRecurring && (t.Recur == "" || t.Due == nil) {
		return fmt.Errorf("%w: recurring task needs recur and due", ErrInvalidTask)
	}
	return nil
}

// NormalizeTags trims, deduplicates and sorts a tag list. Empty tags are
// dropped.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// ProjectMatches reports whether project equals prefix or is nested below it.
func ProjectMatches(project, prefix string) bool {
	if prefix == "" {
		return true
	}
	if project == prefix {
		return true
	}
	return strings.HasPrefix(project, prefix+".")
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
