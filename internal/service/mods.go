package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/dates"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

// Date attribute names accepted in modifications.
const (
	AttrDue       = "due"
	AttrWait      = "wait"
	AttrScheduled = "scheduled"
	AttrUntil     = "until"
)

// Modification is a set of attribute changes applied to a task. Nil
// pointers leave a field untouched.
type Modification struct {
	// Description replaces the description when non-empty.
	Description string

	Project  *string
	Priority *model.Priority

	AddTags    []string
	RemoveTags []string

	// Dates maps a date attribute to its new value; a nil value clears it.
	Dates map[string]*time.Time

	Recur *string

	// AddDepends and RemoveDepends hold task references (ids or UUID
	// prefixes).
	AddDepends    []string
	RemoveDepends []string

	// UDAs sets user-defined attributes; an empty value removes one.
	UDAs map[string]string
}

// IsZero reports whether the modification changes nothing.
func (m Modification) IsZero() bool {
	return m.Description == "" && m.Project == nil && m.Priority == nil &&
		len(m.AddTags) == 0 && len(m.RemoveTags) == 0 && len(m.Dates) == 0 &&
		m.Recur == nil && len(m.AddDepends) == 0 && len(m.RemoveDepends) == 0 &&
		len(m.UDAs) == 0
}

// SetDate records a date change.
func (m *Modification) SetDate(attr string, t *time.Time) {
	if m.Dates == nil {
		m.Dates = make(map[string]*time.Time)
	}
	m.Dates[attr] = t
}

// ParseModification reads Taskwarrior-style modification arguments:
//
//	project:home pri:H +tag -tag due:tomorrow wait:mon until:eom
//	recur:weekly depends:3,4 uda.estimate:2h some description words
//
// An attribute with an empty value clears it.
func ParseModification(args []string, now time.Time) (Modification, error) {
	var (
		m     Modification
		words []string
	)
	for _, raw := range args {
		for _, term := range strings.Fields(raw) {
			word, err := parseModTerm(&m, term, now)
			if err != nil {
				return Modification{}, err
			}
			if word != "" {
				words = append(words, word)
			}
		}
	}
	m.Description = strings.Join(words, " ")
	return m, nil
}

func parseModTerm(m *Modification, term string, now time.Time) (string, error) {
	switch {
	case strings.HasPrefix(term, "+") && len(term) > 1:
		m.AddTags = append(m.AddTags, term[1:])
		return "", nil
	case strings.HasPrefix(term, "-") && len(term) > 1 && !isNumber(term[1:]):
		m.RemoveTags = append(m.RemoveTags, term[1:])
		return "", nil
	}

	name, value, ok := strings.Cut(term, ":")
	if !ok || strings.Contains(name, "/") {
		return term, nil
	}

	switch strings.ToLower(name) {
	case "project", "proj", "pro":
		m.Project = &value
	case "priority", "pri":
		p, err := model.ParsePriority(value)
		if err != nil {
			return "", err
		}
		m.Priority = &p
	case AttrDue, AttrWait, AttrScheduled, "sched", AttrUntil:
		attr := strings.ToLower(name)
		if attr == "sched" {
			attr = AttrScheduled
		}
		if value == "" {
			m.SetDate(attr, nil)
			return "", nil
		}
		t, err := dates.Parse(value, now)
		if err != nil {
			return "", fmt.Errorf("%s: %w", attr, err)
		}
		m.SetDate(attr, &t)
	case "recur":
		if value != "" {
			if _, err := dates.ParsePeriod(value); err != nil {
				return "", err
			}
		}
		m.Recur = &value
	case "depends", "dep":
		for _, ref := range strings.Split(value, ",") {
			ref = strings.TrimSpace(ref)
			switch {
			case ref == "":
			case strings.HasPrefix(ref, "-"):
				m.RemoveDepends = append(m.RemoveDepends, ref[1:])
			default:
				m.AddDepends = append(m.AddDepends, ref)
			}
		}
	default:
		if uda, ok := strings.CutPrefix(strings.ToLower(name), "uda."); ok && uda != "" {
			if m.UDAs == nil {
				m.UDAs = make(map[string]string)
			}
			m.UDAs[uda] = value
			return "", nil
		}
		return term, nil
	}
	return "", nil
}

func isNumber(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// applyModification changes t in place. Dependency references must already
// be resolved to UUIDs.
func applyModification(t *model.Task, m Modification, addDeps, removeDeps []string) {
	if m.Description != "" {
		t.Description = m.Description
	}
	if m.Project != nil {
		t.Project = *m.Project
	}
	if m.Priority != nil {
		t.Priority = *m.Priority
	}
	if len(m.AddTags) > 0 {
		t.AddTag(m.AddTags...)
	}
	if len(m.RemoveTags) > 0 {
		t.RemoveTag(m.RemoveTags...)
	}
	for attr, v := range m.Dates {
		switch attr {
		case AttrDue:
			t.Due = v
		case AttrWait:
			t.Wait = v
		case AttrScheduled:
			t.Scheduled = v
		case AttrUntil:
			t.Until = v
		}
	}
	if m.Recur != nil {
		t.Recur = *m.Recur
	}
	for _, dep := range addDeps {
		if !t.DependsOn(dep) {
			t.Depends = append(t.Depends, dep)
		}
	}
	if len(removeDeps) > 0 {
		drop := make(map[string]bool, len(removeDeps))
		for _, dep := range removeDeps {
			drop[dep] = true
		}
		kept := t.Depends[:0]
		for _, dep := range t.Depends {
			if !drop[dep] {
				kept = append(kept, dep)
			}
		}
		t.Depends = kept
	}
	sort.Strings(t.Depends)
	if len(t.Depends) == 0 {
		t.Depends = nil
	}
	for k, v := range m.UDAs {
		if v == "" {
			delete(t.UDAs, k)
			continue
		}
		if t.UDAs == nil {
			t.UDAs = make(map[string]string)
		}
		t.UDAs[k] = v
	}
	if len(t.UDAs) == 0 {
		t.UDAs = nil
	}
}
