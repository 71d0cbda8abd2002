package model

import (
	"fmt"
	"math"
)

// UrgencyConfig holds the weighted coefficients used to score tasks. The
// defaults mirror Taskwarrior's urgency algorithm. Values are treated as
// immutable; use the With* helpers to derive a modified copy.
type UrgencyConfig struct {
	PriorityHigh   float64 `mapstructure:"priority_high" yaml:"priority_high"`
	PriorityMedium float64 `mapstructure:"priority_medium" yaml:"priority_medium"`
	PriorityLow    float64 `mapstructure:"priority_low" yaml:"priority_low"`
	NextTag        float64 `mapstructure:"next_tag" yaml:"next_tag"`
	Due            float64 `mapstructure:"due" yaml:"due"`
	Blocking       float64 `mapstructure:"blocking" yaml:"blocking"`
	Blocked        float64 `mapstructure:"blocked" yaml:"blocked"`
	Scheduled      float64 `mapstructure:"scheduled" yaml:"scheduled"`
	Active         float64 `mapstructure:"active" yaml:"active"`
	Age            float64 `mapstructure:"age" yaml:"age"`
	AgeMaxDays     float64 `mapstructure:"age_max_days" yaml:"age_max_days"`
	Annotations    float64 `mapstructure:"annotations" yaml:"annotations"`
	Tags           float64 `mapstructure:"tags" yaml:"tags"`
	Project        float64 `mapstructure:"project" yaml:"project"`
	Waiting        float64 `mapstructure:"waiting" yaml:"waiting"`

	// TagCoefficients adds a weight for each listed tag present on a task.
	TagCoefficients map[string]float64 `mapstructure:"-" yaml:"tag_coefficients"`

	// ProjectCoefficients adds a weight when the task project matches the
	// key or is nested below it.
	ProjectCoefficients map[string]float64 `mapstructure:"-" yaml:"project_coefficients"`

	// UDACoefficients adds a weight when the named UDA is set on a task.
	UDACoefficients map[string]float64 `mapstructure:"-" yaml:"uda_coefficients"`
}

// DefaultUrgencyConfig returns Taskwarrior's default coefficients.
func DefaultUrgencyConfig() UrgencyConfig {
	return UrgencyConfig{
		PriorityHigh:   6.0,
		PriorityMedium: 3.9,
		PriorityLow:    1.8,
		NextTag:        15.0,
		Due:            12.0,
		Blocking:       8.0,
		Blocked:        -5.0,
		Scheduled:      5.0,
		Active:         4.0,
		Age:            2.0,
		AgeMaxDays:     365,
		Annotations:    1.0,
		Tags:           1.0,
		Project:        1.0,
		Waiting:        -3.0,
	}
}

// PriorityCoefficient returns the coefficient for the given priority.
func (c UrgencyConfig) PriorityCoefficient(p Priority) float64 {
	switch p {
	case PriorityHigh:
		return c.PriorityHigh
	case PriorityMedium:
		return c.PriorityMedium
	case PriorityLow:
		return c.PriorityLow
	}
	return 0
}

// Coefficients returns the scalar coefficients keyed by their config name.
func (c UrgencyConfig) Coefficients() map[string]float64 {
	return map[string]float64{
		"priority_high":   c.PriorityHigh,
		"priority_medium": c.PriorityMedium,
		"priority_low":    c.PriorityLow,
		"next_tag":        c.NextTag,
		"due":             c.Due,
		"blocking":        c.Blocking,
		"blocked":         c.Blocked,
		"scheduled":       c.Scheduled,
		"active":          c.Active,
		"age":             c.Age,
		"age_max_days":    c.AgeMaxDays,
		"annotations":     c.Annotations,
		"tags":            c.Tags,
		"project":         c.Project,
		"waiting":         c.Waiting,
	}
}

// WithCoefficient returns a copy of c with the named scalar coefficient
// replaced.
func (c UrgencyConfig) WithCoefficient(name string, value float64) (UrgencyConfig, error) {
	out := c.clone()
	switch name {
	case "priority_high":
		out.PriorityHigh = value
	case "priority_medium":
		out.PriorityMedium = value
	case "priority_low":
		out.PriorityLow = value
	case "next_tag":
		out.NextTag = value
	case "due":
		out.Due = value
	case "blocking":
		out.Blocking = value
	case "blocked":
		out.Blocked = value
	case "scheduled":
		out.Scheduled = value
	case "active":
		out.Active = value
	case "age":
		out.Age = value
	case "age_max_days":
		out.AgeMaxDays = value
	case "annotations":
		out.Annotations = value
	case "tags":
		out.Tags = value
	case "project":
		out.Project = value
	case "waiting":
		out.Waiting = value
	default:
		return c, fmt.Errorf("unknown urgency coefficient %q", name)
	}
	if err := out.Validate(); err != nil {
		return c, err
	}
	return out, nil
}

// WithTagCoefficient returns a copy of c with a per-tag coefficient set.
func (c UrgencyConfig) WithTagCoefficient(tag string, value float64) (UrgencyConfig, error) {
	return c.withWeight(func(u *UrgencyConfig) *map[string]float64 { return &u.TagCoefficients }, "tag", tag, value)
}

// WithProjectCoefficient returns a copy of c with a per-project coefficient
// set.
func (c UrgencyConfig) WithProjectCoefficient(project string, value float64) (UrgencyConfig, error) {
	return c.withWeight(func(u *UrgencyConfig) *map[string]float64 { return &u.ProjectCoefficients }, "project", project, value)
}

// WithUDACoefficient returns a copy of c with a per-UDA coefficient set.
func (c UrgencyConfig) WithUDACoefficient(uda string, value float64) (UrgencyConfig, error) {
	return c.withWeight(func(u *UrgencyConfig) *map[string]float64 { return &u.UDACoefficients }, "uda", uda, value)
}

func (c UrgencyConfig) withWeight(field func(*UrgencyConfig) *map[string]float64, kind, key string, value float64) (UrgencyConfig, error) {
	if key == "" {
		return c, fmt.Errorf("urgency %s coefficient needs a name", kind)
	}
	out := c.clone()
	m := field(&out)
	if *m == nil {
		*m = make(map[string]float64)
	}
	(*m)[key] = value
	if err := out.Validate(); err != nil {
		return c, err
	}
	return out, nil
}

// Validate rejects non-finite coefficients and a non-positive age horizon.
func (c UrgencyConfig) Validate() error {
	for name, v := range c.Coefficients() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("urgency coefficient %s is not finite", name)
		}
	}
	for _, m := range []map[string]float64{c.TagCoefficients, c.ProjectCoefficients, c.UDACoefficients} {
		for name, v := range m {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("urgency coefficient %s is not finite", name)
			}
		}
	}
	if c.AgeMaxDays <= 0 {
		return fmt.Errorf("urgency age_max_days must be positive, got %v", c.AgeMaxDays)
	}
	return nil
}

func (c UrgencyConfig) clone() UrgencyConfig {
	out := c
	out.TagCoefficients = cloneWeights(c.TagCoefficients)
	out.ProjectCoefficients = cloneWeights(c.ProjectCoefficients)
	out.UDACoefficients = cloneWeights(c.UDACoefficients)
	return out
}

func cloneWeights(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
