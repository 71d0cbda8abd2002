// Package report aggregates task collections into burndown, history and
// summary views.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/dates"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

// Interval is the width of a report bucket.
type Interval string

const (
	Daily   Interval = "daily"
	Weekly  Interval = "weekly"
	Monthly Interval = "monthly"
)

// ErrInvalidInterval is returned by ParseInterval for unknown names.
var ErrInvalidInterval = errors.New("invalid interval")

// ParseInterval accepts daily, weekly and monthly (or d, w, m).
func ParseInterval(s string) (Interval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "d", "":
		return Daily, nil
	case "weekly", "week", "w":
		return Weekly, nil
	case "monthly", "month", "m":
		return Monthly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidInterval, s)
}

// Bucket is a half-open time range [Start, End).
type Bucket struct {
	Start time.Time
	End   time.Time
}

// Label formats the bucket start for charts and tables.
func (b Bucket) Label(iv Interval) string {
	switch iv {
	case Monthly:
		return b.Start.Format("2006-01")
	case Weekly:
		return b.Start.Format("Jan 02")
	}
	return b.Start.Format("Mon 02")
}

// Buckets splits [from, to] into aligned buckets. Weeks start on Monday and
// months on the first. The bucket containing to is included.
func Buckets(from, to time.Time, iv Interval) []Bucket {
	if to.Before(from) {
		return nil
	}
	start := align(from, iv)
	var out []Bucket
	for !start.After(to) {
		end := advance(start, iv)
		out = append(out, Bucket{Start: start, End: end})
		start = end
	}
	return out
}

func align(t time.Time, iv Interval) time.Time {
	day := dates.StartOfDay(t)
	switch iv {
	case Weekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case Monthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	}
	return day
}

func advance(t time.Time, iv Interval) time.Time {
	switch iv {
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Monthly:
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

// BurndownPoint is the state of the task collection at the end of a bucket.
type BurndownPoint struct {
	Bucket
	Pending int `json:"pending"`
	Started int `json:"started"`
	Done    int `json:"done"`
}

// Burndown reports, for every bucket, how many tasks were pending, started
// and done at the end of that bucket (or at to, for the last one). Tasks
// are counted once they exist and until they are deleted. Recurring
// templates are excluded.
func Burndown(tasks []model.Task, from, to time.Time, iv Interval) []BurndownPoint {
	buckets := Buckets(from, to, iv)
	out := make([]BurndownPoint, 0, len(buckets))
	for _, b := range buckets {
		at := b.End
		if at.After(to) {
			at = to
		}
		p := BurndownPoint{Bucket: b}
		for _, t := range tasks {
			switch stateAt(t, at) {
			case statePending:
				p.Pending++
			case stateStarted:
				p.Started++
			case stateDone:
				p.Done++
			}
		}
		out = append(out, p)
	}
	return out
}

type taskState int

const (
	stateAbsent taskState = iota
	statePending
	stateStarted
	stateDone
)

func stateAt(t model.Task, at time.Time) taskState {
	if t.Status == model.StatusRecurring || t.Entry.After(at) {
		return stateAbsent
	}
	closed := t.End != nil && !t.End.After(at)
	switch {
	case t.Status == model.StatusDeleted && closed:
		return stateAbsent
	case t.Status == model.StatusCompleted && closed:
		return stateDone
	case t.Start != nil && !t.Start.After(at):
		return stateStarted
	}
	return statePending
}

// HistoryRow counts task lifecycle events inside one bucket.
type HistoryRow struct {
	Bucket
	Added     int `json:"added"`
	Completed int `json:"completed"`
	Deleted   int `json:"deleted"`
}

// Net is the change in outstanding work during the bucket.
func (r HistoryRow) Net() int {
	return r.Added - r.Completed - r.Deleted
}

// History counts tasks added, completed and deleted per bucket.
func History(tasks []model.Task, from, to time.Time, iv Interval) []HistoryRow {
	buckets := Buckets(from, to, iv)
	out := make([]HistoryRow, len(buckets))
	for i, b := range buckets {
		out[i].Bucket = b
	}
	index := func(at time.Time) int {
		for i, b := range buckets {
			if !at.Before(b.Start) && at.Before(b.End) && !at.After(to) {
				return i
			}
		}
		return -1
	}

	for _, t := range tasks {
		if t.Status == model.StatusRecurring {
			continue
		}
		if i := index(t.Entry); i >= 0 {
			out[i].Added++
		}
		if t.End == nil {
			continue
		}
		i := index(*t.End)
		if i < 0 {
			continue
		}
		switch t.Status {
		case model.StatusCompleted:
			out[i].Completed++
		case model.StatusDeleted:
			out[i].Deleted++
		}
	}
	return out
}

// DayXP is the XP earned on one calendar day.
type DayXP struct {
	Day time.Time `json:"day"`
	XP  int       `json:"xp"`
}

// XPByDay totals the XP history per calendar day in [from, to], including
// days without any award.
func XPByDay(history []model.XpHistoryEntry, from, to time.Time) []DayXP {
	buckets := Buckets(from, to, Daily)
	out := make([]DayXP, len(buckets))
	for i, b := range buckets {
		out[i].Day = b.Start
	}
	for _, h := range history {
		at := h.CreatedAt.In(from.Location())
		for i, b := range buckets {
			if !at.Before(b.Start) && at.Before(b.End) {
				out[i].XP += h.Reward.Total
				break
			}
		}
	}
	return out
}
