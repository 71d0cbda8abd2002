// Package dates parses the date and period expressions accepted on the
// command line and in filters.
package dates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

// ErrInvalidDate is returned for expressions that are not dates.
var ErrInvalidDate = errors.New("invalid date")

// ErrInvalidPeriod is returned for unknown recurrence periods.
var ErrInvalidPeriod = errors.New("invalid period")

var layouts = []string{
	time.RFC3339,
	model.CompactTimeLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parse resolves a date expression relative to now. It accepts absolute
// dates (RFC 3339, Taskwarrior compact form, YYYY-MM-DD), the names now,
// today, sod, tomorrow, yesterday, eod, eow, eom, eoy, weekday names, and
// offsets such as +3d, -2w, 4h or 1m.
func Parse(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}

	loc := now.Location()
	sod := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch s {
	case "now":
		return now, nil
	case "today", "sod":
		return sod, nil
	case "eod":
		return sod.AddDate(0, 0, 1).Add(-time.Second), nil
	case "tomorrow":
		return sod.AddDate(0, 0, 1), nil
	case "yesterday":
		return sod.AddDate(0, 0, -1), nil
	case "eow":
		// Weeks end on Sunday night.
		offset := (7 - int(now.Weekday())) % 7
		return sod.AddDate(0, 0, offset+1).Add(-time.Second), nil
	case "eom":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return first.AddDate(0, 1, 0).Add(-time.Second), nil
	case "eoy":
		return time.Date(now.Year()+1, 1, 1, 0, 0, 0, 0, loc).Add(-time.Second), nil
	}

	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if s == name || s == name[:3] {
			ahead := (int(wd) - int(now.Weekday()) + 7) % 7
			if ahead == 0 {
				ahead = 7
			}
			return sod.AddDate(0, 0, ahead), nil
		}
	}

	if d, ok := parseOffset(s); ok {
		return d(now), nil
	}

	for _, layout := range layouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339 || layout == model.CompactTimeLayout {
			t, err = time.Parse(layout, strings.ToUpper(s))
		} else {
			t, err = time.ParseInLocation(layout, s, loc)
		}
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// parseOffset handles signed relative offsets like +3d or -2w. An unsigned
// offset counts forward.
func parseOffset(s string) (func(time.Time) time.Time, bool) {
	sign := 1
	switch {
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasPrefix(s, "-"):
		sign = -1
		s = s[1:]
	}
	n, unit, ok := splitCount(s)
	if !ok {
		return nil, false
	}
	n *= sign
	switch unit {
	case "h":
		return func(t time.Time) time.Time { return t.Add(time.Duration(n) * time.Hour) }, true
	case "d":
		return func(t time.Time) time.Time { return t.AddDate(0, 0, n) }, true
	case "w":
		return func(t time.Time) time.Time { return t.AddDate(0, 0, 7*n) }, true
	case "m", "mo":
		return func(t time.Time) time.Time { return t.AddDate(0, n, 0) }, true
	case "y":
		return func(t time.Time) time.Time { return t.AddDate(n, 0, 0) }, true
	}
	return nil, false
}

func splitCount(s string) (int, string, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i == len(s) {
		return 0, "", false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, "", false
	}
	return n, s[i:], true
}

// Period is a recurrence interval expressed in calendar units.
type Period struct {
	Days   int
	Months int
	Years  int
}

// ParsePeriod understands daily, weekly, biweekly, monthly, quarterly,
// yearly (and their short forms) plus counts such as 3d, 2w, 6m and 1y.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "daily", "day":
		return Period{Days: 1}, nil
	case "weekly", "week":
		return Period{Days: 7}, nil
	case "biweekly", "fortnight":
		return Period{Days: 14}, nil
	case "monthly", "month":
		return Period{Months: 1}, nil
	case "quarterly":
		return Period{Months: 3}, nil
	case "yearly", "annual", "year":
		return Period{Years: 1}, nil
	}
	n, unit, ok := splitCount(s)
	if !ok || n <= 0 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	switch unit {
	case "d":
		return Period{Days: n}, nil
	case "w":
		return Period{Days: 7 * n}, nil
	case "m", "mo":
		return Period{Months: n}, nil
	case "y":
		return Period{Years: n}, nil
	}
	return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Advance returns t moved forward by one period.
func (p Period) Advance(t time.Time) time.Time {
	return t.AddDate(p.Years, p.Months, p.Days)
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day in a's
// location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
