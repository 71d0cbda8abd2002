package filter

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/dates"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

// ErrInvalidFilter is returned when a filter expression cannot be parsed.
var ErrInvalidFilter = errors.New("invalid filter")

var uuidPrefix = regexp.MustCompile(`^[0-9a-f]{8}(-[0-9a-f]{0,4}){0,4}[0-9a-f-]*$`)

// Parse builds a filter from command-line terms such as
//
//	status:pending project:home pri:H +garden -later due.before:eow
//	urgency.over:5 +BLOCKED depends.any: /report/ 12 3-5 limit:10
//
// Bare words are joined into a description search.
func Parse(args []string, now time.Time) (TaskFilter, error) {
	var (
		f     TaskFilter
		words []string
	)
	for _, raw := range args {
		for _, term := range tokenize(raw) {
			word, err := parseTerm(&f, term, now)
			if err != nil {
				return TaskFilter{}, err
			}
			if word != "" {
				words = append(words, word)
			}
		}
	}
	if len(words) > 0 {
		search := strings.Join(words, " ")
		if f.Search != "" {
			search = f.Search + " " + search
		}
		f.Search = search
	}
	return f, nil
}

// ParseExpression parses a whole expression string, such as a saved preset.
func ParseExpression(expr string, now time.Time) (TaskFilter, error) {
	return Parse([]string{expr}, now)
}

// tokenize splits on whitespace but keeps a /search pattern/ together.
func tokenize(s string) []string {
	var (
		out       []string
		cur       strings.Builder
		inPattern bool
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '/' && cur.Len() == 0 && !inPattern:
			inPattern = true
			cur.WriteRune(r)
		case r == '/' && inPattern:
			inPattern = false
			cur.WriteRune(r)
			flush()
		case (r == ' ' || r == '\t' || r == '\n') && !inPattern:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// parseTerm folds one term into f. It returns the term unchanged when it is
// a plain search word.
func parseTerm(f *TaskFilter, term string, now time.Time) (string, error) {
	switch {
	case term == "":
		return "", nil
	case len(term) > 2 && strings.HasPrefix(term, "/") && strings.HasSuffix(term, "/"):
		f.Search = strings.Trim(term, "/")
		return "", nil
	case strings.HasPrefix(term, "+") && len(term) > 1:
		return "", parseTag(f, term[1:], true)
	case strings.HasPrefix(term, "-") && len(term) > 1:
		return "", parseTag(f, term[1:], false)
	}

	if name, value, ok := strings.Cut(term, ":"); ok {
		return "", parseAttribute(f, strings.ToLower(name), value, now)
	}

	ids, ok, err := parseIDs(term)
	if err != nil {
		return "", err
	}
	if ok {
		f.IDs = append(f.IDs, ids...)
		return "", nil
	}
	if uuidPrefix.MatchString(strings.ToLower(term)) {
		f.UUIDs = append(f.UUIDs, strings.ToLower(term))
		return "", nil
	}
	return term, nil
}

func parseTag(f *TaskFilter, tag string, include bool) error {
	virtual := map[string]**bool{
		"BLOCKED":  &f.Blocked,
		"BLOCKING": &f.Blocking,
		"OVERDUE":  &f.Overdue,
		"ACTIVE":   &f.Active,
	}
	if dst, ok := virtual[tag]; ok {
		*dst = boolPtr(include)
		return nil
	}
	switch tag {
	case "UNBLOCKED":
		f.Blocked = boolPtr(!include)
		return nil
	case "PENDING", "WAITING", "COMPLETED", "DELETED", "RECURRING":
		if !include {
			return fmt.Errorf("%w: -%s is not supported", ErrInvalidFilter, tag)
		}
		f.Statuses = append(f.Statuses, model.Status(strings.ToLower(tag)))
		return nil
	}
	if include {
		f.IncludeTags = append(f.IncludeTags, tag)
	} else {
		f.ExcludeTags = append(f.ExcludeTags, tag)
	}
	return nil
}

func parseAttribute(f *TaskFilter, name, value string, now time.Time) error {
	switch name {
	case "status":
		for _, v := range splitList(value) {
			s, err := model.ParseStatus(v)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
			}
			f.Statuses = append(f.Statuses, s)
		}
	case "project", "proj", "pro":
		f.Project = value
	case "priority", "pri":
		if value == "" {
			f.Priorities = append(f.Priorities, model.PriorityNone)
			return nil
		}
		for _, v := range splitList(value) {
			p, err := model.ParsePriority(v)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
			}
			f.Priorities = append(f.Priorities, p)
		}
	case "tags.any", "tag.any":
		f.AnyTags = append(f.AnyTags, splitList(value)...)
	case "due.before", "due.by":
		return parseDate(&f.DueBefore, name, value, now)
	case "due.after":
		return parseDate(&f.DueAfter, name, value, now)
	case "entry.before":
		return parseDate(&f.EntryBefore, name, value, now)
	case "entry.after":
		return parseDate(&f.EntryAfter, name, value, now)
	case "urgency.min", "urgency.over", "urgency.above":
		return parseFloat(&f.MinUrgency, name, value)
	case "urgency.max", "urgency.under", "urgency.below":
		return parseFloat(&f.MaxUrgency, name, value)
	case "depends.any":
		f.HasDependencies = boolPtr(true)
	case "depends.none":
		f.HasDependencies = boolPtr(false)
	case "description", "desc", "description.contains":
		f.Search = value
	case "uuid":
		f.UUIDs = append(f.UUIDs, strings.ToLower(value))
	case "limit":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: limit %q", ErrInvalidFilter, value)
		}
		f.Limit = n
	default:
		return fmt.Errorf("%w: unknown attribute %q", ErrInvalidFilter, name)
	}
	return nil
}

func parseDate(dst **time.Time, name, value string, now time.Time) error {
	t, err := dates.Parse(value, now)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidFilter, name, err)
	}
	*dst = &t
	return nil
}

func parseFloat(dst **float64, name, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%w: %s: %q is not a number", ErrInvalidFilter, name, value)
	}
	*dst = &v
	return nil
}

// maxIDSpan bounds the number of ids a single range may expand to.
const maxIDSpan = 10000

// parseIDs accepts "4", "1,2,3" and "3-5". ok is false when term is not an
// id list at all.
func parseIDs(term string) (ids []int, ok bool, err error) {
	for _, part := range strings.Split(term, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(lo)
		if err != nil || a <= 0 {
			return nil, false, nil
		}
		if !isRange {
			ids = append(ids, a)
			continue
		}
		b, err := strconv.Atoi(hi)
		if err != nil || b < a {
			return nil, false, nil
		}
		if b-a >= maxIDSpan {
			return nil, false, fmt.Errorf("%w: id range %s spans more than %d tasks", ErrInvalidFilter, part, maxIDSpan)
		}
		for i := a; i <= b; i++ {
			ids = append(ids, i)
		}
	}
	return ids, len(ids) > 0, nil
}

func splitList(value string) []string {
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

// String renders the filter back into the expression syntax accepted by
// Parse.
func (f TaskFilter) String() string {
	var parts []string
	add := func(format string, args ...any) {
		parts = append(parts, fmt.Sprintf(format, args...))
	}

	if len(f.Statuses) > 0 {
		names := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			names[i] = string(s)
		}
		add("status:%s", strings.Join(names, ","))
	}
	if f.Project != "" {
		add("project:%s", f.Project)
	}
	if len(f.Priorities) > 0 {
		names := make([]string, len(f.Priorities))
		for i, p := range f.Priorities {
			names[i] = string(p)
			if p == model.PriorityNone {
				names[i] = "none"
			}
		}
		add("pri:%s", strings.Join(names, ","))
	}
	for _, tag := range f.IncludeTags {
		add("+%s", tag)
	}
	for _, tag := range f.ExcludeTags {
		add("-%s", tag)
	}
	if len(f.AnyTags) > 0 {
		add("tags.any:%s", strings.Join(f.AnyTags, ","))
	}

	dateTerm := func(name string, t *time.Time) {
		if t != nil {
			add("%s:%s", name, t.UTC().Format(model.CompactTimeLayout))
		}
	}
	dateTerm("due.before", f.DueBefore)
	dateTerm("due.after", f.DueAfter)
	dateTerm("entry.before", f.EntryBefore)
	dateTerm("entry.after", f.EntryAfter)

	if f.MinUrgency != nil {
		add("urgency.min:%s", strconv.FormatFloat(*f.MinUrgency, 'f', -1, 64))
	}
	if f.MaxUrgency != nil {
		add("urgency.max:%s", strconv.FormatFloat(*f.MaxUrgency, 'f', -1, 64))
	}
	if f.HasDependencies != nil {
		if *f.HasDependencies {
			add("depends.any:")
		} else {
			add("depends.none:")
		}
	}

	virtual := func(name string, v *bool) {
		if v == nil {
			return
		}
		if *v {
			add("+%s", name)
		} else {
			add("-%s", name)
		}
	}
	virtual("BLOCKED", f.Blocked)
	virtual("BLOCKING", f.Blocking)
	virtual("OVERDUE", f.Overdue)
	virtual("ACTIVE", f.Active)

	if f.Search != "" {
		add("/%s/", f.Search)
	}
	for _, u := range f.UUIDs {
		add("uuid:%s", u)
	}
	if len(f.IDs) > 0 {
		ids := append([]int(nil), f.IDs...)
		sort.Ints(ids)
		strs := make([]string, len(ids))
		for i, id := range ids {
			strs[i] = strconv.Itoa(id)
		}
		add("%s", strings.Join(strs, ","))
	}
	if f.Limit > 0 {
		add("limit:%d", f.Limit)
	}
	return strings.Join(parts, " ")
}
