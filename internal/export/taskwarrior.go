package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

// ErrInvalidImport is returned for input that is not a Taskwarrior export.
var ErrInvalidImport = errors.New("invalid taskwarrior export")

// twTime reads and writes Taskwarrior's compact UTC timestamps.
type twTime struct {
	time.Time
}

func (ct *twTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "0" {
		ct.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(model.CompactTimeLayout, s)
	if err != nil {
		// Some tools emit RFC 3339 instead.
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("parse taskwarrior time %q: %w", s, err)
		}
	}
	ct.Time = t.UTC()
	return nil
}

func (ct twTime) MarshalJSON() ([]byte, error) {
	if ct.Time.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ct.Time.UTC().Format(model.CompactTimeLayout) + `"`), nil
}

// depList accepts both the array form and the legacy comma-separated
// string form of "depends".
type depList []string

func (d *depList) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*d = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*d = nil
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*d = append(*d, part)
		}
	}
	return nil
}

type twAnnotation struct {
	Entry       twTime `json:"entry"`
	Description string `json:"description"`
}

type twTask struct {
	ID          int            `json:"id,omitempty"`
	UUID        string         `json:"uuid"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Priority    string         `json:"priority,omitempty"`
	Project     string         `json:"project,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Depends     depList        `json:"depends,omitempty"`
	Annotations []twAnnotation `json:"annotations,omitempty"`
	Entry       *twTime        `json:"entry,omitempty"`
	Modified    *twTime        `json:"modified,omitempty"`
	Start       *twTime        `json:"start,omitempty"`
	End         *twTime        `json:"end,omitempty"`
	Due         *twTime        `json:"due,omitempty"`
	Wait        *twTime        `json:"wait,omitempty"`
	Scheduled   *twTime        `json:"scheduled,omitempty"`
	Until       *twTime        `json:"until,omitempty"`
	Recur       string         `json:"recur,omitempty"`
	Parent      string         `json:"parent,omitempty"`
	Urgency     float64        `json:"urgency"`
}

// knownKeys are the attributes that never become UDAs on import.
var knownKeys = map[string]bool{
	"id": true, "uuid": true, "description": true, "status": true,
	"priority": true, "project": true, "tags": true, "depends": true,
	"annotations": true, "entry": true, "modified": true, "start": true,
	"end": true, "due": true, "wait": true, "scheduled": true, "until": true,
	"recur": true, "parent": true, "urgency": true, "mask": true,
	"imask": true,
}

func toTW(t model.Task) twTask {
	out := twTask{
		ID:          t.ID,
		UUID:        t.UUID,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Project:     t.Project,
		Tags:        t.Tags,
		Depends:     depList(t.Depends),
		Entry:       twPtr(&t.Entry),
		Modified:    twPtr(&t.Modified),
		Start:       twPtr(t.Start),
		End:         twPtr(t.End),
		Due:         twPtr(t.Due),
		Wait:        twPtr(t.Wait),
		Scheduled:   twPtr(t.Scheduled),
		Until:       twPtr(t.Until),
		Recur:       t.Recur,
		Parent:      t.Parent,
		Urgency:     t.Urgency,
	}
	for _, a := range t.Annotations {
		out.Annotations = append(out.Annotations, twAnnotation{Entry: twTime{a.Entry}, Description: a.Description})
	}
	return out
}

func fromTW(tw twTask, udas map[string]string, now time.Time) (model.Task, error) {
	t := model.Task{
		UUID:        strings.ToLower(tw.UUID),
		Description: tw.Description,
		Project:     tw.Project,
		Tags:        model.NormalizeTags(tw.Tags),
		Depends:     []string(tw.Depends),
		Entry:       fromTWTime(tw.Entry, now),
		Modified:    fromTWTime(tw.Modified, now),
		Start:       fromTWPtr(tw.Start),
		End:         fromTWPtr(tw.End),
		Due:         fromTWPtr(tw.Due),
		Wait:        fromTWPtr(tw.Wait),
		Scheduled:   fromTWPtr(tw.Scheduled),
		Until:       fromTWPtr(tw.Until),
		Recur:       tw.Recur,
		Parent:      tw.Parent,
		Urgency:     tw.Urgency,
	}
	if t.UUID == "" {
		t.UUID = uuid.NewString()
	}

	status := model.StatusPending
	if tw.Status != "" {
		s, err := model.ParseStatus(tw.Status)
		if err != nil {
			return model.Task{}, fmt.Errorf("task %s: %w", t.UUID, err)
		}
		status = s
	}
	t.Status = status

	p, err := model.ParsePriority(tw.Priority)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s: %w", t.UUID, err)
	}
	t.Priority = p

	for _, a := range tw.Annotations {
		t.Annotations = append(t.Annotations, model.Annotation{Entry: a.Entry.Time, Description: a.Description})
	}
	if len(udas) > 0 {
		t.UDAs = udas
	}

	if err := t.Validate(); err != nil {
		return model.Task{}, fmt.Errorf("task %s: %w", t.UUID, err)
	}
	return t, nil
}

// WriteJSON writes tasks as a Taskwarrior-compatible JSON array. UDAs are
// flattened into top-level attributes.
func WriteJSON(w io.Writer, tasks []model.Task) error {
	out := make([]map[string]json.RawMessage, 0, len(tasks))
	for _, t := range tasks {
		raw, err := json.Marshal(toTW(t))
		if err != nil {
			return fmt.Errorf("marshal task %s: %w", t.UUID, err)
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return err
		}
		for k, v := range t.UDAs {
			if knownKeys[k] {
				continue
			}
			b, err := json.Marshal(v)
			if err != nil {
				return err
			}
			obj[k] = b
		}
		out = append(out, obj)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// ToJSON writes tasks to a Taskwarrior JSON file at path.
func ToJSON(tasks []model.Task, path string) error {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, tasks); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// ReadJSON parses the output of "task export": either a JSON array or one
// object per line. Attributes that are not part of the task model and hold
// strings are kept as UDAs.
func ReadJSON(r io.Reader, now time.Time) ([]model.Task, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var objects []map[string]json.RawMessage
	dec := json.NewDecoder(br)
	switch first {
	case '[':
		if err := dec.Decode(&objects); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
	case '{':
		for {
			var obj map[string]json.RawMessage
			if err := dec.Decode(&obj); err == io.EOF {
				break
			} else if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
			}
			objects = append(objects, obj)
		}
	default:
		return nil, fmt.Errorf("%w: unexpected %q", ErrInvalidImport, first)
	}

	tasks := make([]model.Task, 0, len(objects))
	for i, obj := range objects {
		raw, err := json.Marshal(obj)
		if err != nil {
			return nil, err
		}
		var tw twTask
		if err := json.Unmarshal(raw, &tw); err != nil {
			return nil, fmt.Errorf("%w: task %d: %v", ErrInvalidImport, i+1, err)
		}

		udas := make(map[string]string)
		for k, v := range obj {
			if knownKeys[k] {
				continue
			}
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				udas[k] = s
			} else {
				udas[k] = string(v)
			}
		}

		t, err := fromTW(tw, udas, now)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// FromJSON reads a Taskwarrior export file.
func FromJSON(path string, now time.Time) ([]model.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open json file: %w", err)
	}
	defer f.Close()
	return ReadJSON(f, now)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func twPtr(t *time.Time) *twTime {
	if t == nil || t.IsZero() {
		return nil
	}
	return &twTime{*t}
}

func fromTWPtr(t *twTime) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

func fromTWTime(t *twTime, fallback time.Time) time.Time {
	if t == nil || t.IsZero() {
		return fallback
	}
	return t.Time
}
