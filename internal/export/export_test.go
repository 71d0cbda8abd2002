package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

var now = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

func sampleTasks() []model.Task {
	due := now.Add(48 * time.Hour)
	end := now.Add(time.Hour)
	return []model.Task{
		{
			ID:          1,
			UUID:        "11111111-1111-4111-8111-111111111111",
			Description: "Water the garden",
			Status:      model.StatusPending,
			Priority:    model.PriorityHigh,
			Project:     "home.garden",
			Tags:        []string{"outdoor", "weekend"},
			Depends:     []string{"22222222-2222-4222-8222-222222222222"},
			Annotations: []model.Annotation{{Entry: now, Description: "use the hose"}},
			UDAs:        map[string]string{"estimate": "1h"},
			Entry:       now.Add(-24 * time.Hour),
			Modified:    now,
			Due:         &due,
			Urgency:     9.5,
		},
		{
			UUID:        "22222222-2222-4222-8222-222222222222",
			Description: "Buy a hose, cheap",
			Status:      model.StatusCompleted,
			Entry:       now.Add(-48 * time.Hour),
			Modified:    end,
			End:         &end,
		},
	}
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	if err := ToCSV(sampleTasks(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want 3", len(records))
	}
	if records[0][0] != "ID" || records[0][1] != "UUID" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][0] != "1" || records[1][6] != "outdoor weekend" || records[1][11] != "9.50" {
		t.Errorf("row 1 = %v", records[1])
	}
	if records[2][0] != "" || records[2][5] != "Buy a hose, cheap" {
		t.Errorf("row 2 = %v", records[2])
	}
}

// ============================================================
// Taskwarrior JSON
// ============================================================

func TestWriteJSONUsesCompactTimes(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleTasks()); err != nil {
		t.Fatal(err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("len = %d", len(raw))
	}
	if got := raw[0]["due"]; got != "20260306T090000Z" {
		t.Errorf("due = %v", got)
	}
	if got := raw[0]["estimate"]; got != "1h" {
		t.Errorf("UDA not flattened: %v", got)
	}
	if _, ok := raw[1]["due"]; ok {
		t.Error("nil due exported")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	in := sampleTasks()
	if err := ToJSON(in, path); err != nil {
		t.Fatal(err)
	}
	out, err := FromJSON(path, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d", len(out))
	}
	got := out[0]
	if got.UUID != in[0].UUID || got.Project != "home.garden" || got.Priority != model.PriorityHigh {
		t.Errorf("task = %+v", got)
	}
	if got.Due == nil || !got.Due.Equal(*in[0].Due) {
		t.Errorf("due = %v", got.Due)
	}
	if len(got.Depends) != 1 || got.Depends[0] != in[0].Depends[0] {
		t.Errorf("depends = %v", got.Depends)
	}
	if got.UDAs["estimate"] != "1h" {
		t.Errorf("udas = %v", got.UDAs)
	}
	if len(got.Annotations) != 1 || got.Annotations[0].Description != "use the hose" {
		t.Errorf("annotations = %v", got.Annotations)
	}
	if out[1].End == nil || out[1].Status != model.StatusCompleted {
		t.Errorf("completed task = %+v", out[1])
	}
}

func TestReadJSONTaskwarriorLines(t *testing.T) {
	input := `{"id":3,"description":"legacy","status":"pending","entry":"20260101T120000Z","depends":"aaaa,bbbb","tags":["b","a","a"],"mask":"--"}
{"uuid":"CCCCCCCC-0000-4000-8000-000000000000","description":"second","status":"waiting","wait":"20270101T000000Z"}
`
	tasks, err := ReadJSON(strings.NewReader(input), now)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("len = %d", len(tasks))
	}
	first := tasks[0]
	if first.UUID == "" {
		t.Error("missing uuid not generated")
	}
	if len(first.Depends) != 2 || first.Depends[1] != "bbbb" {
		t.Errorf("depends = %v", first.Depends)
	}
	if strings.Join(first.Tags, ",") != "a,b" {
		t.Errorf("tags = %v", first.Tags)
	}
	if !first.Entry.Equal(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("entry = %v", first.Entry)
	}
	if first.UDAs != nil {
		t.Errorf("udas = %v", first.UDAs)
	}
	if !first.Modified.Equal(now) {
		t.Errorf("modified fallback = %v", first.Modified)
	}
	if tasks[1].UUID != "cccccccc-0000-4000-8000-000000000000" || tasks[1].Status != model.StatusWaiting {
		t.Errorf("second = %+v", tasks[1])
	}
}

func TestReadJSONErrors(t *testing.T) {
	for name, input := range map[string]string{
		"not json":       "hello",
		"bad status":     `[{"description":"x","status":"archived"}]`,
		"no description": `[{"status":"pending"}]`,
		"bad time":       `[{"description":"x","due":"tomorrow"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadJSON(strings.NewReader(input), now); !errors.Is(err, ErrInvalidImport) {
				t.Errorf("err = %v, want ErrInvalidImport", err)
			}
		})
	}
}

func TestReadJSONEmpty(t *testing.T) {
	tasks, err := ReadJSON(strings.NewReader("  \n"), now)
	if err != nil || len(tasks) != 0 {
		t.Errorf("ReadJSON(empty) = %v, %v", tasks, err)
	}
}

// ============================================================
// YAML
// ============================================================

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, sampleTasks()); err != nil {
		t.Fatal(err)
	}
	var back []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatal(err)
	}
	if len(back) != 2 {
		t.Fatalf("len = %d", len(back))
	}
	if back[0]["project"] != "home.garden" {
		t.Errorf("project = %v", back[0]["project"])
	}
	if !strings.Contains(buf.String(), "tags: [outdoor, weekend]") {
		t.Errorf("tags not in flow style:\n%s", buf.String())
	}
}
