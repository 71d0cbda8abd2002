// Package export converts tasks to and from CSV, Taskwarrior JSON and YAML.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

var csvHeader = []string{
	"ID", "UUID", "Status", "Priority", "Project", "Description", "Tags",
	"Entry", "Due", "Start", "End", "Urgency", "Annotations",
}

// WriteCSV writes one row per task with a header row.
func WriteCSV(w io.Writer, tasks []model.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, t := range tasks {
		notes := make([]string, 0, len(t.Annotations))
		for _, a := range t.Annotations {
			notes = append(notes, a.Description)
		}
		row := []string{
			idString(t.ID),
			t.UUID,
			string(t.Status),
			string(t.Priority),
			t.Project,
			t.Description,
			strings.Join(t.Tags, " "),
			t.Entry.Local().Format(time.RFC3339),
			formatOptional(t.Due),
			formatOptional(t.Start),
			formatOptional(t.End),
			strconv.FormatFloat(t.Urgency, 'f', 2, 64),
			strings.Join(notes, "; "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ToCSV writes tasks to a CSV file at path.
func ToCSV(tasks []model.Task, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, tasks); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

func idString(id int) string {
	if id == 0 {
		return ""
	}
	return strconv.Itoa(id)
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}
