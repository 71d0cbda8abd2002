package export

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

type yamlTask struct {
	ID          int               `yaml:"id,omitempty"`
	UUID        string            `yaml:"uuid"`
	Description string            `yaml:"description"`
	Status      string            `yaml:"status"`
	Priority    string            `yaml:"priority,omitempty"`
	Project     string            `yaml:"project,omitempty"`
	Tags        []string          `yaml:"tags,omitempty,flow"`
	Depends     []string          `yaml:"depends,omitempty"`
	Due         *time.Time        `yaml:"due,omitempty"`
	Recur       string            `yaml:"recur,omitempty"`
	Urgency     float64           `yaml:"urgency"`
	Annotations []string          `yaml:"annotations,omitempty"`
	UDAs        map[string]string `yaml:"udas,omitempty"`
}

// WriteYAML writes a readable YAML listing of tasks.
func WriteYAML(w io.Writer, tasks []model.Task) error {
	out := make([]yamlTask, 0, len(tasks))
	for _, t := range tasks {
		y := yamlTask{
			ID:          t.ID,
			UUID:        t.UUID,
			Description: t.Description,
			Status:      string(t.Status),
			Priority:    string(t.Priority),
			Project:     t.Project,
			Tags:        t.Tags,
			Depends:     t.Depends,
			Due:         t.Due,
			Recur:       t.Recur,
			Urgency:     t.Urgency,
			UDAs:        t.UDAs,
		}
		for _, a := range t.Annotations {
			y.Annotations = append(y.Annotations, a.Entry.Format("2006-01-02")+" "+a.Description)
		}
		out = append(out, y)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
