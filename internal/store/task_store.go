package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

// taskRow is the flattened database form of a task. List-valued fields are
// stored as JSON text.
type taskRow struct {
	UUID        string     `db:"uuid"`
	Description string     `db:"description"`
	Status      string     `db:"status"`
	Priority    string     `db:"priority"`
	Project     string     `db:"project"`
	Tags        string     `db:"tags"`
	Depends     string     `db:"depends"`
	Annotations string     `db:"annotations"`
	UDAs        string     `db:"udas"`
	Entry       time.Time  `db:"entry"`
	Modified    time.Time  `db:"modified"`
	Start       *time.Time `db:"start_at"`
	End         *time.Time `db:"end_at"`
	Due         *time.Time `db:"due_at"`
	Wait        *time.Time `db:"wait_at"`
	Scheduled   *time.Time `db:"scheduled_at"`
	Until       *time.Time `db:"until_at"`
	Recur       string     `db:"recur"`
	Parent      string     `db:"parent"`
	Urgency     float64    `db:"urgency"`
}

const taskColumns = `uuid, description, status, priority, project,
	tags, depends, annotations, udas,
	entry, modified, start_at, end_at, due_at, wait_at, scheduled_at, until_at,
	recur, parent, urgency`

const taskValues = `:uuid, :description, :status, :priority, :project,
	:tags, :depends, :annotations, :udas,
	:entry, :modified, :start_at, :end_at, :due_at, :wait_at, :scheduled_at, :until_at,
	:recur, :parent, :urgency`

func toTaskRow(t model.Task) (taskRow, error) {
	r := taskRow{
		UUID:        t.UUID,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Project:     t.Project,
		Entry:       t.Entry.UTC(),
		Modified:    t.Modified.UTC(),
		Start:       utc(t.Start),
		End:         utc(t.End),
		Due:         utc(t.Due),
		Wait:        utc(t.Wait),
		Scheduled:   utc(t.Scheduled),
		Until:       utc(t.Until),
		Recur:       t.Recur,
		Parent:      t.Parent,
		Urgency:     t.Urgency,
	}

	var err error
	if r.Tags, err = marshalJSON(t.Tags, "[]"); err != nil {
		return r, fmt.Errorf("marshaling tags for task %s: %w", t.UUID, err)
	}
	if r.Depends, err = marshalJSON(t.Depends, "[]"); err != nil {
		return r, fmt.Errorf("marshaling depends for task %s: %w", t.UUID, err)
	}
	if r.Annotations, err = marshalJSON(t.Annotations, "[]"); err != nil {
		return r, fmt.Errorf("marshaling annotations for task %s: %w", t.UUID, err)
	}
	if r.UDAs, err = marshalJSON(t.UDAs, "{}"); err != nil {
		return r, fmt.Errorf("marshaling udas for task %s: %w", t.UUID, err)
	}
	return r, nil
}

func (r taskRow) toTask() (model.Task, error) {
	t := model.Task{
		UUID:        r.UUID,
		Description: r.Description,
		Status:      model.Status(r.Status),
		Priority:    model.Priority(r.Priority),
		Project:     r.Project,
		Entry:       r.Entry,
		Modified:    r.Modified,
		Start:       r.Start,
		End:         r.End,
		Due:         r.Due,
		Wait:        r.Wait,
		Scheduled:   r.Scheduled,
		Until:       r.Until,
		Recur:       r.Recur,
		Parent:      r.Parent,
		Urgency:     r.Urgency,
	}
	if err := unmarshalJSON(r.Tags, &t.Tags); err != nil {
		return model.Task{}, fmt.Errorf("unmarshaling tags for task %s: %w", r.UUID, err)
	}
	if err := unmarshalJSON(r.Depends, &t.Depends); err != nil {
		return model.Task{}, fmt.Errorf("unmarshaling depends for task %s: %w", r.UUID, err)
	}
	if err := unmarshalJSON(r.Annotations, &t.Annotations); err != nil {
		return model.Task{}, fmt.Errorf("unmarshaling annotations for task %s: %w", r.UUID, err)
	}
	if err := unmarshalJSON(r.UDAs, &t.UDAs); err != nil {
		return model.Task{}, fmt.Errorf("unmarshaling udas for task %s: %w", r.UUID, err)
	}
	if len(t.Tags) == 0 {
		t.Tags = nil
	}
	if len(t.Depends) == 0 {
		t.Depends = nil
	}
	if len(t.Annotations) == 0 {
		t.Annotations = nil
	}
	if len(t.UDAs) == 0 {
		t.UDAs = nil
	}
	return t, nil
}

// CreateTask inserts a new task. Generates a UUID if empty and stamps
// entry/modified when unset.
func (s *SQLiteStore) CreateTask(ctx context.Context, task model.Task) error {
	if task.UUID == "" {
		task.UUID = uuid.New().String()
	}
	now := time.Now().UTC()
	if task.Entry.IsZero() {
		task.Entry = now
	}
	if task.Modified.IsZero() {
		task.Modified = task.Entry
	}
	if task.Status == "" {
		task.Status = model.StatusPending
	}
	if err := task.Validate(); err != nil {
		return err
	}
	return insertTask(ctx, s.db, task, false)
}

func insertTask(ctx context.Context, db sqlx.ExtContext, task model.Task, replace bool) error {
	row, err := toTaskRow(task)
	if err != nil {
		return err
	}
	verb := "INSERT"
	if replace {
		verb = "INSERT OR REPLACE"
	}
	query := verb + " INTO tasks (" + taskColumns + ") VALUES (" + taskValues + ")"
	if _, err := sqlx.NamedExecContext(ctx, db, query, row); err != nil {
		return fmt.Errorf("inserting task %s: %w", task.UUID, err)
	}
	return nil
}

// UpdateTask replaces an existing task record.
func (s *SQLiteStore) UpdateTask(ctx context.Context, task model.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	return updateTask(ctx, s.db, task)
}

func updateTask(ctx context.Context, db sqlx.ExtContext, task model.Task) error {
	row, err := toTaskRow(task)
	if err != nil {
		return err
	}
	result, err := sqlx.NamedExecContext(ctx, db, `
		UPDATE tasks SET
			description = :description, status = :status, priority = :priority,
			project = :project, tags = :tags, depends = :depends,
			annotations = :annotations, udas = :udas,
			entry = :entry, modified = :modified,
			start_at = :start_at, end_at = :end_at, due_at = :due_at,
			wait_at = :wait_at, scheduled_at = :scheduled_at, until_at = :until_at,
			recur = :recur, parent = :parent, urgency = :urgency
		WHERE uuid = :uuid`, row)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", task.UUID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s: %w", task.UUID, ErrNotFound)
	}
	return nil
}

// DeleteTask removes a task record permanently.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE uuid = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetTask retrieves a single task by UUID.
func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row, "SELECT "+taskColumns+" FROM tasks WHERE uuid = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	task, err := row.toTask()
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTasks retrieves tasks matching the query, oldest first.
func (s *SQLiteStore) GetTasks(ctx context.Context, q TaskQuery) ([]model.Task, error) {
	return selectTasks(ctx, s.db, q)
}

func selectTasks(ctx context.Context, db sqlx.ExtContext, q TaskQuery) ([]model.Task, error) {
	var conditions []string
	var args []interface{}

	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, st := range q.Statuses {
			statuses[i] = string(st)
		}
		cond, inArgs, err := sqlx.In("status IN (?)", statuses)
		if err != nil {
			return nil, fmt.Errorf("building status filter: %w", err)
		}
		conditions = append(conditions, cond)
		args = append(args, inArgs...)
	}
	if q.ModifiedSince != nil {
		conditions = append(conditions, "modified >= ?")
		args = append(args, q.ModifiedSince.UTC())
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY entry ASC, uuid ASC"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	var rows []taskRow
	if err := sqlx.SelectContext(ctx, db, &rows, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		t, err := r.toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// SaveUrgencies stores freshly computed urgency values without touching
// the modification time.
func (s *SQLiteStore) SaveUrgencies(ctx context.Context, urgencies map[string]float64) error {
	if len(urgencies) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, "UPDATE tasks SET urgency = ? WHERE uuid = ?")
		if err != nil {
			return fmt.Errorf("preparing urgency update: %w", err)
		}
		defer stmt.Close()

		for id, u := range urgencies {
			if _, err := stmt.ExecContext(ctx, u, id); err != nil {
				return fmt.Errorf("saving urgency for task %s: %w", id, err)
			}
		}
		return nil
	})
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func marshalJSON(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}

func unmarshalJSON(s string, dst any) error {
	if s == "" || s == "null" {
		return nil
	}
	return json.Unmarshal([]byte(s), dst)
}
