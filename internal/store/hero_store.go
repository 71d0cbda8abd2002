package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

type heroRow struct {
	ID             int        `db:"id"`
	Name           string     `db:"name"`
	Level          int        `db:"level"`
	XP             int        `db:"xp"`
	TotalXP        int        `db:"total_xp"`
	CurrentStreak  int        `db:"current_streak"`
	LongestStreak  int        `db:"longest_streak"`
	LastCompletion *time.Time `db:"last_completion"`
	TasksCompleted int        `db:"tasks_completed"`
	Title          string     `db:"title"`
	UnlockedTitles string     `db:"unlocked_titles"`
	UpdatedAt      time.Time  `db:"updated_at"`
	model.Stats
}

type xpRow struct {
	ID                 string    `db:"id"`
	TaskUUID           string    `db:"task_uuid"`
	Description        string    `db:"description"`
	Base               float64   `db:"base"`
	PriorityMultiplier float64   `db:"priority_multiplier"`
	TimingMultiplier   float64   `db:"timing_multiplier"`
	Bonus              int       `db:"bonus"`
	Total              int       `db:"total"`
	LevelBefore        int       `db:"level_before"`
	LevelAfter         int       `db:"level_after"`
	CreatedAt          time.Time `db:"created_at"`
}

// GetHero loads the hero profile. It returns ErrNotFound before the first
// save.
func (s *SQLiteStore) GetHero(ctx context.Context) (model.Hero, error) {
	var row heroRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM hero WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return model.Hero{}, fmt.Errorf("hero: %w", ErrNotFound)
	}
	if err != nil {
		return model.Hero{}, fmt.Errorf("getting hero: %w", err)
	}

	h := model.Hero{
		Name:           row.Name,
		Level:          row.Level,
		XP:             row.XP,
		TotalXP:        row.TotalXP,
		Stats:          row.Stats,
		CurrentStreak:  row.CurrentStreak,
		LongestStreak:  row.LongestStreak,
		LastCompletion: row.LastCompletion,
		TasksCompleted: row.TasksCompleted,
		Title:          row.Title,
		UpdatedAt:      row.UpdatedAt,
	}
	if err := unmarshalJSON(row.UnlockedTitles, &h.UnlockedTitles); err != nil {
		return model.Hero{}, fmt.Errorf("unmarshaling hero titles: %w", err)
	}
	return h, nil
}

// SaveHero inserts or replaces the hero profile. The stored level never
// decreases.
func (s *SQLiteStore) SaveHero(ctx context.Context, hero model.Hero) error {
	return saveHero(ctx, s.db, hero)
}

func saveHero(ctx context.Context, db sqlx.ExtContext, hero model.Hero) error {
	titles, err := marshalJSON(hero.UnlockedTitles, "[]")
	if err != nil {
		return fmt.Errorf("marshaling hero titles: %w", err)
	}
	if hero.UpdatedAt.IsZero() {
		hero.UpdatedAt = time.Now()
	}
	row := heroRow{
		ID:             1,
		Name:           hero.Name,
		Level:          hero.Level,
		XP:             hero.XP,
		TotalXP:        hero.TotalXP,
		Stats:          hero.Stats,
		CurrentStreak:  hero.CurrentStreak,
		LongestStreak:  hero.LongestStreak,
		LastCompletion: utc(hero.LastCompletion),
		TasksCompleted: hero.TasksCompleted,
		Title:          hero.Title,
		UnlockedTitles: titles,
		UpdatedAt:      hero.UpdatedAt.UTC(),
	}

	_, err = sqlx.NamedExecContext(ctx, db, `
		INSERT INTO hero (
			id, name, level, xp, total_xp,
			stat_str, stat_dex, stat_con, stat_int, stat_wis, stat_cha,
			current_streak, longest_streak, last_completion, tasks_completed,
			title, unlocked_titles, updated_at
		) VALUES (
			:id, :name, :level, :xp, :total_xp,
			:stat_str, :stat_dex, :stat_con, :stat_int, :stat_wis, :stat_cha,
			:current_streak, :longest_streak, :last_completion, :tasks_completed,
			:title, :unlocked_titles, :updated_at
		)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			level = MAX(hero.level, excluded.level),
			xp = excluded.xp,
			total_xp = excluded.total_xp,
			stat_str = excluded.stat_str,
			stat_dex = excluded.stat_dex,
			stat_con = excluded.stat_con,
			stat_int = excluded.stat_int,
			stat_wis = excluded.stat_wis,
			stat_cha = excluded.stat_cha,
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_completion = excluded.last_completion,
			tasks_completed = excluded.tasks_completed,
			title = excluded.title,
			unlocked_titles = excluded.unlocked_titles,
			updated_at = excluded.updated_at`, row)
	if err != nil {
		return fmt.Errorf("saving hero: %w", err)
	}
	return nil
}

// AddXPHistory records one XP award. Generates an ID if empty.
func (s *SQLiteStore) AddXPHistory(ctx context.Context, entry model.XpHistoryEntry) error {
	return addXPHistory(ctx, s.db, entry)
}

func addXPHistory(ctx context.Context, db sqlx.ExtContext, e model.XpHistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	row := xpRow{
		ID:                 e.ID,
		TaskUUID:           e.TaskUUID,
		Description:        e.Description,
		Base:               e.Reward.Base,
		PriorityMultiplier: e.Reward.PriorityMultiplier,
		TimingMultiplier:   e.Reward.TimingMultiplier,
		Bonus:              e.Reward.Bonus,
		Total:              e.Reward.Total,
		LevelBefore:        e.LevelBefore,
		LevelAfter:         e.LevelAfter,
		CreatedAt:          e.CreatedAt.UTC(),
	}
	_, err := sqlx.NamedExecContext(ctx, db, `
		INSERT INTO xp_history (
			id, task_uuid, description, base, priority_multiplier,
			timing_multiplier, bonus, total, level_before, level_after, created_at
		) VALUES (
			:id, :task_uuid, :description, :base, :priority_multiplier,
			:timing_multiplier, :bonus, :total, :level_before, :level_after, :created_at
		)`, row)
	if err != nil {
		return fmt.Errorf("adding xp history for task %s: %w", e.TaskUUID, err)
	}
	return nil
}

// GetXPHistory returns XP awards, newest first. since and limit are
// optional.
func (s *SQLiteStore) GetXPHistory(ctx context.Context, since *time.Time, limit int) ([]model.XpHistoryEntry, error) {
	query := "SELECT * FROM xp_history"
	var args []interface{}
	if since != nil {
		query += " WHERE created_at >= ?"
		args = append(args, since.UTC())
	}
	query += " ORDER BY created_at DESC, id"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var rows []xpRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying xp history: %w", err)
	}

	entries := make([]model.XpHistoryEntry, len(rows))
	for i, r := range rows {
		entries[i] = model.XpHistoryEntry{
			ID:          r.ID,
			TaskUUID:    r.TaskUUID,
			Description: r.Description,
			Reward: model.XpReward{
				Base:               r.Base,
				PriorityMultiplier: r.PriorityMultiplier,
				TimingMultiplier:   r.TimingMultiplier,
				Bonus:              r.Bonus,
				Total:              r.Total,
			},
			LevelBefore: r.LevelBefore,
			LevelAfter:  r.LevelAfter,
			CreatedAt:   r.CreatedAt,
		}
	}
	return entries, nil
}

// CompleteTask persists a task completion atomically: the updated task, the
// hero after the XP award, the history entry and any notifications.
func (s *SQLiteStore) CompleteTask(
	ctx context.Context,
	task model.Task,
	hero model.Hero,
	entry model.XpHistoryEntry,
	notes []model.Notification,
) error {
	if err := task.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := updateTask(ctx, tx, task); err != nil {
			return err
		}
		if err := saveHero(ctx, tx, hero); err != nil {
			return err
		}
		if err := addXPHistory(ctx, tx, entry); err != nil {
			return err
		}
		for _, n := range notes {
			if err := createNotification(ctx, tx, n); err != nil {
				return err
			}
		}
		return nil
	})
}
