package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

// Dump reads every task, the hero, the XP history and the presets.
func (s *SQLiteStore) Dump(ctx context.Context) (model.Snapshot, error) {
	snap := model.Snapshot{
		Version:   model.SnapshotVersion,
		CreatedAt: time.Now().UTC(),
	}

	var err error
	if snap.Tasks, err = s.GetTasks(ctx, TaskQuery{}); err != nil {
		return snap, err
	}
	snap.Hero, err = s.GetHero(ctx)
	if errors.Is(err, ErrNotFound) {
		snap.Hero = model.NewHero("")
	} else if err != nil {
		return snap, err
	}
	if snap.History, err = s.GetXPHistory(ctx, nil, 0); err != nil {
		return snap, err
	}
	if snap.Presets, err = s.GetPresets(ctx); err != nil {
		return snap, err
	}
	return snap, nil
}

// ReplaceAll swaps the whole local dataset for the snapshot in a single
// transaction. Notifications are cleared.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, snap model.Snapshot) error {
	for _, t := range snap.Tasks {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("task %s: %w", t.UUID, err)
		}
	}

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"tasks", "hero", "xp_history", "filter_presets", "notifications"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		for _, t := range snap.Tasks {
			if err := insertTask(ctx, tx, t, true); err != nil {
				return err
			}
		}
		if snap.Hero.Level > 0 {
			if err := saveHero(ctx, tx, snap.Hero); err != nil {
				return err
			}
		}
		for _, e := range snap.History {
			if err := addXPHistory(ctx, tx, e); err != nil {
				return err
			}
		}
		for _, p := range snap.Presets {
			if err := savePreset(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

// ImportTasks inserts or replaces tasks by UUID, leaving everything else
// untouched.
func (s *SQLiteStore) ImportTasks(ctx context.Context, tasks []model.Task) error {
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("task %s: %w", t.UUID, err)
		}
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, t := range tasks {
			if err := insertTask(ctx, tx, t, true); err != nil {
				return err
			}
		}
		return nil
	})
}
