package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

// SavePreset inserts or replaces a named filter expression.
func (s *SQLiteStore) SavePreset(ctx context.Context, preset model.FilterPreset) error {
	return savePreset(ctx, s.db, preset)
}

func savePreset(ctx context.Context, db sqlx.ExtContext, p model.FilterPreset) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("preset name must not be empty")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.CreatedAt = p.CreatedAt.UTC()

	_, err := sqlx.NamedExecContext(ctx, db, `
		INSERT OR REPLACE INTO filter_presets (name, expression, created_at)
		VALUES (:name, :expression, :created_at)`, p)
	if err != nil {
		return fmt.Errorf("saving preset %s: %w", p.Name, err)
	}
	return nil
}

// GetPreset retrieves one preset by name.
func (s *SQLiteStore) GetPreset(ctx context.Context, name string) (*model.FilterPreset, error) {
	var p model.FilterPreset
	err := s.db.GetContext(ctx, &p, "SELECT * FROM filter_presets WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("preset %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting preset %s: %w", name, err)
	}
	return &p, nil
}

// GetPresets retrieves all presets ordered by name.
func (s *SQLiteStore) GetPresets(ctx context.Context) ([]model.FilterPreset, error) {
	var out []model.FilterPreset
	if err := s.db.SelectContext(ctx, &out, "SELECT * FROM filter_presets ORDER BY name"); err != nil {
		return nil, fmt.Errorf("querying presets: %w", err)
	}
	return out, nil
}

// DeletePreset removes a preset by name.
func (s *SQLiteStore) DeletePreset(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM filter_presets WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting preset %s: %w", name, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("preset %s: %w", name, ErrNotFound)
	}
	return nil
}
