// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied
// and closes it when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestConfig writes cfg (or the defaults) to a config file in a temp
// directory, pointing the database at the same directory. It returns the
// config path.
func NewTestConfig(t *testing.T, cfg *model.AppConfig) string {
	t.Helper()

	if cfg == nil {
		cfg = model.DefaultAppConfig()
	}
	dir := t.TempDir()
	cfg.Data.DBPath = filepath.Join(dir, "taskgeek.db")
	path := filepath.Join(dir, "config.yaml")
	if err := model.SaveConfig(path, cfg); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

// Clock is a manually advanced time source for service.WithClock.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock returns a Clock stopped at t.
func NewClock(t time.Time) *Clock {
	return &Clock{t: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
