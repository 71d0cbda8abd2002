// Package service implements the task operations on top of the store and
// the urgency, filter, XP and report engines.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/store"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/urgency"
)

var (
	// ErrAmbiguous is returned when a UUID prefix matches several tasks.
	ErrAmbiguous = errors.New("ambiguous task reference")

	// ErrNotPending is returned for operations that need an open task.
	ErrNotPending = errors.New("task is not pending")

	// ErrNotDeleted is returned when purging a task that was not deleted.
	ErrNotDeleted = errors.New("task is not deleted")

	// ErrDependencyCycle is returned when a dependency would make a task
	// wait on itself.
	ErrDependencyCycle = errors.New("dependency cycle")

	// ErrNoAnnotation is returned when Denotate finds nothing to remove.
	ErrNoAnnotation = errors.New("no matching annotation")
)

// Service coordinates persistence and the scoring engines. It is safe for
// concurrent use by the UI and the background scheduler.
type Service struct {
	store      store.Store
	cfg        *model.AppConfig
	configPath string
	now        func() time.Time

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithConfigPath makes configuration changes persist to path.
func WithConfigPath(path string) Option {
	return func(s *Service) { s.configPath = path }
}

// New creates a Service. A nil cfg selects the defaults.
func New(st store.Store, cfg *model.AppConfig, opts ...Option) *Service {
	if cfg == nil {
		cfg = model.DefaultAppConfig()
	}
	s := &Service{store: st, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns a copy of the active configuration.
func (s *Service) Config() model.AppConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.cfg
}

// Store exposes the underlying store for export and backup.
func (s *Service) Store() store.Store {
	return s.store
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// SetUrgencyConfig validates and activates new urgency coefficients, saves
// the configuration when a path is set and re-scores every open task.
func (s *Service) SetUrgencyConfig(ctx context.Context, cfg model.UrgencyConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg.Urgency = cfg
	if s.configPath != "" {
		if err := model.SaveConfig(s.configPath, s.cfg); err != nil {
			return err
		}
	}
	_, err := s.persistUrgencies(ctx, s.now())
	return err
}

// SetUrgencyCoefficient changes one named coefficient.
func (s *Service) SetUrgencyCoefficient(ctx context.Context, name string, value float64) error {
	s.mu.Lock()
	next, err := s.cfg.Urgency.WithCoefficient(name, value)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.SetUrgencyConfig(ctx, next)
}

// loadAll reads every task, scores it and assigns working-set ids.
func (s *Service) loadAll(ctx context.Context, now time.Time) ([]model.Task, error) {
	tasks, err := s.store.GetTasks(ctx, store.TaskQuery{})
	if err != nil {
		return nil, err
	}
	urgency.Recompute(tasks, s.cfg.Urgency, now)
	assignIDs(tasks)
	return tasks, nil
}

// assignIDs numbers the working set (pending and waiting tasks) by entry
// time, starting at 1. Other tasks get 0.
func assignIDs(tasks []model.Task) {
	idx := make([]int, 0, len(tasks))
	for i := range tasks {
		tasks[i].ID = 0
		if tasks[i].IsPending() {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ta, tb := tasks[idx[a]], tasks[idx[b]]
		if !ta.Entry.Equal(tb.Entry) {
			return ta.Entry.Before(tb.Entry)
		}
		return ta.UUID < tb.UUID
	})
	for n, i := range idx {
		tasks[i].ID = n + 1
	}
}

// resolve finds a task by working-set id or UUID prefix.
func resolve(tasks []model.Task, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return -1, fmt.Errorf("empty task reference: %w", store.ErrNotFound)
	}
	if id, err := strconv.Atoi(ref); err == nil {
		for i, t := range tasks {
			if t.ID == id && id > 0 {
				return i, nil
			}
		}
		return -1, fmt.Errorf("task %d: %w", id, store.ErrNotFound)
	}

	ref = strings.ToLower(ref)
	found := -1
	for i, t := range tasks {
		if t.UUID == ref {
			return i, nil
		}
		if strings.HasPrefix(t.UUID, ref) {
			if found >= 0 {
				return -1, fmt.Errorf("%q: %w", ref, ErrAmbiguous)
			}
			found = i
		}
	}
	if found < 0 {
		return -1, fmt.Errorf("task %q: %w", ref, store.ErrNotFound)
	}
	return found, nil
}

// Resolve returns the task a reference points to, with fresh urgency and
// id.
func (s *Service) Resolve(ctx context.Context, ref string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.loadAll(ctx, s.now())
	if err != nil {
		return model.Task{}, err
	}
	i, err := resolve(tasks, ref)
	if err != nil {
		return model.Task{}, err
	}
	return tasks[i], nil
}

// Get returns the task ref points to.
func (s *Service) Get(ctx context.Context, ref string) (model.Task, error) {
	return s.Resolve(ctx, ref)
}
