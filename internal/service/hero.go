package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/dates"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/filter"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/report"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/store"
)

// hero loads the profile, creating a fresh one on first use.
func (s *Service) hero(ctx context.Context) (model.Hero, error) {
	h, err := s.store.GetHero(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return model.NewHero(s.cfg.HeroName), nil
	}
	return h, err
}

// Hero returns the hero profile.
func (s *Service) Hero(ctx context.Context) (model.Hero, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hero(ctx)
}

// RenameHero changes the hero name.
func (s *Service) RenameHero(ctx context.Context, name string) (model.Hero, error) {
	if name == "" {
		return model.Hero{}, fmt.Errorf("hero name must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.hero(ctx)
	if err != nil {
		return model.Hero{}, err
	}
	h.Name = name
	h.UpdatedAt = s.now()
	if err := s.store.SaveHero(ctx, h); err != nil {
		return model.Hero{}, err
	}
	return h, nil
}

// XPHistory returns the most recent XP awards, newest first.
func (s *Service) XPHistory(ctx context.Context, limit int) ([]model.XpHistoryEntry, error) {
	return s.store.GetXPHistory(ctx, nil, limit)
}

// Notifications lists stored notifications, optionally unread only.
func (s *Service) Notifications(ctx context.Context, unreadOnly bool, limit int) ([]model.Notification, error) {
	if unreadOnly {
		return s.store.GetUnreadNotifications(ctx)
	}
	return s.store.GetNotifications(ctx, limit)
}

// MarkRead marks one notification, or all of them when id is empty.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		return s.store.MarkAllNotificationsRead(ctx)
	}
	return s.store.MarkNotificationRead(ctx, id)
}

// Burndown aggregates pending/started/done counts per bucket.
func (s *Service) Burndown(ctx context.Context, from, to time.Time, iv report.Interval) ([]report.BurndownPoint, error) {
	tasks, err := s.store.GetTasks(ctx, store.TaskQuery{})
	if err != nil {
		return nil, err
	}
	return report.Burndown(tasks, from, to, iv), nil
}

// TaskHistory counts added, completed and deleted tasks per bucket.
func (s *Service) TaskHistory(ctx context.Context, from, to time.Time, iv report.Interval) ([]report.HistoryRow, error) {
	tasks, err := s.store.GetTasks(ctx, store.TaskQuery{})
	if err != nil {
		return nil, err
	}
	return report.History(tasks, from, to, iv), nil
}

// Summary computes collection statistics with fresh urgencies.
func (s *Service) Summary(ctx context.Context) (report.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	tasks, err := s.loadAll(ctx, now)
	if err != nil {
		return report.Stats{}, err
	}
	return report.Summary(tasks, now), nil
}

// XPByDay totals XP per day between from and to.
func (s *Service) XPByDay(ctx context.Context, from, to time.Time) ([]report.DayXP, error) {
	since := dates.StartOfDay(from)
	history, err := s.store.GetXPHistory(ctx, &since, 0)
	if err != nil {
		return nil, err
	}
	return report.XPByDay(history, from, to), nil
}

// SavePreset stores a named filter expression after checking that it
// parses. The expression is kept verbatim so relative dates stay relative.
func (s *Service) SavePreset(ctx context.Context, name, expr string) error {
	if _, err := filter.ParseExpression(expr, s.now()); err != nil {
		return err
	}
	return s.store.SavePreset(ctx, model.FilterPreset{
		Name:       name,
		Expression: expr,
		CreatedAt:  s.now(),
	})
}

// Presets lists stored filter presets.
func (s *Service) Presets(ctx context.Context) ([]model.FilterPreset, error) {
	return s.store.GetPresets(ctx)
}

// DeletePreset removes a stored preset.
func (s *Service) DeletePreset(ctx context.Context, name string) error {
	return s.store.DeletePreset(ctx, name)
}

// ApplyPreset lists the tasks matching a stored preset.
func (s *Service) ApplyPreset(ctx context.Context, name string) ([]model.Task, error) {
	p, err := s.store.GetPreset(ctx, name)
	if err != nil {
		return nil, err
	}
	f, err := filter.ParseExpression(p.Expression, s.now())
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", name, err)
	}
	return s.List(ctx, f)
}
