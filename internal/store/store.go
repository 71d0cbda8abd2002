package store

import (
	"context"
	"errors"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// TaskQuery is the coarse prefilter applied in SQL. Everything finer is
// left to the filter engine.
type TaskQuery struct {
	Statuses      []model.Status
	ModifiedSince *time.Time
	Limit         int
}

// Store defines the persistence interface for tasks, the hero profile,
// XP history, filter presets and notifications.
type Store interface {
	// === Tasks ===

	CreateTask(ctx context.Context, task model.Task) error
	UpdateTask(ctx context.Context, task model.Task) error
	DeleteTask(ctx context.Context, uuid string) error
	GetTask(ctx context.Context, uuid string) (*model.Task, error)
	GetTasks(ctx context.Context, q TaskQuery) ([]model.Task, error)
	SaveUrgencies(ctx context.Context, urgencies map[string]float64) error

	// === Hero and XP ===

	GetHero(ctx context.Context) (model.Hero, error)
	SaveHero(ctx context.Context, hero model.Hero) error
	AddXPHistory(ctx context.Context, entry model.XpHistoryEntry) error
	GetXPHistory(ctx context.Context, since *time.Time, limit int) ([]model.XpHistoryEntry, error)

	// CompleteTask writes the completed task, the updated hero, the XP
	// history entry and any notifications in a single transaction.
	CompleteTask(ctx context.Context, task model.Task, hero model.Hero, entry model.XpHistoryEntry, notes []model.Notification) error

	// === Filter presets ===

	SavePreset(ctx context.Context, preset model.FilterPreset) error
	GetPreset(ctx context.Context, name string) (*model.FilterPreset, error)
	GetPresets(ctx context.Context) ([]model.FilterPreset, error)
	DeletePreset(ctx context.Context, name string) error

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	GetNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	HasNotification(ctx context.Context, taskUUID string, kind model.NotificationKind) (bool, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error

	// === Snapshots ===

	Dump(ctx context.Context) (model.Snapshot, error)
	ReplaceAll(ctx context.Context, snap model.Snapshot) error
	ImportTasks(ctx context.Context, tasks []model.Task) error

	Close() error
}
