package model

import "time"

// NotificationKind classifies a stored notification.
type NotificationKind string

const (
	NotifyDueSoon       NotificationKind = "due_soon"
	NotifyOverdue       NotificationKind = "overdue"
	NotifyLevelUp       NotificationKind = "level_up"
	NotifyTitleUnlocked NotificationKind = "title_unlocked"
	NotifyRecurrence    NotificationKind = "recurrence"
)

// Notification represents an event surfaced to the user in the status bar
// and notification list.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// TaskUUID links this notification to a task. It is empty for hero
	// events.
	TaskUUID string `json:"task_uuid,omitempty" db:"task_uuid"`

	Kind NotificationKind `json:"kind" db:"kind"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read" db:"read"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FilterPreset is a named, stored filter expression.
type FilterPreset struct {
	Name       string    `json:"name" db:"name"`
	Expression string    `json:"expression" db:"expression"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Snapshot is a complete copy of the local data, used for export, backup
// and restore.
type Snapshot struct {
	Version   int              `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
	Tasks     []Task           `json:"tasks"`
	Hero      Hero             `json:"hero"`
	History   []XpHistoryEntry `json:"history"`
	Presets   []FilterPreset   `json:"presets"`
}

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = 1
