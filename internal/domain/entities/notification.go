package entities

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind distinguishes the two triggers the engine fires on.
type NotificationKind string

const (
	NotificationKindOverdue  NotificationKind = "overdue"
	NotificationKindReminder NotificationKind = "reminder"
)

func (k NotificationKind) IsValid() bool {
	switch k {
	case NotificationKindOverdue, NotificationKindReminder:
		return true
	default:
		return false
	}
}

// MaxReminderRules bounds how many reminder rules are evaluated per task.
// Preference records may carry more; the excess is ignored.
const MaxReminderRules = 16

// ReminderRule is one configured offset from a task's due date. Exactly one
// of the two shapes is used: a fixed duration before the due instant, or a
// days-before count paired with a local clock time.
type ReminderRule struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	Offset     time.Duration `json:"offset" db:"offset_seconds"`
	DaysBefore int           `json:"days_before" db:"days_before"`
	AtTime     string        `json:"at_time" db:"at_time"` // "HH:MM", local to the user
}

// IsFixedOffset reports whether the rule is the plain duration shape.
func (r ReminderRule) IsFixedOffset() bool {
	return r.DaysBefore == 0
}

// NotificationPreference holds one user's notification settings. Records are
// created lazily; DefaultPreference supplies the shape for absent users.
type NotificationPreference struct {
	UserID            uuid.UUID      `json:"user_id" db:"user_id"`
	Enabled           bool           `json:"enabled" db:"enabled"`
	QuietHoursEnabled bool           `json:"quiet_hours_enabled" db:"quiet_hours_enabled"`
	QuietHoursStart   string         `json:"quiet_hours_start" db:"quiet_hours_start"` // "HH:MM"
	QuietHoursEnd     string         `json:"quiet_hours_end" db:"quiet_hours_end"`     // "HH:MM"
	Timezone          string         `json:"timezone" db:"timezone"`                   // IANA identifier
	OverdueEnabled    bool           `json:"overdue_enabled" db:"overdue_enabled"`
	Reminders         []ReminderRule `json:"reminders"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// DefaultPreference returns the settings assumed for a user with no stored
// preference record.
func DefaultPreference(userID uuid.UUID) *NotificationPreference {
	return &NotificationPreference{
		UserID:          userID,
		Enabled:         true,
		QuietHoursStart: "22:00",
		QuietHoursEnd:   "08:00",
		Timezone:        "UTC",
		OverdueEnabled:  true,
	}
}

// NotificationMeta is the snapshot carried on every notification so
// downstream consumers can render and group without re-fetching the task.
type NotificationMeta struct {
	Priority  Priority   `json:"priority" db:"priority"`
	DueDate   *time.Time `json:"due_date" db:"due_date"`
	ProjectID uuid.UUID  `json:"project_id" db:"project_id"`
}

// Notification is created only by the engine. Dedup invariant: at most one
// overdue notification per task, and at most one reminder per (task, rule)
// pair, across the task's lifetime. The store enforces this with a
// uniqueness constraint; see DedupKey.
type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	TaskID    uuid.UUID        `json:"task_id" db:"task_id"`
	Kind      NotificationKind `json:"kind" db:"kind"`
	RuleID    *uuid.UUID       `json:"rule_id" db:"rule_id"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Meta      NotificationMeta `json:"meta"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// DedupKey returns the (kind, rule) part of the uniqueness key within a task.
// Overdue notifications collapse to the bare kind; reminders include the rule
// that fired them.
func (n *Notification) DedupKey() string {
	if n.Kind == NotificationKindReminder && n.RuleID != nil {
		return string(n.Kind) + ":" + n.RuleID.String()
	}
	return string(n.Kind)
}
