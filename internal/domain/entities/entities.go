package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskNotFound          = errors.New("task not found")
	ErrProjectNotFound       = errors.New("project not found")
	ErrPreferenceNotFound    = errors.New("notification preference not found")
	ErrDuplicateNotification = errors.New("notification already exists for this trigger")
	ErrSuccessorExists       = errors.New("successor already spawned for this completion")
	ErrRuleExhausted         = errors.New("recurrence rule exhausted")
	ErrNoRecurrence          = errors.New("task has no recurrence")
	ErrInvalidFrequency      = errors.New("invalid recurrence frequency")
	ErrInvalidInterval       = errors.New("recurrence interval must be positive")
)

// Enums and types
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type Frequency string

const (
	FrequencyNone    Frequency = "none"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// RecurrenceRule describes how a task repeats. A zero rule (frequency none)
// never spawns a successor.
type RecurrenceRule struct {
	Frequency Frequency  `json:"frequency" db:"recurrence_frequency"`
	Interval  int        `json:"interval" db:"recurrence_interval"`
	EndDate   *time.Time `json:"end_date" db:"recurrence_end_date"`
}

// Repeats reports whether the rule produces successors at all.
func (r RecurrenceRule) Repeats() bool {
	return r.Frequency != FrequencyNone && r.Frequency != ""
}

// Subtask is a checklist item embedded in a task.
type Subtask struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// StatusChange is one entry of a task's append-only status history.
type StatusChange struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}

// Task represents a task as the engine sees it. Board/UI concerns beyond the
// column name are owned by the surrounding application.
type Task struct {
	ID                      uuid.UUID      `json:"id" db:"id"`
	ProjectID               uuid.UUID      `json:"project_id" db:"project_id"`
	OwnerID                 uuid.UUID      `json:"owner_id" db:"owner_id"`
	Title                   string         `json:"title" db:"title"`
	Description             *string        `json:"description" db:"description"`
	Priority                Priority       `json:"priority" db:"priority"`
	Column                  string         `json:"column" db:"board_column"`
	Labels                  []string       `json:"labels" db:"labels"`
	DueDate                 *time.Time     `json:"due_date" db:"due_date"`
	CompletedAt             *time.Time     `json:"completed_at" db:"completed_at"`
	Recurrence              RecurrenceRule `json:"recurrence"`
	Subtasks                []Subtask      `json:"subtasks"`
	StatusHistory           []StatusChange `json:"status_history"`
	SpawnedFromCompletionID *uuid.UUID     `json:"spawned_from_completion_id" db:"spawned_from_completion_id"`
	CreatedAt               time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at" db:"updated_at"`
}

// IsCompleted reports whether the task has been marked complete.
func (t *Task) IsCompleted() bool {
	return t.CompletedAt != nil
}

// HasDueDate reports whether the task can ever be notification- or
// recurrence-eligible.
func (t *Task) HasDueDate() bool {
	return t.DueDate != nil
}

// IsOverdue reports whether the task's due date has passed at the given
// instant. Completed tasks are never overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.IsCompleted() {
		return false
	}
	return t.DueDate.Before(now)
}

// Project represents the slice of a project the engine needs: its identity
// and the column a freshly spawned task starts in.
type Project struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	StartColumn string    `json:"start_column" db:"start_column"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultStartColumn is used when a project record carries no explicit
// starting column.
const DefaultStartColumn = "todo"

// StartingColumn returns the column successors of this project begin in.
func (p *Project) StartingColumn() string {
	if p == nil || p.StartColumn == "" {
		return DefaultStartColumn
	}
	return p.StartColumn
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyNone, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	default:
		return false
	}
}
