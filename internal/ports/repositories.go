package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/core/internal/domain/entities"
)

// TaskRepository defines the task store surface the engine consumes. The
// surrounding application owns full task CRUD; the engine only needs the
// sweep feed, single-task reads, completion writes and successor inserts.
type TaskRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error)
	// ListNotifiable returns tasks with a due date and no completion
	// timestamp, up to filter.Limit. A sweep is bounded and resumable:
	// tasks beyond the limit are picked up on the next trigger.
	ListNotifiable(ctx context.Context, filter NotifiableTaskFilter) ([]*entities.Task, error)
	// MarkCompleted sets the completion fields on a task.
	MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time, column string) error
	// CreateSuccessor inserts a spawned task. The store enforces uniqueness
	// on the successor's spawned_from_completion_id and returns
	// entities.ErrSuccessorExists when the completion already spawned one.
	CreateSuccessor(ctx context.Context, task *entities.Task) error
	// GetSuccessorByCompletion looks up the task spawned by a completion
	// event, returning entities.ErrTaskNotFound when none exists.
	GetSuccessorByCompletion(ctx context.Context, completionID uuid.UUID) (*entities.Task, error)
}

// PreferenceRepository defines the per-user preference store. Records are
// created lazily: GetByUser returns entities.ErrPreferenceNotFound for users
// who never touched their settings, and callers substitute defaults.
type PreferenceRepository interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*entities.NotificationPreference, error)
	Upsert(ctx context.Context, pref *entities.NotificationPreference) error
}

// NotificationRepository defines the notification store. Create is subject
// to the dedup uniqueness constraint on (task, kind, rule): a violating
// insert returns entities.ErrDuplicateNotification, which callers treat as
// "already handled", not as a failure.
type NotificationRepository interface {
	Create(ctx context.Context, n *entities.Notification) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entities.Notification, error)
}

// ProjectRepository exposes the project slice the engine reads: the starting
// column successors are reset to.
type ProjectRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Project, error)
}

// NotifiableTaskFilter bounds one sweep's task feed.
type NotifiableTaskFilter struct {
	DueBefore *time.Time
	Limit     int
	Offset    int
}
