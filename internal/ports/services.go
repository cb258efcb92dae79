package ports

import (
	"context"
	"time"

	"github.com/taskdeck/core/internal/domain/entities"
)

// Clock supplies "now". Pure components take instants as arguments; services
// that orchestrate them read the clock through this interface so tests can
// inject fixed time.
type Clock interface {
	Now() time.Time
}

// EventPublisher announces engine output to connected clients so they can
// refresh without polling. Delivery is fire-and-forget and at-least-once;
// consumers deduplicate. Publish failures are logged by callers and never
// fail the operation that produced the event.
type EventPublisher interface {
	NotificationCreated(ctx context.Context, n *entities.Notification) error
	TaskSpawned(ctx context.Context, task *entities.Task) error
	Close() error
}

// SweepRunner is the engine's periodic entry point: one full pass over
// eligible tasks, invoked by an external trigger.
type SweepRunner interface {
	Run(ctx context.Context) (*SweepReport, error)
}

// CompletionHook applies recurrence as part of the operation that marks a
// task completed. It returns the successor it created, nil when the task
// does not recur or its series is exhausted.
type CompletionHook interface {
	ApplyRecurrence(ctx context.Context, task *entities.Task, completedAt time.Time) (*entities.Task, error)
}

// SweepReport summarizes one sweep for logging and metrics.
type SweepReport struct {
	TasksEvaluated int
	Created        int
	Duplicates     int
	Failures       int
	Started        time.Time
	Duration       time.Duration
}
