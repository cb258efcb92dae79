package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/core/internal/domain/entities"
	"github.com/taskdeck/core/internal/infrastructure/logger"
	"github.com/taskdeck/core/internal/infrastructure/metrics"
	"github.com/taskdeck/core/internal/ports"
)

// TerminalColumn is the column a completed task is moved to.
const TerminalColumn = "done"

// completionNamespace seeds deterministic completion-event IDs. The same
// (task, completedAt) pair always maps to the same event ID, so a retried
// completion presents the same idempotency key to the store.
var completionNamespace = uuid.MustParse("8f3c1c7e-2d5a-4a0b-9f41-6d1f59c2b7aa")

// CompletionService runs as part of the operation that marks a task
// completed. It applies recurrence synchronously: the predecessor's
// completion and the successor's creation are one unit from the caller's
// point of view.
type CompletionService struct {
	taskRepo    ports.TaskRepository
	projectRepo ports.ProjectRepository
	spawner     *RecurrenceService
	publisher   ports.EventPublisher
	clock       ports.Clock
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

// NewCompletionService creates a new completion hook.
func NewCompletionService(
	taskRepo ports.TaskRepository,
	projectRepo ports.ProjectRepository,
	spawner *RecurrenceService,
	publisher ports.EventPublisher,
	clock ports.Clock,
	m *metrics.Metrics,
	log *logger.Logger,
) *CompletionService {
	return &CompletionService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		spawner:     spawner,
		publisher:   publisher,
		clock:       clock,
		logger:      log,
		metrics:     m,
	}
}

// CompleteTask marks a task completed and applies recurrence in the same
// logical operation. It returns the successor task, nil when the task does
// not recur. Safe to retry: the completion-event ID is derived from the
// task and its completion instant, and the store refuses a second successor
// for the same event.
func (s *CompletionService) CompleteTask(ctx context.Context, taskID uuid.UUID) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}

	completedAt := s.clock.Now()
	if task.IsCompleted() {
		// Retried completion: keep the original instant so the event ID,
		// and therefore the idempotency key, is unchanged.
		completedAt = *task.CompletedAt
	} else {
		if err := s.taskRepo.MarkCompleted(ctx, task.ID, completedAt, TerminalColumn); err != nil {
			return nil, fmt.Errorf("mark task completed: %w", err)
		}
	}

	return s.ApplyRecurrence(ctx, task, completedAt)
}

// ApplyRecurrence spawns and persists the successor of a just-completed
// recurring task. task must be the pre-completion snapshot (original due
// date intact). A store failure is returned to the caller: swallowing it
// would silently terminate the series.
func (s *CompletionService) ApplyRecurrence(ctx context.Context, task *entities.Task, completedAt time.Time) (*entities.Task, error) {
	if !task.Recurrence.Repeats() || task.DueDate == nil {
		return nil, nil
	}

	completionID := completionEventID(task.ID, completedAt)

	project, err := s.projectRepo.GetByID(ctx, task.ProjectID)
	if err != nil {
		if !errors.Is(err, entities.ErrProjectNotFound) {
			return nil, fmt.Errorf("load project: %w", err)
		}
		project = nil // successor falls back to the default start column
	}

	successor := s.spawner.Spawn(task, project, completedAt, completionID)
	if successor == nil {
		s.logger.Info("Recurrence series exhausted", "task_id", task.ID)
		return nil, nil
	}

	if err := s.taskRepo.CreateSuccessor(ctx, successor); err != nil {
		if errors.Is(err, entities.ErrSuccessorExists) {
			prior, lookupErr := s.taskRepo.GetSuccessorByCompletion(ctx, completionID)
			if lookupErr != nil {
				return nil, fmt.Errorf("successor exists but lookup failed: %w", lookupErr)
			}
			s.logger.Info("Successor already spawned for this completion",
				"task_id", task.ID, "successor_id", prior.ID)
			return prior, nil
		}
		return nil, fmt.Errorf("create successor: %w", err)
	}

	s.logger.Info("Spawned successor task",
		"task_id", task.ID, "successor_id", successor.ID, "due_date", successor.DueDate)
	if s.metrics != nil {
		s.metrics.SuccessorsSpawned.Inc()
	}

	if s.publisher != nil {
		if err := s.publisher.TaskSpawned(ctx, successor); err != nil {
			s.logger.Warn("Failed to announce successor", "successor_id", successor.ID, "error", err)
		}
	}

	return successor, nil
}

func completionEventID(taskID uuid.UUID, completedAt time.Time) uuid.UUID {
	name := make([]byte, 0, len(taskID)+len(time.RFC3339Nano))
	name = append(name, taskID[:]...)
	name = completedAt.UTC().AppendFormat(name, time.RFC3339Nano)
	return uuid.NewSHA1(completionNamespace, name)
}
