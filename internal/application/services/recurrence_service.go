package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/core/internal/domain/entities"
	"github.com/taskdeck/core/internal/domain/recurrence"
)

// RecurrenceService builds the successor occurrence of a recurring task. It
// performs no persistence; the completion operation decides what to do with
// the returned task.
type RecurrenceService struct{}

// NewRecurrenceService creates a new recurrence spawner.
func NewRecurrenceService() *RecurrenceService {
	return &RecurrenceService{}
}

// Spawn returns the successor for a task that is being completed, or nil
// when the task does not recur or its series is exhausted.
//
// task must be the pre-completion snapshot: the next occurrence is anchored
// at the task's own due date, never at the completion instant, so completing
// late does not shift the series. completionID ties the successor to the
// exact completion event that produced it; the store enforces uniqueness on
// it so a retried completion cannot spawn twice.
func (s *RecurrenceService) Spawn(
	task *entities.Task,
	project *entities.Project,
	completedAt time.Time,
	completionID uuid.UUID,
) *entities.Task {
	if task.DueDate == nil || !task.Recurrence.Repeats() {
		return nil
	}

	nextDue, ok := recurrence.NextOccurrence(*task.DueDate, task.Recurrence)
	if !ok {
		return nil
	}

	startColumn := project.StartingColumn()

	subtasks := make([]entities.Subtask, len(task.Subtasks))
	for i, st := range task.Subtasks {
		subtasks[i] = entities.Subtask{Title: st.Title, Completed: false}
	}

	successor := &entities.Task{
		ID:          uuid.New(),
		ProjectID:   task.ProjectID,
		OwnerID:     task.OwnerID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Column:      startColumn,
		Labels:      append([]string(nil), task.Labels...),
		DueDate:     &nextDue,
		Recurrence:  task.Recurrence,
		Subtasks:    subtasks,
		StatusHistory: []entities.StatusChange{
			{From: "", To: startColumn, ChangedAt: completedAt},
		},
		SpawnedFromCompletionID: &completionID,
		CreatedAt:               completedAt,
		UpdatedAt:               completedAt,
	}

	return successor
}
