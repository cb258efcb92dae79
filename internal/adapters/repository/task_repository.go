package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/taskdeck/core/internal/domain/entities"
	"github.com/taskdeck/core/internal/ports"
)

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

// taskRow is the flat database shape of a task. Recurrence columns are
// inlined; subtasks and status history are stored as jsonb.
type taskRow struct {
	ID                      uuid.UUID       `db:"id"`
	ProjectID               uuid.UUID       `db:"project_id"`
	OwnerID                 uuid.UUID       `db:"owner_id"`
	Title                   string          `db:"title"`
	Description             *string         `db:"description"`
	Priority                string          `db:"priority"`
	Column                  string          `db:"board_column"`
	Labels                  pq.StringArray  `db:"labels"`
	DueDate                 *time.Time      `db:"due_date"`
	CompletedAt             *time.Time      `db:"completed_at"`
	RecurrenceFrequency     string          `db:"recurrence_frequency"`
	RecurrenceInterval      int             `db:"recurrence_interval"`
	RecurrenceEndDate       *time.Time      `db:"recurrence_end_date"`
	Subtasks                json.RawMessage `db:"subtasks"`
	StatusHistory           json.RawMessage `db:"status_history"`
	SpawnedFromCompletionID *uuid.UUID      `db:"spawned_from_completion_id"`
	CreatedAt               time.Time       `db:"created_at"`
	UpdatedAt               time.Time       `db:"updated_at"`
}

const taskColumns = `
	id, project_id, owner_id, title, description, priority, board_column,
	labels, due_date, completed_at, recurrence_frequency, recurrence_interval,
	recurrence_end_date, subtasks, status_history, spawned_from_completion_id,
	created_at, updated_at`

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	query := `SELECT` + taskColumns + ` FROM tasks WHERE id = $1 AND deleted_at IS NULL`

	var row taskRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	return row.toEntity()
}

func (r *TaskRepositoryImpl) ListNotifiable(ctx context.Context, filter ports.NotifiableTaskFilter) ([]*entities.Task, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}

	query := `
		SELECT` + taskColumns + `
		FROM tasks
		WHERE due_date IS NOT NULL
			AND completed_at IS NULL
			AND deleted_at IS NULL
			AND ($1::timestamptz IS NULL OR due_date <= $1)
		ORDER BY due_date
		LIMIT $2 OFFSET $3`

	var rows []taskRow
	err := r.db.SelectContext(ctx, &rows, query, filter.DueBefore, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list notifiable tasks: %w", err)
	}

	tasks := make([]*entities.Task, 0, len(rows))
	for i := range rows {
		task, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time, column string) error {
	query := `
		UPDATE tasks
		SET completed_at = $2, board_column = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, completedAt, column)
	if err != nil {
		return fmt.Errorf("mark task completed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepositoryImpl) CreateSuccessor(ctx context.Context, task *entities.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	subtasks, err := json.Marshal(task.Subtasks)
	if err != nil {
		return fmt.Errorf("marshal subtasks: %w", err)
	}
	history, err := json.Marshal(task.StatusHistory)
	if err != nil {
		return fmt.Errorf("marshal status history: %w", err)
	}

	query := `
		INSERT INTO tasks (id, project_id, owner_id, title, description, priority,
			board_column, labels, due_date, recurrence_frequency, recurrence_interval,
			recurrence_end_date, subtasks, status_history, spawned_from_completion_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		task.ID, task.ProjectID, task.OwnerID, task.Title, task.Description,
		task.Priority, task.Column, pq.Array(task.Labels), task.DueDate,
		task.Recurrence.Frequency, task.Recurrence.Interval, task.Recurrence.EndDate,
		subtasks, history, task.SpawnedFromCompletionID,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, "tasks_spawned_from_completion_key") {
			return entities.ErrSuccessorExists
		}
		return fmt.Errorf("create successor task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) GetSuccessorByCompletion(ctx context.Context, completionID uuid.UUID) (*entities.Task, error) {
	query := `SELECT` + taskColumns + ` FROM tasks WHERE spawned_from_completion_id = $1 AND deleted_at IS NULL`

	var row taskRow
	err := r.db.GetContext(ctx, &row, query, completionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get successor by completion: %w", err)
	}

	return row.toEntity()
}

func (row *taskRow) toEntity() (*entities.Task, error) {
	task := &entities.Task{
		ID:          row.ID,
		ProjectID:   row.ProjectID,
		OwnerID:     row.OwnerID,
		Title:       row.Title,
		Description: row.Description,
		Priority:    entities.Priority(row.Priority),
		Column:      row.Column,
		Labels:      []string(row.Labels),
		DueDate:     row.DueDate,
		CompletedAt: row.CompletedAt,
		Recurrence: entities.RecurrenceRule{
			Frequency: entities.Frequency(row.RecurrenceFrequency),
			Interval:  row.RecurrenceInterval,
			EndDate:   row.RecurrenceEndDate,
		},
		SpawnedFromCompletionID: row.SpawnedFromCompletionID,
		CreatedAt:               row.CreatedAt,
		UpdatedAt:               row.UpdatedAt,
	}

	if len(row.Subtasks) > 0 {
		if err := json.Unmarshal(row.Subtasks, &task.Subtasks); err != nil {
			return nil, fmt.Errorf("unmarshal subtasks: %w", err)
		}
	}
	if len(row.StatusHistory) > 0 {
		if err := json.Unmarshal(row.StatusHistory, &task.StatusHistory); err != nil {
			return nil, fmt.Errorf("unmarshal status history: %w", err)
		}
	}

	return task, nil
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation on the named constraint. An empty name matches any constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
