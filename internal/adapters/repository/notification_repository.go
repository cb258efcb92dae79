package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskdeck/core/internal/domain/entities"
	"github.com/taskdeck/core/internal/ports"
)

// NotificationRepositoryImpl implements the NotificationRepository interface.
// The dedup invariant lives here, in the notifications_dedup_key unique
// index: the generator's read-before-write check is only an optimization,
// and two racing sweeps resolve at insert time.
type NotificationRepositoryImpl struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlx.DB) ports.NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func (r *NotificationRepositoryImpl) Create(ctx context.Context, n *entities.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	query := `
		INSERT INTO notifications (id, user_id, task_id, kind, rule_id, title,
			message, priority, due_date, project_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.TaskID, n.Kind, n.RuleID, n.Title, n.Message,
		n.Meta.Priority, n.Meta.DueDate, n.Meta.ProjectID, n.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "notifications_dedup_key") {
			return entities.ErrDuplicateNotification
		}
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

func (r *NotificationRepositoryImpl) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entities.Notification, error) {
	query := `
		SELECT id, user_id, task_id, kind, rule_id, title, message,
			priority, due_date, project_id, created_at
		FROM notifications
		WHERE task_id = $1
		ORDER BY created_at`

	rows, err := r.db.QueryxContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("list notifications by task: %w", err)
	}
	defer rows.Close()

	var notifications []*entities.Notification
	for rows.Next() {
		var n entities.Notification
		err := rows.Scan(
			&n.ID, &n.UserID, &n.TaskID, &n.Kind, &n.RuleID, &n.Title,
			&n.Message, &n.Meta.Priority, &n.Meta.DueDate, &n.Meta.ProjectID,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return notifications, nil
}
