package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskdeck/core/internal/domain/entities"
	"github.com/taskdeck/core/internal/ports"
)

// PreferenceRepositoryImpl implements the PreferenceRepository interface
type PreferenceRepositoryImpl struct {
	db *sqlx.DB
}

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(db *sqlx.DB) ports.PreferenceRepository {
	return &PreferenceRepositoryImpl{db: db}
}

type reminderRuleRow struct {
	ID            uuid.UUID `db:"id"`
	UserID        uuid.UUID `db:"user_id"`
	Position      int       `db:"position"`
	OffsetSeconds int64     `db:"offset_seconds"`
	DaysBefore    int       `db:"days_before"`
	AtTime        string    `db:"at_time"`
}

func (r *PreferenceRepositoryImpl) GetByUser(ctx context.Context, userID uuid.UUID) (*entities.NotificationPreference, error) {
	query := `
		SELECT user_id, enabled, quiet_hours_enabled, quiet_hours_start,
			quiet_hours_end, timezone, overdue_enabled, updated_at
		FROM notification_preferences
		WHERE user_id = $1`

	var pref entities.NotificationPreference
	err := r.db.GetContext(ctx, &pref, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrPreferenceNotFound
		}
		return nil, fmt.Errorf("get preference by user: %w", err)
	}

	rulesQuery := `
		SELECT id, user_id, position, offset_seconds, days_before, at_time
		FROM reminder_rules
		WHERE user_id = $1
		ORDER BY position`

	var rows []reminderRuleRow
	if err := r.db.SelectContext(ctx, &rows, rulesQuery, userID); err != nil {
		return nil, fmt.Errorf("get reminder rules: %w", err)
	}

	pref.Reminders = make([]entities.ReminderRule, 0, len(rows))
	for _, row := range rows {
		pref.Reminders = append(pref.Reminders, entities.ReminderRule{
			ID:         row.ID,
			Offset:     time.Duration(row.OffsetSeconds) * time.Second,
			DaysBefore: row.DaysBefore,
			AtTime:     row.AtTime,
		})
	}

	return &pref, nil
}

func (r *PreferenceRepositoryImpl) Upsert(ctx context.Context, pref *entities.NotificationPreference) error {
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO notification_preferences (user_id, enabled, quiet_hours_enabled,
				quiet_hours_start, quiet_hours_end, timezone, overdue_enabled, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
			ON CONFLICT (user_id) DO UPDATE SET
				enabled = EXCLUDED.enabled,
				quiet_hours_enabled = EXCLUDED.quiet_hours_enabled,
				quiet_hours_start = EXCLUDED.quiet_hours_start,
				quiet_hours_end = EXCLUDED.quiet_hours_end,
				timezone = EXCLUDED.timezone,
				overdue_enabled = EXCLUDED.overdue_enabled,
				updated_at = CURRENT_TIMESTAMP`

		_, err := tx.ExecContext(ctx, query,
			pref.UserID, pref.Enabled, pref.QuietHoursEnabled,
			pref.QuietHoursStart, pref.QuietHoursEnd, pref.Timezone, pref.OverdueEnabled,
		)
		if err != nil {
			return fmt.Errorf("upsert preference: %w", err)
		}

		// Rule identity must be stable: already-fired reminders keep their
		// dedup keys, so rules are replaced wholesale with the IDs the
		// caller supplied.
		if _, err := tx.ExecContext(ctx, `DELETE FROM reminder_rules WHERE user_id = $1`, pref.UserID); err != nil {
			return fmt.Errorf("clear reminder rules: %w", err)
		}

		for i, rule := range pref.Reminders {
			if rule.ID == uuid.Nil {
				rule.ID = uuid.New()
				pref.Reminders[i].ID = rule.ID
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO reminder_rules (id, user_id, position, offset_seconds, days_before, at_time)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				rule.ID, pref.UserID, i, int64(rule.Offset/time.Second), rule.DaysBefore, rule.AtTime,
			)
			if err != nil {
				return fmt.Errorf("insert reminder rule: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rollbackErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
