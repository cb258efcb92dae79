package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/taskdeck/core/internal/domain/entities"
	"github.com/taskdeck/core/internal/domain/quiethours"
	"github.com/taskdeck/core/internal/infrastructure/logger"
)

// NotificationService decides, for one task, which notifications must be
// created right now. It is pure with respect to its inputs: it reads the
// snapshots handed to it and returns the notifications to persist, leaving
// all mutation to the caller.
type NotificationService struct {
	logger *logger.Logger
}

// NewNotificationService creates a new notification generator.
func NewNotificationService(logger *logger.Logger) *NotificationService {
	return &NotificationService{logger: logger}
}

// Generate returns the new notifications for a task at the given instant.
//
// The decision sequence short-circuits: globally disabled preferences, a
// missing due date, a completed task, or an active quiet-hours window each
// produce nothing. Quiet-hours suppression only delays creation; the dedup
// keys persist across sweeps, so the first sweep after the window ends emits
// whatever is still owed.
func (s *NotificationService) Generate(
	task *entities.Task,
	pref *entities.NotificationPreference,
	existing []*entities.Notification,
	now time.Time,
) []*entities.Notification {
	if pref == nil || !pref.Enabled {
		return nil
	}
	if !task.HasDueDate() {
		return nil
	}
	if task.IsCompleted() {
		return nil
	}

	suppressed, err := quiethours.Suppressed(now, quiethours.Window{
		Enabled:  pref.QuietHoursEnabled,
		Start:    pref.QuietHoursStart,
		End:      pref.QuietHoursEnd,
		Timezone: pref.Timezone,
	})
	if err != nil {
		// Malformed times disable the window for this pass; a bad timezone
		// already fell back to UTC inside the evaluator. Neither is fatal.
		s.logger.Warn("Quiet hours evaluation anomaly",
			"user_id", pref.UserID, "task_id", task.ID, "error", err)
	}
	if suppressed {
		return nil
	}

	fired := make(map[string]bool, len(existing))
	for _, n := range existing {
		fired[n.DedupKey()] = true
	}

	due := *task.DueDate
	var out []*entities.Notification

	if pref.OverdueEnabled && due.Before(now) {
		overdue := &entities.Notification{
			UserID:  pref.UserID,
			TaskID:  task.ID,
			Kind:    entities.NotificationKindOverdue,
			Title:   "Task overdue",
			Message: fmt.Sprintf("%q was due %s and is now overdue", task.Title, due.Format("Jan 2, 15:04")),
			Meta: entities.NotificationMeta{
				Priority:  task.Priority,
				DueDate:   task.DueDate,
				ProjectID: task.ProjectID,
			},
			CreatedAt: now,
		}
		if !fired[overdue.DedupKey()] {
			out = append(out, overdue)
		}
	}

	loc := s.userLocation(pref)

	rules := pref.Reminders
	if len(rules) > entities.MaxReminderRules {
		rules = rules[:entities.MaxReminderRules]
	}
	for i := range rules {
		rule := rules[i]
		trigger, ok := s.triggerInstant(due, rule, loc)
		if !ok || now.Before(trigger) {
			continue
		}

		ruleID := rule.ID
		reminder := &entities.Notification{
			UserID:  pref.UserID,
			TaskID:  task.ID,
			Kind:    entities.NotificationKindReminder,
			RuleID:  &ruleID,
			Title:   "Task due soon",
			Message: fmt.Sprintf("%q is due %s", task.Title, due.In(loc).Format("Jan 2, 15:04")),
			Meta: entities.NotificationMeta{
				Priority:  task.Priority,
				DueDate:   task.DueDate,
				ProjectID: task.ProjectID,
			},
			CreatedAt: now,
		}
		if !fired[reminder.DedupKey()] {
			out = append(out, reminder)
		}
	}

	return out
}

// triggerInstant resolves a reminder rule to the absolute instant it fires
// at: due minus a fixed offset, or a days-before count at a local clock time.
func (s *NotificationService) triggerInstant(due time.Time, rule entities.ReminderRule, loc *time.Location) (time.Time, bool) {
	if rule.IsFixedOffset() {
		return due.Add(-rule.Offset), true
	}

	hour, minute, err := parseClock(rule.AtTime)
	if err != nil {
		s.logger.Warn("Skipping malformed reminder rule", "rule_id", rule.ID, "at_time", rule.AtTime, "error", err)
		return time.Time{}, false
	}

	localDue := due.In(loc)
	day := localDue.AddDate(0, 0, -rule.DaysBefore)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), true
}

func (s *NotificationService) userLocation(pref *entities.NotificationPreference) *time.Location {
	zone := strings.TrimSpace(pref.Timezone)
	if zone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		s.logger.Warn("Unresolvable preference timezone, using UTC", "user_id", pref.UserID, "timezone", zone)
		return time.UTC
	}
	return loc
}

func parseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
