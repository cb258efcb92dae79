// Package recurrence advances task due dates by calendar-unit steps. All
// functions are pure; callers supply the anchor and rule explicitly.
package recurrence

import (
	"time"

	"github.com/taskdeck/core/internal/domain/entities"
)

// Next advances anchor by one cadence step: interval days for daily,
// interval*7 days for weekly, interval calendar months or years otherwise.
//
// Month and year arithmetic clamps: when the anchor's day does not exist in
// the target month (e.g. Jan 31 + 1 month), the result lands on the last
// valid day of that month instead of rolling into the next one. Rolling would
// drift a "31st of the month" series onto arbitrary days.
func Next(anchor time.Time, freq entities.Frequency, interval int) time.Time {
	if interval <= 0 {
		interval = 1
	}

	switch freq {
	case entities.FrequencyDaily:
		return anchor.AddDate(0, 0, interval)
	case entities.FrequencyWeekly:
		return anchor.AddDate(0, 0, interval*7)
	case entities.FrequencyMonthly:
		return addMonthsClamped(anchor, interval)
	case entities.FrequencyYearly:
		return addMonthsClamped(anchor, interval*12)
	default:
		return anchor
	}
}

// NextOccurrence computes the successor due date for a rule anchored at the
// given date. ok is false when the rule never repeats or the computed date
// exceeds the rule's end date (series exhausted).
func NextOccurrence(anchor time.Time, rule entities.RecurrenceRule) (time.Time, bool) {
	if !rule.Repeats() {
		return time.Time{}, false
	}

	next := Next(anchor, rule.Frequency, rule.Interval)
	if rule.EndDate != nil && next.After(*rule.EndDate) {
		return time.Time{}, false
	}

	return next, true
}

// addMonthsClamped shifts t by months whole calendar months, clamping the day
// of month to the target month's length. time.AddDate alone normalizes
// out-of-range days forward (Jan 31 + 1 month = Mar 3), which is exactly the
// behavior being avoided here.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	// First of the target month, then clamp the day.
	first := time.Date(year, month, 1, hour, min, sec, t.Nanosecond(), t.Location())
	target := first.AddDate(0, months, 0)

	last := daysInMonth(target.Month(), target.Year())
	if day > last {
		day = last
	}

	return time.Date(target.Year(), target.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysInMonth(month time.Month, year int) int {
	// Move to the next month, roll back a day.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	lastOfMonth := firstOfMonth.AddDate(0, 1, -1)
	return lastOfMonth.Day()
}
