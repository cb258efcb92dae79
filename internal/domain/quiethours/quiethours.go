// Package quiethours decides whether an instant falls inside a user's local
// suppression window. Evaluation is pure; anomalies (malformed times,
// unknown timezones) are reported through error values for the caller to log.
package quiethours

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window is a user's quiet-hours configuration. Start and End are local
// wall-clock times ("HH:MM") in the given IANA timezone. A window may cross
// midnight (Start > End).
type Window struct {
	Enabled  bool
	Start    string
	End      string
	Timezone string
}

// ErrBadTimezone wraps timezone resolution failures. Evaluation falls back
// to UTC and still returns a usable result alongside the error.
type ErrBadTimezone struct {
	Zone string
	Err  error
}

func (e *ErrBadTimezone) Error() string {
	return fmt.Sprintf("unresolvable timezone %q: %v", e.Zone, e.Err)
}

func (e *ErrBadTimezone) Unwrap() error { return e.Err }

// Suppressed reports whether notification creation must be held back at the
// given instant.
//
// Both window boundaries are inclusive: a 22:00-08:00 window suppresses at
// exactly 22:00 and exactly 08:00. A malformed Start or End disables the
// window for this evaluation and returns the parse error. An unresolvable
// timezone evaluates in UTC and returns an *ErrBadTimezone alongside the
// result.
func Suppressed(now time.Time, w Window) (bool, error) {
	if !w.Enabled {
		return false, nil
	}

	start, err := parseMinutes(w.Start)
	if err != nil {
		return false, fmt.Errorf("quiet hours start: %w", err)
	}
	end, err := parseMinutes(w.End)
	if err != nil {
		return false, fmt.Errorf("quiet hours end: %w", err)
	}

	loc, tzErr := loadLocation(w.Timezone)
	local := now.In(loc)
	cur := local.Hour()*60 + local.Minute()

	if start <= end {
		return cur >= start && cur <= end, tzErr
	}
	// Window crosses midnight.
	return cur >= start || cur <= end, tzErr
}

func loadLocation(zone string) (*time.Location, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" || strings.EqualFold(zone, "UTC") {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.UTC, &ErrBadTimezone{Zone: zone, Err: err}
	}
	return loc, nil
}

// parseMinutes converts "HH:MM" to minutes since local midnight.
func parseMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}
