package recurrence

import (
	"testing"
	"time"

	"github.com/taskdeck/core/internal/domain/entities"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		anchor   time.Time
		freq     entities.Frequency
		interval int
		want     time.Time
	}{
		{
			name:     "daily single step",
			anchor:   date(2026, time.March, 10, 9, 0),
			freq:     entities.FrequencyDaily,
			interval: 1,
			want:     date(2026, time.March, 11, 9, 0),
		},
		{
			name:     "daily multi step",
			anchor:   date(2026, time.March, 10, 9, 0),
			freq:     entities.FrequencyDaily,
			interval: 3,
			want:     date(2026, time.March, 13, 9, 0),
		},
		{
			name:     "weekly",
			anchor:   date(2026, time.March, 2, 17, 30),
			freq:     entities.FrequencyWeekly,
			interval: 1,
			want:     date(2026, time.March, 9, 17, 30),
		},
		{
			name:     "biweekly",
			anchor:   date(2026, time.March, 2, 17, 30),
			freq:     entities.FrequencyWeekly,
			interval: 2,
			want:     date(2026, time.March, 16, 17, 30),
		},
		{
			name:     "monthly plain",
			anchor:   date(2026, time.March, 15, 8, 0),
			freq:     entities.FrequencyMonthly,
			interval: 1,
			want:     date(2026, time.April, 15, 8, 0),
		},
		{
			name:     "monthly jan 31 clamps to feb 28",
			anchor:   date(2026, time.January, 31, 12, 0),
			freq:     entities.FrequencyMonthly,
			interval: 1,
			want:     date(2026, time.February, 28, 12, 0),
		},
		{
			name:     "monthly jan 31 clamps to feb 29 in a leap year",
			anchor:   date(2024, time.January, 31, 12, 0),
			freq:     entities.FrequencyMonthly,
			interval: 1,
			want:     date(2024, time.February, 29, 12, 0),
		},
		{
			name:     "monthly mar 31 clamps to apr 30",
			anchor:   date(2026, time.March, 31, 0, 0),
			freq:     entities.FrequencyMonthly,
			interval: 1,
			want:     date(2026, time.April, 30, 0, 0),
		},
		{
			name:     "monthly multi step across year boundary",
			anchor:   date(2026, time.November, 30, 10, 0),
			freq:     entities.FrequencyMonthly,
			interval: 3,
			want:     date(2027, time.February, 28, 10, 0),
		},
		{
			name:     "yearly",
			anchor:   date(2026, time.June, 1, 0, 0),
			freq:     entities.FrequencyYearly,
			interval: 1,
			want:     date(2027, time.June, 1, 0, 0),
		},
		{
			name:     "yearly feb 29 clamps to feb 28",
			anchor:   date(2024, time.February, 29, 9, 0),
			freq:     entities.FrequencyYearly,
			interval: 1,
			want:     date(2025, time.February, 28, 9, 0),
		},
		{
			name:     "yearly feb 29 to the next leap year stays on the 29th",
			anchor:   date(2024, time.February, 29, 9, 0),
			freq:     entities.FrequencyYearly,
			interval: 4,
			want:     date(2028, time.February, 29, 9, 0),
		},
		{
			name:     "non-positive interval treated as one",
			anchor:   date(2026, time.March, 10, 9, 0),
			freq:     entities.FrequencyDaily,
			interval: 0,
			want:     date(2026, time.March, 11, 9, 0),
		},
		{
			name:     "none frequency returns anchor unchanged",
			anchor:   date(2026, time.March, 10, 9, 0),
			freq:     entities.FrequencyNone,
			interval: 1,
			want:     date(2026, time.March, 10, 9, 0),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Next(tt.anchor, tt.freq, tt.interval)
			if !got.Equal(tt.want) {
				t.Errorf("Next(%v, %s, %d) = %v, want %v", tt.anchor, tt.freq, tt.interval, got, tt.want)
			}
		})
	}
}

func TestNextPreservesTimeOfDay(t *testing.T) {
	t.Parallel()

	anchor := time.Date(2026, time.January, 31, 23, 45, 12, 500, time.UTC)
	got := Next(anchor, entities.FrequencyMonthly, 1)

	if got.Hour() != 23 || got.Minute() != 45 || got.Second() != 12 || got.Nanosecond() != 500 {
		t.Errorf("clamped step altered time of day: got %v", got)
	}
}

func TestNextOccurrence(t *testing.T) {
	t.Parallel()

	end := date(2026, time.March, 20, 0, 0)

	tests := []struct {
		name   string
		anchor time.Time
		rule   entities.RecurrenceRule
		want   time.Time
		wantOK bool
	}{
		{
			name:   "repeating rule within end date",
			anchor: date(2026, time.March, 10, 9, 0),
			rule:   entities.RecurrenceRule{Frequency: entities.FrequencyWeekly, Interval: 1, EndDate: &end},
			want:   date(2026, time.March, 17, 9, 0),
			wantOK: true,
		},
		{
			name:   "no end date never exhausts",
			anchor: date(2026, time.March, 10, 9, 0),
			rule:   entities.RecurrenceRule{Frequency: entities.FrequencyDaily, Interval: 1},
			want:   date(2026, time.March, 11, 9, 0),
			wantOK: true,
		},
		{
			name:   "next step past end date exhausts the series",
			anchor: date(2026, time.March, 15, 9, 0),
			rule:   entities.RecurrenceRule{Frequency: entities.FrequencyWeekly, Interval: 1, EndDate: &end},
			wantOK: false,
		},
		{
			name:   "none frequency does not repeat",
			anchor: date(2026, time.March, 10, 9, 0),
			rule:   entities.RecurrenceRule{Frequency: entities.FrequencyNone},
			wantOK: false,
		},
		{
			name:   "empty frequency does not repeat",
			anchor: date(2026, time.March, 10, 9, 0),
			rule:   entities.RecurrenceRule{},
			wantOK: false,
		},
		{
			name:   "step landing exactly on the end date is still valid",
			anchor: date(2026, time.March, 13, 0, 0),
			rule:   entities.RecurrenceRule{Frequency: entities.FrequencyWeekly, Interval: 1, EndDate: &end},
			want:   date(2026, time.March, 20, 0, 0),
			wantOK: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := NextOccurrence(tt.anchor, tt.rule)
			if ok != tt.wantOK {
				t.Fatalf("NextOccurrence() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v, want %v", got, tt.want)
			}
		})
	}
}
