package quiethours

import (
	"errors"
	"testing"
	"time"
)

func at(hh, mm int) time.Time {
	return time.Date(2026, time.June, 15, hh, mm, 0, 0, time.UTC)
}

func TestSuppressed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		now     time.Time
		window  Window
		want    bool
		wantErr bool
	}{
		{
			name:   "disabled window never suppresses",
			now:    at(23, 0),
			window: Window{Enabled: false, Start: "22:00", End: "08:00", Timezone: "UTC"},
			want:   false,
		},
		{
			name:   "non-crossing window inside",
			now:    at(15, 0),
			window: Window{Enabled: true, Start: "12:00", End: "18:00", Timezone: "UTC"},
			want:   true,
		},
		{
			name:   "non-crossing window before start",
			now:    at(11, 59),
			window: Window{Enabled: true, Start: "12:00", End: "18:00", Timezone: "UTC"},
			want:   false,
		},
		{
			name:   "non-crossing window start boundary is inclusive",
			now:    at(12, 0),
			window: Window{Enabled: true, Start: "12:00", End: "18:00", Timezone: "UTC"},
			want:   true,
		},
		{
			name:   "non-crossing window end boundary is inclusive",
			now:    at(18, 0),
			window: Window{Enabled: true, Start: "12:00", End: "18:00", Timezone: "UTC"},
			want:   true,
		},
		{
			name:   "non-crossing window after end",
			now:    at(18, 1),
			window: Window{Enabled: true, Start: "12:00", End: "18:00", Timezone: "UTC"},
			want:   false,
		},
		{
			name:   "midnight-crossing window late evening",
			now:    at(23, 0),
			window: Window{Enabled: true, Start: "22:00", End: "08:00", Timezone: "UTC"},
			want:   true,
		},
		{
			name:   "midnight-crossing window early morning",
			now:    at(2, 0),
			window: Window{Enabled: true, Start: "22:00", End: "08:00", Timezone: "UTC"},
			want:   true,
		},
		{
			name:   "midnight-crossing window midday",
			now:    at(12, 0),
			window: Window{Enabled: true, Start: "22:00", End: "08:00", Timezone: "UTC"},
			want:   false,
		},
		{
			name:   "midnight-crossing start boundary is inclusive",
			now:    at(22, 0),
			window: Window{Enabled: true, Start: "22:00", End: "08:00", Timezone: "UTC"},
			want:   true,
		},
		{
			name:   "midnight-crossing end boundary is inclusive",
			now:    at(8, 0),
			window: Window{Enabled: true, Start: "22:00", End: "08:00", Timezone: "UTC"},
			want:   true,
		},
		{
			name:   "midnight-crossing just before start",
			now:    at(21, 59),
			window: Window{Enabled: true, Start: "22:00", End: "08:00", Timezone: "UTC"},
			want:   false,
		},
		{
			name:   "midnight-crossing just after end",
			now:    at(8, 1),
			window: Window{Enabled: true, Start: "22:00", End: "08:00", Timezone: "UTC"},
			want:   false,
		},
		{
			// 03:00 UTC on 2026-06-15 is 23:00 in New York (EDT, UTC-4).
			name:   "window evaluates in the user's timezone",
			now:    at(3, 0),
			window: Window{Enabled: true, Start: "22:00", End: "08:00", Timezone: "America/New_York"},
			want:   true,
		},
		{
			name:   "empty timezone defaults to UTC",
			now:    at(23, 0),
			window: Window{Enabled: true, Start: "22:00", End: "08:00", Timezone: ""},
			want:   true,
		},
		{
			name:    "malformed start disables the window",
			now:     at(23, 0),
			window:  Window{Enabled: true, Start: "25:00", End: "08:00", Timezone: "UTC"},
			want:    false,
			wantErr: true,
		},
		{
			name:    "malformed end disables the window",
			now:     at(23, 0),
			window:  Window{Enabled: true, Start: "22:00", End: "8pm", Timezone: "UTC"},
			want:    false,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Suppressed(tt.now, tt.window)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Suppressed() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Suppressed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSuppressedBadTimezoneFallsBackToUTC(t *testing.T) {
	t.Parallel()

	// 23:00 UTC is inside the window when evaluated in UTC; the bad zone must
	// be reported but not swallow the result.
	got, err := Suppressed(at(23, 0), Window{
		Enabled:  true,
		Start:    "22:00",
		End:      "08:00",
		Timezone: "Mars/Olympus_Mons",
	})

	var tzErr *ErrBadTimezone
	if !errors.As(err, &tzErr) {
		t.Fatalf("expected *ErrBadTimezone, got %v", err)
	}
	if tzErr.Zone != "Mars/Olympus_Mons" {
		t.Errorf("ErrBadTimezone.Zone = %q", tzErr.Zone)
	}
	if !got {
		t.Error("expected UTC fallback evaluation to suppress at 23:00")
	}
}

func TestParseMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "23:59", want: 1439},
		{in: "08:30", want: 510},
		{in: " 08:30 ", want: 510},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12", wantErr: true},
		{in: "", wantErr: true},
		{in: "ab:cd", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseMinutes(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseMinutes(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseMinutes(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
