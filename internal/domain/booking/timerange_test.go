package booking_test

import (
	"testing"
	"time"

	"github.com/sportbook/sportbook-api/internal/domain/booking"
)

var testDay = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func TestTimeRangeOverlaps(t *testing.T) {
	base := booking.NewTimeRange(testDay, 10, 2) // 10:00-12:00

	tests := []struct {
		name      string
		startHour int
		duration  int
		want      bool
	}{
		{"identical range", 10, 2, true},
		{"contained within", 10, 1, true},
		{"overlaps start", 9, 2, true},
		{"overlaps end", 11, 2, true},
		{"spans entirely", 9, 4, true},
		{"adjacent before", 8, 2, false},
		{"adjacent after", 12, 2, false},
		{"well before", 6, 2, false},
		{"well after", 14, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := booking.NewTimeRange(testDay, tt.startHour, tt.duration)
			if got := base.Overlaps(other); got != tt.want {
				t.Fatalf("Overlaps(%d:00+%dh) = %v, want %v", tt.startHour, tt.duration, got, tt.want)
			}
			// Overlap is symmetric
			if got := other.Overlaps(base); got != tt.want {
				t.Fatalf("reverse Overlaps(%d:00+%dh) = %v, want %v", tt.startHour, tt.duration, got, tt.want)
			}
		})
	}
}

func TestTimeRangeWithinOperatingHours(t *testing.T) {
	tests := []struct {
		name      string
		startHour int
		duration  int
		open      int
		close     int
		want      bool
	}{
		{"fills the whole day", 6, 16, 6, 22, true},
		{"starts at open", 6, 2, 6, 22, true},
		{"ends at close", 20, 2, 6, 22, true},
		{"starts before open", 5, 2, 6, 22, false},
		{"ends past close", 21, 2, 6, 22, false},
		{"entirely outside", 22, 2, 6, 22, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := booking.NewTimeRange(testDay, tt.startHour, tt.duration)
			if got := r.WithinOperatingHours(tt.open, tt.close); got != tt.want {
				t.Fatalf("WithinOperatingHours(%d, %d) = %v, want %v", tt.open, tt.close, got, tt.want)
			}
		})
	}
}

func TestTimeRangeIsValid(t *testing.T) {
	r := booking.NewTimeRange(testDay, 10, 2)
	if !r.IsValid() {
		t.Fatalf("expected 10:00+2h to be valid")
	}

	zero := booking.NewTimeRange(testDay, 10, 0)
	if zero.IsValid() {
		t.Fatalf("zero-duration range must be invalid")
	}

	negative := booking.TimeRange{
		Start: testDay.Add(12 * time.Hour),
		End:   testDay.Add(10 * time.Hour),
	}
	if negative.IsValid() {
		t.Fatalf("inverted range must be invalid")
	}

	partial := booking.TimeRange{
		Start: testDay.Add(10 * time.Hour),
		End:   testDay.Add(10*time.Hour + 30*time.Minute),
	}
	if partial.IsValid() {
		t.Fatalf("sub-hour range must be invalid")
	}
}

func TestTimeRangeDurationHours(t *testing.T) {
	r := booking.NewTimeRange(testDay, 9, 3)
	if got := r.DurationHours(); got != 3 {
		t.Fatalf("DurationHours() = %d, want 3", got)
	}
}
