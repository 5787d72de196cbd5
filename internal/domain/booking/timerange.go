package booking

import "time"

// TimeRange is a half-open booking interval [Start, End). Bookings start and
// end on whole-hour boundaries, so an interval ending at 10:00 never
// conflicts with one starting at 10:00.
type TimeRange struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// NewTimeRange builds a range on the given calendar day from a start hour
// and a whole-hour duration
func NewTimeRange(day time.Time, startHour, durationHours int) TimeRange {
	start := time.Date(day.Year(), day.Month(), day.Day(), startHour, 0, 0, 0, day.Location())
	return TimeRange{
		Start: start,
		End:   start.Add(time.Duration(durationHours) * time.Hour),
	}
}

// Overlaps reports whether two half-open intervals intersect
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// WithinOperatingHours reports whether the range lies inside a court's
// [openHour, closeHour) window. Only whole-hour boundaries are valid.
func (r TimeRange) WithinOperatingHours(openHour, closeHour int) bool {
	startHour := r.Start.Hour()
	endHour := startHour + r.DurationHours()
	return startHour >= openHour && endHour <= closeHour
}

// DurationHours returns the interval length in whole hours
func (r TimeRange) DurationHours() int {
	return int(r.End.Sub(r.Start) / time.Hour)
}

// IsValid reports whether the range is well formed: positive length and
// whole-hour aligned
func (r TimeRange) IsValid() bool {
	if !r.Start.Before(r.End) {
		return false
	}
	return r.End.Sub(r.Start)%time.Hour == 0
}
