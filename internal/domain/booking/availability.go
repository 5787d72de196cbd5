package booking

import "time"

// TimeSlot is one hour of a court's day with availability flags.
// The grid is an optimistic hint for callers composing multi-hour bookings;
// the reservation transaction re-verifies conflicts authoritatively.
type TimeSlot struct {
	Hour        int  `json:"hour"`
	Available   bool `json:"available"`
	IsPast      bool `json:"is_past"`
	HasConflict bool `json:"has_conflict"`
}

// BuildSlotGrid computes the hour-by-hour availability of a court on one
// calendar day. One slot per hour from openHour to closeHour-1. A slot
// conflicts when its [h, h+1) range overlaps any existing booking; it is
// past when the day is today and the hour has begun, or the day is over.
func BuildSlotGrid(openHour, closeHour int, day, now time.Time, existing []TimeRange) []TimeSlot {
	slots := make([]TimeSlot, 0, closeHour-openHour)

	sameDay := day.Year() == now.Year() && day.YearDay() == now.YearDay()
	dayOver := day.Before(now) && !sameDay

	for h := openHour; h < closeHour; h++ {
		candidate := NewTimeRange(day, h, 1)

		isPast := dayOver || (sameDay && h <= now.Hour())

		hasConflict := false
		for _, r := range existing {
			if candidate.Overlaps(r) {
				hasConflict = true
				break
			}
		}

		slots = append(slots, TimeSlot{
			Hour:        h,
			Available:   !isPast && !hasConflict,
			IsPast:      isPast,
			HasConflict: hasConflict,
		})
	}

	return slots
}
