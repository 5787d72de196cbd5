package booking

import (
	"time"

	"github.com/sportbook/sportbook-api/internal/domain/payment"
)

// CreateBookingRequest for POST /bookings. Duration is capped at 8 hours by
// policy; the Idempotency-Key arrives as a header, not in the body.
type CreateBookingRequest struct {
	CourtID   int64  `json:"courtId" validate:"required,min=1"`
	Date      string `json:"date" validate:"required,bookingdate"`
	StartTime int    `json:"startTime" validate:"gte=0,lte=23"`
	Duration  int    `json:"duration" validate:"required,gte=1,lte=8"`
	Notes     string `json:"notes" validate:"omitempty,max=500"`
}

// ReservationResponse is the 201 body: the booking and its payment snapshot
type ReservationResponse struct {
	Booking *Booking         `json:"booking"`
	Payment *payment.Payment `json:"payment"`
}

// TimeSlotEntry is one hour of the availability grid with the court's
// current hourly price attached
type TimeSlotEntry struct {
	Hour        int   `json:"hour"`
	Available   bool  `json:"available"`
	IsPast      bool  `json:"isPast"`
	HasConflict bool  `json:"hasConflict"`
	PricePaisa  int64 `json:"price"`
}

// BookedRange is an occupied interval in the availability response
type BookedRange struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    Status    `json:"status"`
}

// AvailabilityResponse for GET /courts/{id}/availability
type AvailabilityResponse struct {
	TimeSlots []TimeSlotEntry `json:"timeSlots"`
	Bookings  []BookedRange   `json:"bookings"`
}

// SweepResponse reports how many bookings the completion sweep transitioned
type SweepResponse struct {
	Completed int `json:"completed"`
}
