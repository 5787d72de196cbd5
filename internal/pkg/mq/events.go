package mq

import "time"

// Routing keys for booking lifecycle events. Downstream consumers
// (notification service, analytics) bind on "booking.*".
const (
	KeyBookingCreated   = "booking.created"
	KeyBookingConfirmed = "booking.confirmed"
	KeyBookingCancelled = "booking.cancelled"
	KeyBookingCompleted = "booking.completed"
)

// BookingEvent is the payload published for every lifecycle transition
type BookingEvent struct {
	BookingID   string    `json:"booking_id"`
	UserID      string    `json:"user_id"`
	CourtID     int64     `json:"court_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	AmountPaisa int64     `json:"amount_paisa,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
