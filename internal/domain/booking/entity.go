package booking

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status represents booking status (matches booking_status enum)
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// CancellationWindow is how far before start a user-initiated cancellation
// must arrive
const CancellationWindow = 2 * time.Hour

// MaxDurationHours is the policy cap on a single booking, enforced at the
// request-validation boundary
const MaxDurationHours = 8

// Booking represents a reservation of one court for one time range.
// Rows are never deleted; lifecycle is expressed through status transitions.
type Booking struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	UserID         uuid.UUID      `db:"user_id" json:"user_id"`
	CourtID        int64          `db:"court_id" json:"court_id"`
	StartTime      time.Time      `db:"start_time" json:"start_time"`
	EndTime        time.Time      `db:"end_time" json:"end_time"`
	Status         Status         `db:"status" json:"status"`
	Notes          sql.NullString `db:"notes" json:"notes,omitempty"`
	IdempotencyKey string         `db:"idempotency_key" json:"-"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	CancelledAt    sql.NullTime   `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// Range returns the booking's half-open interval
func (b *Booking) Range() TimeRange {
	return TimeRange{Start: b.StartTime, End: b.EndTime}
}

// IsTerminal returns true once no further transition is possible
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCancelled || b.Status == StatusCompleted
}

// IsActive returns true while the booking holds its time slot
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// transitions is the legality table of the booking state machine.
// Nothing ever returns to pending.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

// CanTransitionTo reports whether moving to next is a legal transition
func (b *Booking) CanTransitionTo(next Status) bool {
	for _, s := range transitions[b.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// CanBeCancelledAt reports whether a user-initiated cancellation at the
// given time is inside the cancellation window
func (b *Booking) CanBeCancelledAt(now time.Time) bool {
	return now.Add(CancellationWindow).Before(b.StartTime)
}

// CanBeViewedBy checks read access to this booking
func (b *Booking) CanBeViewedBy(userID uuid.UUID) bool {
	return b.UserID == userID
}
