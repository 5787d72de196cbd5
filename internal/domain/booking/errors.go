package booking

import "errors"

var (
	ErrBookingNotFound       = errors.New("booking not found")
	ErrNotBookingOwner       = errors.New("you can only manage your own bookings")
	ErrSlotConflict          = errors.New("time slot already booked")
	ErrVenueNotApproved      = errors.New("venue is not approved for bookings")
	ErrOutsideOperatingHours = errors.New("time slot is outside court operating hours")
	ErrInvalidTimeRange      = errors.New("invalid booking time range")
	ErrIdempotencyMismatch   = errors.New("idempotency key was already used with a different request")
	ErrCancellationClosed    = errors.New("bookings can only be cancelled more than 2 hours before start")
	ErrAlreadyTerminal       = errors.New("booking is already cancelled or completed")
	ErrReserveTimeout        = errors.New("reservation timed out, retry with the same idempotency key")
)
