package court

import (
	"time"

	"github.com/google/uuid"
)

// VenueStatus represents venue moderation state (matches venue_status enum).
// Courts of a venue accept bookings only while the venue is approved.
type VenueStatus string

const (
	VenuePending  VenueStatus = "pending"
	VenueApproved VenueStatus = "approved"
	VenueRejected VenueStatus = "rejected"
)

// Court represents a single bookable resource belonging to a venue.
// Operating hours are a half-open [open_hour, close_hour) pair on a 0-24
// scale; only whole-hour slots are bookable.
type Court struct {
	ID           int64     `db:"id" json:"id"`
	VenueID      int64     `db:"venue_id" json:"venue_id"`
	OwnerID      uuid.UUID `db:"owner_id" json:"owner_id"`
	Name         string    `db:"name" json:"name"`
	Sport        string    `db:"sport" json:"sport"`
	OpenHour     int       `db:"open_hour" json:"open_hour"`
	CloseHour    int       `db:"close_hour" json:"close_hour"`
	PricePerHour int64     `db:"price_per_hour_paisa" json:"price_per_hour_paisa"`
	Currency     string    `db:"currency" json:"currency"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Joined data (not a courts column, populated by queries)
	VenueStatus VenueStatus `db:"venue_status" json:"venue_status,omitempty"`
}

// IsBookable returns true if the court's venue accepts new bookings
func (c *Court) IsBookable() bool {
	return c.VenueStatus == VenueApproved
}

// PriceFor returns the snapshot amount in paisa for a booking of the given
// whole-hour duration. Computed once at reservation time; later price
// changes never touch existing payments.
func (c *Court) PriceFor(durationHours int) int64 {
	return c.PricePerHour * int64(durationHours)
}
