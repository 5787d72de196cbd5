package payment

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status represents payment status
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Provider represents payment provider
type Provider string

const (
	ProviderRazorpay Provider = "razorpay"
	ProviderManual   Provider = "manual"
)

// Payment is the one-to-one monetary companion of a booking. The amount is
// snapshotted in paisa at reservation time from the court's hourly price and
// never recomputed, even if the court is repriced later.
type Payment struct {
	ID                uuid.UUID      `db:"id" json:"id"`
	BookingID         uuid.UUID      `db:"booking_id" json:"booking_id"`
	UserID            uuid.UUID      `db:"user_id" json:"user_id"`
	AmountPaisa       int64          `db:"amount_paisa" json:"amount_paisa"`
	Currency          string         `db:"currency" json:"currency"`
	Status            Status         `db:"status" json:"status"`
	Provider          Provider       `db:"provider" json:"provider"`
	OrderID           sql.NullString `db:"order_id" json:"order_id,omitempty"`
	ProviderPaymentID sql.NullString `db:"provider_payment_id" json:"provider_payment_id,omitempty"`
	ReceiptID         sql.NullString `db:"receipt_id" json:"receipt_id,omitempty"`
	PaidAt            sql.NullTime   `db:"paid_at" json:"paid_at,omitempty"`
	FailedAt          sql.NullTime   `db:"failed_at" json:"failed_at,omitempty"`
	RefundedAt        sql.NullTime   `db:"refunded_at" json:"refunded_at,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// IsPaid checks if payment has been captured
func (p *Payment) IsPaid() bool {
	return p.Status == StatusSucceeded
}

// IsTerminal returns true when no provider callback can move the status
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusFailed || p.Status == StatusRefunded
}
