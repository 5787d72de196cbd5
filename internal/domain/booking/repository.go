package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sportbook/sportbook-api/internal/domain/court"
	"github.com/sportbook/sportbook-api/internal/domain/payment"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
	sqlStateExclusionViolation   = "23P01"

	idempotencyKeyConstraint = "bookings_idempotency_key_key"
	overlapConstraint        = "bookings_no_overlap"
)

// ReserveParams carries one reservation request into the transaction
type ReserveParams struct {
	UserID         uuid.UUID
	CourtID        int64
	Range          TimeRange
	Notes          string
	IdempotencyKey string
}

// ReserveResult is the committed booking/payment pair. Created is false when
// the idempotency guard returned a previously committed reservation.
type ReserveResult struct {
	Booking *Booking
	Payment *payment.Payment
	Created bool
}

// Repository defines booking data access. All status writes for the
// booking/payment pair happen inside single transactions here.
type Repository interface {
	Reserve(ctx context.Context, p ReserveParams) (*ReserveResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Booking, error)
	ListForCourtDay(ctx context.Context, courtID int64, day time.Time) ([]*Booking, error)
	Cancel(ctx context.Context, id, userID uuid.UUID, now time.Time) (*Booking, error)
	ApplyPaymentResult(ctx context.Context, orderID string, captured bool, providerPaymentID string) (*Booking, error)
	ConfirmRefund(ctx context.Context, providerPaymentID string) error
	CompleteExpired(ctx context.Context, now time.Time) ([]*Booking, error)
}

type repository struct {
	db     *sqlx.DB
	courts court.Repository
}

// NewRepository creates booking repository
func NewRepository(db *sqlx.DB, courts court.Repository) Repository {
	return &repository{db: db, courts: courts}
}

// Reserve runs the reservation transaction under serializable isolation:
// idempotency lookup, court existence, conflict check, venue approval,
// operating hours, then booking + payment insert. Two concurrent calls for
// overlapping ranges cannot both commit; the loser fails with a
// serialization error (retryable) or trips the overlap exclusion constraint.
func (r *repository) Reserve(ctx context.Context, p ReserveParams) (*ReserveResult, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Idempotency guard: a matching key returns the original reservation
	// without re-executing side effects.
	existing, err := r.getByIdempotencyKeyTx(ctx, tx, p.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.CourtID != p.CourtID ||
			!existing.StartTime.Equal(p.Range.Start) ||
			!existing.EndTime.Equal(p.Range.End) {
			return nil, ErrIdempotencyMismatch
		}
		pay, err := r.getPaymentByBookingTx(ctx, tx, existing.ID)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &ReserveResult{Booking: existing, Payment: pay, Created: false}, nil
	}

	c, err := r.courts.GetByIDTx(ctx, tx, p.CourtID)
	if err != nil {
		return nil, err
	}

	var conflicts int
	err = tx.GetContext(ctx, &conflicts, `
		SELECT COUNT(*)
		FROM bookings
		WHERE court_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND start_time < $3
		  AND end_time > $2
	`, p.CourtID, p.Range.Start, p.Range.End)
	if err != nil {
		return nil, err
	}
	if conflicts > 0 {
		return nil, ErrSlotConflict
	}

	if !c.IsBookable() {
		return nil, ErrVenueNotApproved
	}

	if !p.Range.WithinOperatingHours(c.OpenHour, c.CloseHour) {
		return nil, ErrOutsideOperatingHours
	}

	b := &Booking{
		ID:             uuid.New(),
		UserID:         p.UserID,
		CourtID:        p.CourtID,
		StartTime:      p.Range.Start,
		EndTime:        p.Range.End,
		Status:         StatusPending,
		Notes:          sql.NullString{String: p.Notes, Valid: p.Notes != ""},
		IdempotencyKey: p.IdempotencyKey,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO bookings (id, user_id, court_id, start_time, end_time, status, notes, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, b.ID, b.UserID, b.CourtID, b.StartTime, b.EndTime, b.Status, b.Notes, b.IdempotencyKey).Scan(&b.CreatedAt)
	if err != nil {
		return nil, mapReserveError(err)
	}

	// Amount snapshot: hourly price at reservation time, never recomputed.
	pay := &payment.Payment{
		ID:          uuid.New(),
		BookingID:   b.ID,
		UserID:      p.UserID,
		AmountPaisa: c.PriceFor(p.Range.DurationHours()),
		Currency:    c.Currency,
		Status:      payment.StatusPending,
		Provider:    payment.ProviderRazorpay,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO payments (id, booking_id, user_id, amount_paisa, currency, status, provider)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, pay.ID, pay.BookingID, pay.UserID, pay.AmountPaisa, pay.Currency, pay.Status, pay.Provider).Scan(&pay.CreatedAt, &pay.UpdatedAt)
	if err != nil {
		return nil, mapReserveError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapReserveError(err)
	}

	return &ReserveResult{Booking: b, Payment: pay, Created: true}, nil
}

func (r *repository) getByIdempotencyKeyTx(ctx context.Context, tx *sqlx.Tx, key string) (*Booking, error) {
	var b Booking
	err := tx.GetContext(ctx, &b, `SELECT * FROM bookings WHERE idempotency_key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) getPaymentByBookingTx(ctx context.Context, tx *sqlx.Tx, bookingID uuid.UUID) (*payment.Payment, error) {
	var p payment.Payment
	err := tx.GetContext(ctx, &p, `SELECT * FROM payments WHERE booking_id = $1`, bookingID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b, `SELECT * FROM bookings WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Booking, error) {
	query := `
		SELECT * FROM bookings
		WHERE user_id = $1
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3
	`
	var bookings []*Booking
	err := r.db.SelectContext(ctx, &bookings, query, userID, limit, offset)
	return bookings, err
}

// ListForCourtDay returns bookings that occupy slots of this court's day:
// pending and confirmed hold their slot, completed shows as historical.
func (r *repository) ListForCourtDay(ctx context.Context, courtID int64, day time.Time) ([]*Booking, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	query := `
		SELECT * FROM bookings
		WHERE court_id = $1
		  AND status IN ('pending', 'confirmed', 'completed')
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time
	`
	var bookings []*Booking
	err := r.db.SelectContext(ctx, &bookings, query, courtID, dayStart, dayEnd)
	return bookings, err
}

// Cancel applies a user-initiated cancellation. Booking and payment move in
// the same transaction: a succeeded payment is marked refunded (refund
// intent; provider confirmation arrives separately), a pending one failed.
func (r *repository) Cancel(ctx context.Context, id, userID uuid.UUID, now time.Time) (*Booking, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var b Booking
	err = tx.GetContext(ctx, &b, `SELECT * FROM bookings WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if b.UserID != userID {
		return nil, ErrNotBookingOwner
	}
	if b.IsTerminal() {
		return nil, ErrAlreadyTerminal
	}
	if !b.CanBeCancelledAt(now) {
		return nil, ErrCancellationClosed
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE bookings SET status = 'cancelled', cancelled_at = $2 WHERE id = $1
	`, b.ID, now)
	if err != nil {
		return nil, err
	}
	b.Status = StatusCancelled
	b.CancelledAt = sql.NullTime{Time: now, Valid: true}

	var p payment.Payment
	err = tx.GetContext(ctx, &p, `SELECT * FROM payments WHERE booking_id = $1 FOR UPDATE`, b.ID)
	if err != nil {
		return nil, err
	}

	switch p.Status {
	case payment.StatusSucceeded:
		_, err = tx.ExecContext(ctx, `
			UPDATE payments SET status = 'refunded', refunded_at = $2, updated_at = $2 WHERE id = $1
		`, p.ID, now)
	case payment.StatusPending:
		_, err = tx.ExecContext(ctx, `
			UPDATE payments SET status = 'failed', failed_at = $2, updated_at = $2 WHERE id = $1
		`, p.ID, now)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &b, nil
}

// ApplyPaymentResult applies a provider-verified payment outcome. The
// payment and booking rows move in one transaction so a crash can never
// leave a confirmed booking with a failed payment or vice versa. Replayed
// webhooks are no-ops.
func (r *repository) ApplyPaymentResult(ctx context.Context, orderID string, captured bool, providerPaymentID string) (*Booking, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var p payment.Payment
	err = tx.GetContext(ctx, &p, `SELECT * FROM payments WHERE order_id = $1 FOR UPDATE`, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, err
	}

	var b Booking
	err = tx.GetContext(ctx, &b, `SELECT * FROM bookings WHERE id = $1 FOR UPDATE`, p.BookingID)
	if err != nil {
		return nil, err
	}

	if captured {
		if p.Status == payment.StatusSucceeded {
			// Webhook replay
			return &b, tx.Commit()
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE payments SET status = 'succeeded', provider_payment_id = $2, paid_at = NOW(), updated_at = NOW()
			WHERE id = $1
		`, p.ID, providerPaymentID)
		if err != nil {
			return nil, err
		}
		if b.CanTransitionTo(StatusConfirmed) {
			_, err = tx.ExecContext(ctx, `UPDATE bookings SET status = 'confirmed' WHERE id = $1`, b.ID)
			if err != nil {
				return nil, err
			}
			b.Status = StatusConfirmed
		}
	} else {
		if p.Status != payment.StatusPending {
			return &b, tx.Commit()
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE payments SET status = 'failed', provider_payment_id = $2, failed_at = NOW(), updated_at = NOW()
			WHERE id = $1
		`, p.ID, providerPaymentID)
		if err != nil {
			return nil, err
		}
		if b.CanTransitionTo(StatusCancelled) {
			_, err = tx.ExecContext(ctx, `
				UPDATE bookings SET status = 'cancelled', cancelled_at = NOW() WHERE id = $1
			`, b.ID)
			if err != nil {
				return nil, err
			}
			b.Status = StatusCancelled
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &b, nil
}

// ConfirmRefund records provider-side refund confirmation. The local
// refunded mark from Cancel is intent only; this is the authoritative one.
func (r *repository) ConfirmRefund(ctx context.Context, providerPaymentID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = 'refunded', refunded_at = NOW(), updated_at = NOW()
		WHERE provider_payment_id = $1 AND status IN ('succeeded', 'refunded')
	`, providerPaymentID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return payment.ErrPaymentNotFound
	}
	return nil
}

// CompleteExpired transitions every confirmed booking whose end time has
// passed. Each row's update is independent and the predicate is purely
// time-based, so the sweep is idempotent and safe to re-run after a crash.
func (r *repository) CompleteExpired(ctx context.Context, now time.Time) ([]*Booking, error) {
	query := `
		UPDATE bookings SET status = 'completed'
		WHERE status = 'confirmed' AND end_time <= $1
		RETURNING *
	`
	var completed []*Booking
	err := r.db.SelectContext(ctx, &completed, query, now)
	return completed, err
}

// mapReserveError translates constraint violations raised by the insert
// into the booking error taxonomy
func mapReserveError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case sqlStateExclusionViolation:
		if pqErr.Constraint == overlapConstraint || pqErr.Constraint == "" {
			return ErrSlotConflict
		}
	}
	return err
}

// IsRetryable reports whether the reservation transaction failed for a
// transient reason worth one automatic retry: a serialization failure,
// a deadlock, or a concurrent insert of the same idempotency key (the retry
// then resolves through the idempotency guard).
func IsRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch string(pqErr.Code) {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return true
	case sqlStateUniqueViolation:
		return pqErr.Constraint == idempotencyKeyConstraint
	}
	return false
}
