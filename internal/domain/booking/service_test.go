package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sportbook/sportbook-api/internal/domain/booking"
	"github.com/sportbook/sportbook-api/internal/domain/court"
	"github.com/sportbook/sportbook-api/internal/domain/payment"
)

type stubRepo struct {
	booking.Repository

	reserveCalls int
	reserveFn    func(ctx context.Context, p booking.ReserveParams) (*booking.ReserveResult, error)
	cancelFn     func(ctx context.Context, id, userID uuid.UUID, now time.Time) (*booking.Booking, error)
	getFn        func(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	completeFn   func(ctx context.Context, now time.Time) ([]*booking.Booking, error)
	listDayFn    func(ctx context.Context, courtID int64, day time.Time) ([]*booking.Booking, error)
}

func (s *stubRepo) Reserve(ctx context.Context, p booking.ReserveParams) (*booking.ReserveResult, error) {
	s.reserveCalls++
	return s.reserveFn(ctx, p)
}

func (s *stubRepo) Cancel(ctx context.Context, id, userID uuid.UUID, now time.Time) (*booking.Booking, error) {
	return s.cancelFn(ctx, id, userID, now)
}

func (s *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return s.getFn(ctx, id)
}

func (s *stubRepo) CompleteExpired(ctx context.Context, now time.Time) ([]*booking.Booking, error) {
	return s.completeFn(ctx, now)
}

func (s *stubRepo) ListForCourtDay(ctx context.Context, courtID int64, day time.Time) ([]*booking.Booking, error) {
	return s.listDayFn(ctx, courtID, day)
}

type stubCourtRepo struct {
	court.Repository

	court *court.Court
}

func (s *stubCourtRepo) GetByID(ctx context.Context, id int64) (*court.Court, error) {
	if s.court == nil || s.court.ID != id {
		return nil, court.ErrCourtNotFound
	}
	return s.court, nil
}

func (s *stubCourtRepo) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id int64) (*court.Court, error) {
	return s.GetByID(ctx, id)
}

type stubPaymentRepo struct {
	payment.Repository

	byBooking map[uuid.UUID]*payment.Payment
}

func (s *stubPaymentRepo) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*payment.Payment, error) {
	if p, ok := s.byBooking[bookingID]; ok {
		return p, nil
	}
	return nil, payment.ErrPaymentNotFound
}

func (s *stubPaymentRepo) SetProviderOrder(ctx context.Context, id uuid.UUID, orderID, receiptID string) error {
	return nil
}

func newTestService(repo *stubRepo, courts *stubCourtRepo) *booking.Service {
	return booking.NewService(repo, courts, &stubPaymentRepo{}, nil, nil, nil, 10*time.Second)
}

func validRequest() *booking.CreateBookingRequest {
	return &booking.CreateBookingRequest{
		CourtID:   1,
		Date:      "2025-06-15",
		StartTime: 10,
		Duration:  2,
	}
}

func reservedResult(p booking.ReserveParams, created bool) *booking.ReserveResult {
	id := uuid.New()
	return &booking.ReserveResult{
		Booking: &booking.Booking{
			ID:        id,
			UserID:    p.UserID,
			CourtID:   p.CourtID,
			StartTime: p.Range.Start,
			EndTime:   p.Range.End,
			Status:    booking.StatusPending,
		},
		Payment: &payment.Payment{
			ID:          uuid.New(),
			BookingID:   id,
			UserID:      p.UserID,
			AmountPaisa: 100000,
			Currency:    "INR",
			Status:      payment.StatusPending,
		},
		Created: created,
	}
}

func TestReserveSuccess(t *testing.T) {
	userID := uuid.New()
	repo := &stubRepo{
		reserveFn: func(ctx context.Context, p booking.ReserveParams) (*booking.ReserveResult, error) {
			if p.UserID != userID {
				t.Fatalf("wrong user id passed: %s", p.UserID)
			}
			if p.IdempotencyKey != "client-key-1" {
				t.Fatalf("idempotency key not forwarded: %q", p.IdempotencyKey)
			}
			want := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
			if !p.Range.Start.Equal(want) {
				t.Fatalf("range start = %s, want %s", p.Range.Start, want)
			}
			if p.Range.DurationHours() != 2 {
				t.Fatalf("duration = %d, want 2", p.Range.DurationHours())
			}
			return reservedResult(p, true), nil
		},
	}
	svc := newTestService(repo, &stubCourtRepo{})

	result, err := svc.Reserve(context.Background(), userID, validRequest(), "client-key-1")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if !result.Created {
		t.Fatalf("expected a newly created reservation")
	}
	if repo.reserveCalls != 1 {
		t.Fatalf("expected 1 reserve call, got %d", repo.reserveCalls)
	}
}

func TestReserveSynthesizesIdempotencyKey(t *testing.T) {
	var seenKey string
	repo := &stubRepo{
		reserveFn: func(ctx context.Context, p booking.ReserveParams) (*booking.ReserveResult, error) {
			seenKey = p.IdempotencyKey
			return reservedResult(p, true), nil
		},
	}
	svc := newTestService(repo, &stubCourtRepo{})

	if _, err := svc.Reserve(context.Background(), uuid.New(), validRequest(), ""); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if seenKey == "" {
		t.Fatalf("empty idempotency key must be replaced with a synthesized one")
	}
}

func TestReserveRetriesSerializationFailureOnce(t *testing.T) {
	serFail := &pq.Error{Code: "40001"}
	repo := &stubRepo{}
	repo.reserveFn = func(ctx context.Context, p booking.ReserveParams) (*booking.ReserveResult, error) {
		if repo.reserveCalls == 1 {
			return nil, serFail
		}
		return reservedResult(p, true), nil
	}
	svc := newTestService(repo, &stubCourtRepo{})

	result, err := svc.Reserve(context.Background(), uuid.New(), validRequest(), "key")
	if err != nil {
		t.Fatalf("retry should have recovered the reservation: %v", err)
	}
	if repo.reserveCalls != 2 {
		t.Fatalf("expected 2 reserve calls, got %d", repo.reserveCalls)
	}
	if !result.Created {
		t.Fatalf("expected created result on the retry")
	}
}

func TestReservePersistentSerializationFailureTimesOut(t *testing.T) {
	serFail := &pq.Error{Code: "40001"}
	repo := &stubRepo{
		reserveFn: func(ctx context.Context, p booking.ReserveParams) (*booking.ReserveResult, error) {
			return nil, serFail
		},
	}
	svc := newTestService(repo, &stubCourtRepo{})

	_, err := svc.Reserve(context.Background(), uuid.New(), validRequest(), "key")
	if !errors.Is(err, booking.ErrReserveTimeout) {
		t.Fatalf("expected ErrReserveTimeout, got %v", err)
	}
	if repo.reserveCalls != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", repo.reserveCalls)
	}
}

func TestReserveConflictIsNotRetried(t *testing.T) {
	repo := &stubRepo{
		reserveFn: func(ctx context.Context, p booking.ReserveParams) (*booking.ReserveResult, error) {
			return nil, booking.ErrSlotConflict
		},
	}
	svc := newTestService(repo, &stubCourtRepo{})

	_, err := svc.Reserve(context.Background(), uuid.New(), validRequest(), "key")
	if !errors.Is(err, booking.ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
	if repo.reserveCalls != 1 {
		t.Fatalf("business rejection must not retry, got %d calls", repo.reserveCalls)
	}
}

func TestReserveIdempotentReplay(t *testing.T) {
	repo := &stubRepo{
		reserveFn: func(ctx context.Context, p booking.ReserveParams) (*booking.ReserveResult, error) {
			return reservedResult(p, false), nil
		},
	}
	svc := newTestService(repo, &stubCourtRepo{})

	result, err := svc.Reserve(context.Background(), uuid.New(), validRequest(), "repeat-key")
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if result.Created {
		t.Fatalf("replay must report Created=false")
	}
}

func TestReserveRejectsBadDate(t *testing.T) {
	svc := newTestService(&stubRepo{}, &stubCourtRepo{})

	req := validRequest()
	req.Date = "15-06-2025"

	_, err := svc.Reserve(context.Background(), uuid.New(), req, "key")
	if !errors.Is(err, booking.ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}

func TestReserveRejectsExcessiveDuration(t *testing.T) {
	svc := newTestService(&stubRepo{}, &stubCourtRepo{})

	req := validRequest()
	req.Duration = booking.MaxDurationHours + 1

	_, err := svc.Reserve(context.Background(), uuid.New(), req, "key")
	if !errors.Is(err, booking.ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}

func TestAvailabilityBuildsGridWithPrices(t *testing.T) {
	courtID := int64(7)
	day := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	repo := &stubRepo{
		listDayFn: func(ctx context.Context, id int64, d time.Time) ([]*booking.Booking, error) {
			return []*booking.Booking{
				{
					CourtID:   courtID,
					StartTime: day.Add(10 * time.Hour),
					EndTime:   day.Add(12 * time.Hour),
					Status:    booking.StatusConfirmed,
				},
			}, nil
		},
	}
	courts := &stubCourtRepo{court: &court.Court{
		ID:           courtID,
		OpenHour:     8,
		CloseHour:    20,
		PricePerHour: 50000,
		Currency:     "INR",
		VenueStatus:  court.VenueApproved,
	}}
	svc := newTestService(repo, courts)

	resp, err := svc.Availability(context.Background(), courtID, "2025-06-15")
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}

	if len(resp.TimeSlots) != 12 {
		t.Fatalf("expected 12 slots for 8..20, got %d", len(resp.TimeSlots))
	}
	for _, slot := range resp.TimeSlots {
		if slot.PricePaisa != 50000 {
			t.Fatalf("hour %d: price = %d, want 50000", slot.Hour, slot.PricePaisa)
		}
		wantConflict := slot.Hour == 10 || slot.Hour == 11
		if slot.HasConflict != wantConflict {
			t.Fatalf("hour %d: HasConflict = %v, want %v", slot.Hour, slot.HasConflict, wantConflict)
		}
	}
	if len(resp.Bookings) != 1 {
		t.Fatalf("expected 1 booked range, got %d", len(resp.Bookings))
	}
}

func TestAvailabilityUnknownCourt(t *testing.T) {
	svc := newTestService(&stubRepo{}, &stubCourtRepo{})

	_, err := svc.Availability(context.Background(), 99, "2025-06-15")
	if !errors.Is(err, court.ErrCourtNotFound) {
		t.Fatalf("expected ErrCourtNotFound, got %v", err)
	}
}

func TestGetBookingOwnershipEnforced(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	bookingID := uuid.New()

	repo := &stubRepo{
		getFn: func(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
			return &booking.Booking{ID: bookingID, UserID: owner, Status: booking.StatusConfirmed}, nil
		},
	}
	payments := &stubPaymentRepo{byBooking: map[uuid.UUID]*payment.Payment{
		bookingID: {ID: uuid.New(), BookingID: bookingID, UserID: owner},
	}}
	svc := booking.NewService(repo, &stubCourtRepo{}, payments, nil, nil, nil, 10*time.Second)

	if _, _, err := svc.GetBooking(context.Background(), owner, bookingID); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}

	_, _, err := svc.GetBooking(context.Background(), stranger, bookingID)
	if !errors.Is(err, booking.ErrNotBookingOwner) {
		t.Fatalf("expected ErrNotBookingOwner, got %v", err)
	}
}

func TestCompleteExpiredCountsTransitions(t *testing.T) {
	repo := &stubRepo{
		completeFn: func(ctx context.Context, now time.Time) ([]*booking.Booking, error) {
			return []*booking.Booking{
				{ID: uuid.New(), Status: booking.StatusCompleted},
				{ID: uuid.New(), Status: booking.StatusCompleted},
			}, nil
		},
	}
	svc := newTestService(repo, &stubCourtRepo{})

	count, err := svc.CompleteExpired(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 completions, got %d", count)
	}
}
