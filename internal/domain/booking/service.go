package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sportbook/sportbook-api/internal/domain/court"
	"github.com/sportbook/sportbook-api/internal/domain/payment"
	"github.com/sportbook/sportbook-api/internal/pkg/mq"
	"github.com/sportbook/sportbook-api/internal/pkg/razorpay"
)

const (
	// availabilityCacheTTL keeps the slot grid hint fresh without hammering
	// the bookings table. The grid is advisory; the reservation transaction
	// never consults it.
	availabilityCacheTTL = 30 * time.Second

	dateLayout = "2006-01-02"
)

// Service handles booking business logic
type Service struct {
	repo     Repository
	courts   court.Repository
	payments payment.Repository
	provider *razorpay.Client
	cache    *redis.Client
	events   *mq.Publisher

	reserveTimeout time.Duration
	now            func() time.Time
}

// NewService creates booking service. cache, provider and events may be nil.
func NewService(repo Repository, courts court.Repository, payments payment.Repository,
	provider *razorpay.Client, cache *redis.Client, events *mq.Publisher,
	reserveTimeout time.Duration) *Service {
	if reserveTimeout <= 0 {
		reserveTimeout = 10 * time.Second
	}
	return &Service{
		repo:           repo,
		courts:         courts,
		payments:       payments,
		provider:       provider,
		cache:          cache,
		events:         events,
		reserveTimeout: reserveTimeout,
		now:            time.Now,
	}
}

// Reserve executes the authoritative reservation path. The whole transaction
// runs under one deadline; a serialization loss gets one automatic retry and
// then surfaces as a retryable timeout. RequesterID is always explicit here,
// never pulled from ambient context.
func (s *Service) Reserve(ctx context.Context, requesterID uuid.UUID, req *CreateBookingRequest, idempotencyKey string) (*ReserveResult, error) {
	day, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, ErrInvalidTimeRange
	}

	rng := NewTimeRange(day, req.StartTime, req.Duration)
	if !rng.IsValid() || req.Duration < 1 || req.Duration > MaxDurationHours {
		return nil, ErrInvalidTimeRange
	}

	key := idempotencyKey
	if key == "" {
		// Fallback key satisfies the uniqueness constraint only; without a
		// client-supplied key a retry is a new reservation attempt.
		key = fmt.Sprintf("auto:%s:%d:%s", requesterID, s.now().UnixNano(), uuid.New())
	}

	params := ReserveParams{
		UserID:         requesterID,
		CourtID:        req.CourtID,
		Range:          rng,
		Notes:          req.Notes,
		IdempotencyKey: key,
	}

	ctx, cancel := context.WithTimeout(ctx, s.reserveTimeout)
	defer cancel()

	var result *ReserveResult
	for attempt := 0; attempt < 2; attempt++ {
		result, err = s.repo.Reserve(ctx, params)
		if err == nil {
			break
		}
		if IsRetryable(err) && attempt == 0 {
			log.Warn().
				Int64("court_id", req.CourtID).
				Str("user_id", requesterID.String()).
				Err(err).
				Msg("reservation serialization failure, retrying once")
			continue
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) || IsRetryable(err) {
			return nil, ErrReserveTimeout
		}
		return nil, err
	}
	if err != nil {
		return nil, ErrReserveTimeout
	}

	if result.Created {
		s.invalidateAvailability(context.WithoutCancel(ctx), result.Booking.CourtID, result.Booking.StartTime)
		s.publishEvent(context.WithoutCancel(ctx), mq.KeyBookingCreated, result.Booking, result.Payment)
		s.attachProviderOrder(context.WithoutCancel(ctx), result)

		log.Info().
			Str("booking_id", result.Booking.ID.String()).
			Int64("court_id", result.Booking.CourtID).
			Int64("amount_paisa", result.Payment.AmountPaisa).
			Msg("booking reserved")
	}

	return result, nil
}

// attachProviderOrder creates the Razorpay order after commit (the provider
// call cannot live inside the database transaction) and stores its
// reference. Failure leaves the payment pending without an order; checkout
// can re-initiate it.
func (s *Service) attachProviderOrder(ctx context.Context, result *ReserveResult) {
	if s.provider == nil {
		return
	}

	order, err := s.provider.CreateOrder(ctx, razorpay.CreateOrderRequest{
		AmountPaisa: result.Payment.AmountPaisa,
		Currency:    result.Payment.Currency,
		Receipt:     result.Booking.ID.String(),
		Notes: map[string]string{
			"booking_id": result.Booking.ID.String(),
			"court_id":   fmt.Sprintf("%d", result.Booking.CourtID),
		},
	})
	if err != nil {
		log.Error().Err(err).
			Str("booking_id", result.Booking.ID.String()).
			Msg("failed to create provider order")
		return
	}

	if err := s.payments.SetProviderOrder(ctx, result.Payment.ID, order.ID, order.Receipt); err != nil {
		log.Error().Err(err).
			Str("payment_id", result.Payment.ID.String()).
			Msg("failed to store provider order reference")
		return
	}
	result.Payment.OrderID.String = order.ID
	result.Payment.OrderID.Valid = true
}

// Availability computes the hour-by-hour slot grid for a court on one day.
// Served from a short-TTL cache when possible; always an optimistic hint.
func (s *Service) Availability(ctx context.Context, courtID int64, date string) (*AvailabilityResponse, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, ErrInvalidTimeRange
	}

	c, err := s.courts.GetByID(ctx, courtID)
	if err != nil {
		return nil, err
	}

	cacheKey := availabilityCacheKey(courtID, date)
	if cached := s.cacheGet(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	bookings, err := s.repo.ListForCourtDay(ctx, courtID, day)
	if err != nil {
		return nil, err
	}

	ranges := make([]TimeRange, 0, len(bookings))
	booked := make([]BookedRange, 0, len(bookings))
	for _, b := range bookings {
		ranges = append(ranges, b.Range())
		booked = append(booked, BookedRange{
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			Status:    b.Status,
		})
	}

	grid := BuildSlotGrid(c.OpenHour, c.CloseHour, day, s.now(), ranges)

	slots := make([]TimeSlotEntry, 0, len(grid))
	for _, slot := range grid {
		slots = append(slots, TimeSlotEntry{
			Hour:        slot.Hour,
			Available:   slot.Available,
			IsPast:      slot.IsPast,
			HasConflict: slot.HasConflict,
			PricePaisa:  c.PricePerHour,
		})
	}

	resp := &AvailabilityResponse{TimeSlots: slots, Bookings: booked}
	s.cacheSet(ctx, cacheKey, resp)
	return resp, nil
}

// Cancel applies a user-initiated cancellation inside the 2-hour window
func (s *Service) Cancel(ctx context.Context, requesterID, bookingID uuid.UUID) (*Booking, error) {
	b, err := s.repo.Cancel(ctx, bookingID, requesterID, s.now())
	if err != nil {
		return nil, err
	}

	s.invalidateAvailability(ctx, b.CourtID, b.StartTime)
	s.publishEvent(ctx, mq.KeyBookingCancelled, b, nil)

	log.Info().
		Str("booking_id", b.ID.String()).
		Str("user_id", requesterID.String()).
		Msg("booking cancelled by user")
	return b, nil
}

// PaymentCaptured confirms the booking for a provider-verified capture
func (s *Service) PaymentCaptured(ctx context.Context, orderID, providerPaymentID string) error {
	b, err := s.repo.ApplyPaymentResult(ctx, orderID, true, providerPaymentID)
	if err != nil {
		return err
	}

	s.invalidateAvailability(ctx, b.CourtID, b.StartTime)
	if b.Status == StatusConfirmed {
		s.publishEvent(ctx, mq.KeyBookingConfirmed, b, nil)
	}

	log.Info().
		Str("booking_id", b.ID.String()).
		Str("order_id", orderID).
		Msg("payment captured")
	return nil
}

// PaymentFailed cancels the booking for a provider-verified failure
func (s *Service) PaymentFailed(ctx context.Context, orderID, providerPaymentID string) error {
	b, err := s.repo.ApplyPaymentResult(ctx, orderID, false, providerPaymentID)
	if err != nil {
		return err
	}

	s.invalidateAvailability(ctx, b.CourtID, b.StartTime)
	if b.Status == StatusCancelled {
		s.publishEvent(ctx, mq.KeyBookingCancelled, b, nil)
	}

	log.Info().
		Str("booking_id", b.ID.String()).
		Str("order_id", orderID).
		Msg("payment failed, booking released")
	return nil
}

// RefundProcessed records provider-side refund confirmation
func (s *Service) RefundProcessed(ctx context.Context, providerPaymentID string) error {
	return s.repo.ConfirmRefund(ctx, providerPaymentID)
}

// CompleteExpired transitions every confirmed booking whose end has passed.
// Idempotent: a second run with no newly expired bookings touches nothing.
func (s *Service) CompleteExpired(ctx context.Context) (int, error) {
	completed, err := s.repo.CompleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}

	for _, b := range completed {
		s.invalidateAvailability(ctx, b.CourtID, b.StartTime)
		s.publishEvent(ctx, mq.KeyBookingCompleted, b, nil)
	}

	if len(completed) > 0 {
		log.Info().Int("count", len(completed)).Msg("completion sweep transitioned bookings")
	}
	return len(completed), nil
}

// GetBooking returns a booking with its payment, owner-only
func (s *Service) GetBooking(ctx context.Context, requesterID, bookingID uuid.UUID) (*Booking, *payment.Payment, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if !b.CanBeViewedBy(requesterID) {
		return nil, nil, ErrNotBookingOwner
	}
	p, err := s.payments.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	return b, p, nil
}

// ListBookings returns the requester's bookings, newest first
func (s *Service) ListBookings(ctx context.Context, requesterID uuid.UUID, limit, offset int) ([]*Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, requesterID, limit, offset)
}

func availabilityCacheKey(courtID int64, date string) string {
	return fmt.Sprintf("availability:%d:%s", courtID, date)
}

func (s *Service) cacheGet(ctx context.Context, key string) *AvailabilityResponse {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var resp AvailabilityResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil
	}
	return &resp
}

func (s *Service) cacheSet(ctx context.Context, key string, resp *AvailabilityResponse) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, availabilityCacheTTL).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("availability cache write failed")
	}
}

func (s *Service) invalidateAvailability(ctx context.Context, courtID int64, start time.Time) {
	if s.cache == nil {
		return
	}
	key := availabilityCacheKey(courtID, start.Format(dateLayout))
	if err := s.cache.Del(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("availability cache invalidation failed")
	}
}

func (s *Service) publishEvent(ctx context.Context, key string, b *Booking, p *payment.Payment) {
	event := mq.BookingEvent{
		BookingID:  b.ID.String(),
		UserID:     b.UserID.String(),
		CourtID:    b.CourtID,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Status:     string(b.Status),
		OccurredAt: s.now(),
	}
	if p != nil {
		event.AmountPaisa = p.AmountPaisa
		event.Currency = p.Currency
	}
	if err := s.events.PublishJSON(ctx, key, event); err != nil {
		log.Warn().Err(err).Str("routing_key", key).Msg("booking event publish failed")
	}
}
