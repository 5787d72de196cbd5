package payment

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sportbook/sportbook-api/internal/middleware"
	"github.com/sportbook/sportbook-api/internal/pkg/errorhandler"
	"github.com/sportbook/sportbook-api/internal/pkg/razorpay"
	"github.com/sportbook/sportbook-api/internal/pkg/response"
	"github.com/sportbook/sportbook-api/internal/pkg/validator"
)

// maxWebhookBody caps webhook payload size; Razorpay events are small
const maxWebhookBody = 1 << 20

// BookingUpdater is the booking-side reaction to verified provider events
type BookingUpdater interface {
	PaymentCaptured(ctx context.Context, orderID, providerPaymentID string) error
	PaymentFailed(ctx context.Context, orderID, providerPaymentID string) error
	RefundProcessed(ctx context.Context, providerPaymentID string) error
}

// Handler handles payment HTTP requests
type Handler struct {
	repo          Repository
	bookings      BookingUpdater
	keySecret     string
	webhookSecret string
}

func NewHandler(repo Repository, bookings BookingUpdater, keySecret, webhookSecret string) *Handler {
	return &Handler{repo: repo, bookings: bookings, keySecret: keySecret, webhookSecret: webhookSecret}
}

// Webhook handles POST /webhooks/razorpay. The signature covers the raw
// body, so the body must be read before any JSON decoding.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "Unable to read request body")
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if !razorpay.VerifyWebhookSignature(body, signature, h.webhookSecret) {
		log.Warn().Str("remote_addr", r.RemoteAddr).Msg("webhook signature verification failed")
		response.Unauthorized(w, "Invalid webhook signature")
		return
	}

	event, err := razorpay.ParseWebhook(body)
	if err != nil {
		response.BadRequest(w, "Malformed webhook payload")
		return
	}

	switch event.Event {
	case razorpay.EventPaymentCaptured:
		entity := event.Payload.Payment.Entity
		err = h.bookings.PaymentCaptured(r.Context(), entity.OrderID, entity.ID)
	case razorpay.EventPaymentFailed:
		entity := event.Payload.Payment.Entity
		err = h.bookings.PaymentFailed(r.Context(), entity.OrderID, entity.ID)
	case razorpay.EventRefundProcessed:
		err = h.bookings.RefundProcessed(r.Context(), event.Payload.Refund.Entity.PaymentID)
	default:
		// Unsubscribed event types get acknowledged so the provider stops
		// redelivering them.
		log.Debug().Str("event", event.Event).Msg("ignoring unhandled webhook event")
		response.OK(w, map[string]string{"status": "ignored"})
		return
	}

	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			// Order unknown to us; acknowledge to avoid endless redelivery
			log.Warn().Str("event", event.Event).Msg("webhook references unknown payment")
			response.OK(w, map[string]string{"status": "ignored"})
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError,
			"WEBHOOK_ERROR", "failed to process webhook", err)
		return
	}

	response.OK(w, map[string]string{"status": "ok"})
}

// Verify handles POST /payments/verify: the server-side check of a Razorpay
// checkout result. The frontend gets the signature from the checkout widget;
// a valid one proves the capture and confirms the booking without waiting
// for the webhook.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req VerifyRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		errorhandler.LogValidationError(r.Context(), fieldErrors)
		response.ValidationError(w, fieldErrors)
		return
	}

	p, err := h.repo.GetByOrderID(r.Context(), req.OrderID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			response.NotFound(w, "Payment not found")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "failed to load payment", err)
		return
	}
	if p.UserID != userID {
		response.Forbidden(w, "You do not have access to this payment")
		return
	}

	if !razorpay.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature, h.keySecret) {
		log.Warn().
			Str("order_id", req.OrderID).
			Str("user_id", userID.String()).
			Msg("checkout signature verification failed")
		response.BadRequest(w, "Invalid payment signature")
		return
	}

	if err := h.bookings.PaymentCaptured(r.Context(), req.OrderID, req.PaymentID); err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "failed to record payment capture", err)
		return
	}

	response.OK(w, map[string]string{"status": "verified"})
}

// Get handles GET /payments/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid payment ID")
		return
	}

	p, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			response.NotFound(w, "Payment not found")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "failed to load payment", err)
		return
	}

	if p.UserID != userID {
		response.Forbidden(w, "You do not have access to this payment")
		return
	}

	response.OK(w, p)
}

// ListMy handles GET /payments
func (h *Handler) ListMy(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	payments, err := h.repo.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "failed to list payments", err)
		return
	}

	response.OK(w, payments)
}
