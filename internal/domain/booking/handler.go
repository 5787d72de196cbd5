package booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sportbook/sportbook-api/internal/domain/court"
	"github.com/sportbook/sportbook-api/internal/middleware"
	"github.com/sportbook/sportbook-api/internal/pkg/errorhandler"
	"github.com/sportbook/sportbook-api/internal/pkg/response"
	"github.com/sportbook/sportbook-api/internal/pkg/validator"
)

// Handler handles booking HTTP requests
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /bookings
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateBookingRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		errorhandler.LogValidationError(r.Context(), fieldErrors)
		response.ValidationError(w, fieldErrors)
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")

	result, err := h.service.Reserve(r.Context(), userID, &req, idempotencyKey)
	if err != nil {
		h.writeError(w, r, err, "failed to reserve booking")
		return
	}

	resp := &ReservationResponse{Booking: result.Booking, Payment: result.Payment}
	if result.Created {
		response.Created(w, resp)
		return
	}
	// Idempotent replay of an earlier reservation
	response.OK(w, resp)
}

// Availability handles GET /courts/{courtID}/availability?date=YYYY-MM-DD
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	courtID, err := strconv.ParseInt(chi.URLParam(r, "courtID"), 10, 64)
	if err != nil || courtID < 1 {
		response.BadRequest(w, "Invalid court ID")
		return
	}

	date := r.URL.Query().Get("date")
	if err := validator.ValidateVar(date, "required,bookingdate"); err != nil {
		response.BadRequest(w, "date must be in YYYY-MM-DD format")
		return
	}

	resp, err := h.service.Availability(r.Context(), courtID, date)
	if err != nil {
		h.writeError(w, r, err, "failed to load availability")
		return
	}

	response.OK(w, resp)
}

// Cancel handles POST /bookings/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	b, err := h.service.Cancel(r.Context(), userID, bookingID)
	if err != nil {
		h.writeError(w, r, err, "failed to cancel booking")
		return
	}

	response.OK(w, b)
}

// Get handles GET /bookings/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	b, p, err := h.service.GetBooking(r.Context(), userID, bookingID)
	if err != nil {
		h.writeError(w, r, err, "failed to load booking")
		return
	}

	response.OK(w, &ReservationResponse{Booking: b, Payment: p})
}

// List handles GET /bookings
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	bookings, err := h.service.ListBookings(r.Context(), userID, limit, offset)
	if err != nil {
		h.writeError(w, r, err, "failed to list bookings")
		return
	}

	response.OK(w, bookings)
}

// Sweep handles POST /bookings/sweep (admin). The same transition runs on a
// schedule in the sweeper worker; this endpoint exists for manual runs.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CompleteExpired(r.Context())
	if err != nil {
		h.writeError(w, r, err, "completion sweep failed")
		return
	}

	response.OK(w, &SweepResponse{Completed: count})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, ErrSlotConflict):
		response.Conflict(w, "Time slot already booked")
	case errors.Is(err, ErrIdempotencyMismatch):
		response.Conflict(w, "Idempotency key already used with a different request")
	case errors.Is(err, ErrReserveTimeout):
		response.RequestTimeout(w, "Could not secure the slot in time, please retry")
	case errors.Is(err, ErrVenueNotApproved):
		response.Forbidden(w, "Venue is not accepting bookings")
	case errors.Is(err, ErrNotBookingOwner):
		response.Forbidden(w, "You do not have access to this booking")
	case errors.Is(err, court.ErrCourtNotFound):
		response.NotFound(w, "Court not found")
	case errors.Is(err, ErrBookingNotFound):
		response.NotFound(w, "Booking not found")
	case errors.Is(err, ErrOutsideOperatingHours):
		response.BadRequest(w, "Requested time is outside operating hours")
	case errors.Is(err, ErrInvalidTimeRange):
		response.BadRequest(w, "Invalid booking time range")
	case errors.Is(err, ErrCancellationClosed):
		response.BadRequest(w, "Bookings can only be cancelled more than 2 hours before start")
	case errors.Is(err, ErrAlreadyTerminal):
		response.BadRequest(w, "Booking is already completed or cancelled")
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", msg, err)
	}
}
