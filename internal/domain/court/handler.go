package court

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sportbook/sportbook-api/internal/middleware"
	"github.com/sportbook/sportbook-api/internal/pkg/errorhandler"
	"github.com/sportbook/sportbook-api/internal/pkg/response"
	"github.com/sportbook/sportbook-api/internal/pkg/validator"
)

// Handler handles court HTTP requests
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Get handles GET /courts/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		response.BadRequest(w, "Invalid court ID")
		return
	}

	c, err := h.service.GetCourt(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "failed to load court")
		return
	}

	response.OK(w, c)
}

// ListByVenue handles GET /venues/{venueID}/courts
func (h *Handler) ListByVenue(w http.ResponseWriter, r *http.Request) {
	venueID, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
	if err != nil || venueID < 1 {
		response.BadRequest(w, "Invalid venue ID")
		return
	}

	courts, err := h.service.ListByVenue(r.Context(), venueID)
	if err != nil {
		h.writeError(w, r, err, "failed to list courts")
		return
	}

	response.OK(w, courts)
}

// UpdatePrice handles PATCH /courts/{id}/price (owner only)
func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())
	if ownerID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		response.BadRequest(w, "Invalid court ID")
		return
	}

	var req UpdatePriceRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		errorhandler.LogValidationError(r.Context(), fieldErrors)
		response.ValidationError(w, fieldErrors)
		return
	}

	c, err := h.service.UpdateHourlyPrice(r.Context(), id, ownerID, req.PricePerHour)
	if err != nil {
		h.writeError(w, r, err, "failed to update price")
		return
	}

	response.OK(w, c)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, ErrCourtNotFound):
		response.NotFound(w, "Court not found")
	case errors.Is(err, ErrNotCourtOwner):
		response.Forbidden(w, "You can only manage your own courts")
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", msg, err)
	}
}
