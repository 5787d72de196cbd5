package court

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sportbook/sportbook-api/internal/middleware"
)

// Routes returns court router, mounted at /courts. The availability handler
// comes from the booking domain but lives on the court URL space.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler, availability http.HandlerFunc) chi.Router {
	r := chi.NewRouter()

	// Public routes (no auth required)
	r.Get("/{id}", h.Get)
	r.Get("/{courtID}/availability", availability)

	// Protected routes (auth required)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireOwner())

		r.Patch("/{id}/price", h.UpdatePrice)
	})

	return r
}

// VenueRoutes returns the venue-scoped court listing, mounted at /venues.
func (h *Handler) VenueRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{venueID}/courts", h.ListByVenue)

	return r
}
