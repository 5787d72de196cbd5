package booking

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sportbook/sportbook-api/internal/middleware"
)

// Routes returns booking router, mounted at /bookings. The availability
// endpoint lives under /courts and is registered by CourtRoutes.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/cancel", h.Cancel)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Post("/sweep", h.Sweep)
		})
	})

	return r
}
