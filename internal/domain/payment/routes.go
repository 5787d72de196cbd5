package payment

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns payment router for authenticated API access, mounted at
// /payments.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", h.ListMy)
		r.Post("/verify", h.Verify)
		r.Get("/{id}", h.Get)
	})

	return r
}

// WebhookRoutes returns the unauthenticated provider callback router.
// Authenticity comes from the webhook signature, not a session.
func (h *Handler) WebhookRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/razorpay", h.Webhook)

	return r
}
