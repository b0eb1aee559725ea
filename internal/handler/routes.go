package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router builds the HTTP routes. /health is always public; everything else
// requires adminToken when it is set.
func (h *Handler) Router(adminToken string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger)
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(RequireBearer(adminToken))

		r.Post("/extract", h.Extract)
		r.Post("/field-mapping", h.RunFieldMapper)
		r.Post("/sync", h.SyncAll)

		r.Route("/calendars/{calendarID}", func(r chi.Router) {
			r.Post("/field-mapping", h.RunFieldMapping)
			r.Get("/field-mapping", h.GetFieldMapping)
			r.Post("/sync", h.SyncCalendar)
			r.Get("/sync", h.LastSync)
			r.Get("/bookings", h.ListBookings)
		})
	})

	return r
}
