/*
server.go - HTTP router and middleware configuration

ROUTER: chi
  Lightweight, context-based, RESTful route patterns.

MIDDLEWARE STACK:
  1. Logger:     request logging
  2. Recoverer:  panic recovery (500 instead of crash)
  3. RequestID:  unique ID per request for tracing
  4. CORS:       cross-origin requests for a frontend

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.SubmitRequest)
			r.Get("/{id}", h.GetRequest)
			r.Post("/{id}/approve", h.ApproveRequest)
			r.Post("/{id}/reject", h.RejectRequest)
			r.Post("/{id}/early-checkin", h.RequestEarlyCheckin)
			r.Post("/{id}/early-checkin/acknowledge", h.AcknowledgeEarlyCheckin)
			r.Post("/{id}/extension", h.RequestExtension)
			r.Post("/{id}/extension/review", h.ReviewExtension)
			r.Post("/{id}/manager-extend", h.ManagerExtend)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/{id}/schedule", h.GetSchedule)
			r.Get("/{id}/cycle-status", h.GetCycleStatus)
			r.Get("/{id}/balances", h.GetBalances)
		})

		r.Route("/delegations", func(r chi.Router) {
			r.Post("/", h.CreateDelegation)
			r.Post("/{id}/cancel", h.CancelDelegation)
		})

		r.Get("/managers/{id}/delegated-staff", h.GetDelegatedStaff)
	})

	return r
}
