package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a chi router with all book exchange routes registered.
func NewRouter(store Store, sessions *SessionManager, logger *slog.Logger) (http.Handler, error) {
	h, err := NewHandler(store, sessions, logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(Recovery(logger))
	r.Use(RequestLogging(logger))
	r.Use(PrometheusMetrics)

	// Health check endpoints
	r.Get("/health/live", Liveness)
	r.Get("/health/ready", Readiness(store))
	r.Handle("/metrics", promhttp.Handler())

	// Pages
	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)

		r.Get("/", h.Home)
		r.Post("/", h.Home)
		r.Get("/browse", h.Browse)
		r.Get("/thankyou", h.ThankYou)

		r.Get("/register", h.RegisterPage)
		r.Post("/register", h.Register)
		r.Get("/login", h.LoginPage)
		r.Post("/login", h.Login)
		r.Get("/logout", h.Logout)

		r.Post("/list", h.ListBook)
		r.Post("/rate", h.Rate)
		r.Post("/contact", h.Contact)
	})

	return r, nil
}
