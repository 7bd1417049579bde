// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"referral-tracker/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(referralHandler *handler.ReferralHandler, store handler.Pinger, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(middleware.Logger)                          // Log HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Bound every request

	r.Get("/health", handler.Health(store, logger))

	r.Post("/register", referralHandler.Register)
	r.Get("/referrals/{address}", referralHandler.GetReferrals)

	return r
}
