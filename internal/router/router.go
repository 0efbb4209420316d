// Package router sets up all HTTP routes and middleware chains for the
// theme service. Public stylesheet routes are open to any origin; the admin
// group requires an editor session.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"themeforge/internal/handlers"
	"themeforge/internal/metrics"
	"themeforge/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. limiter throttles preview compilation;
// gatherer backs /metrics.
func New(sessions middleware.SessionLoader, theme *handlers.Theme, limiter *middleware.RateLimiter, gatherer prometheus.Gatherer, m *metrics.Metrics, secureCookies bool) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger(m))
	r.Use(middleware.SecureHeaders)

	// Stylesheets are loaded cross-origin by every site that uses the theme.
	// Credentials are never allowed, so the admin API stays same-origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "If-None-Match"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Public stylesheet routes.
	r.Get("/api/theme.css", theme.CSS)
	r.Get("/api/theme/fonts", theme.Fonts)
	r.Get("/api/theme/preview.css", theme.PreviewCSS)

	// Admin API: session, CSRF, and an editor role are required.
	r.Route("/api/admin/theme", func(r chi.Router) {
		r.Use(middleware.LoadSession(sessions))
		r.Use(middleware.NewCSRF(secureCookies))
		r.Use(middleware.RequireEditor)

		r.Get("/", theme.Get)
		r.Put("/", theme.Update)
		r.Patch("/", theme.Patch)
		r.Delete("/", theme.Reset)

		r.Post("/diagnostics", theme.Diagnostics)
		r.Get("/history", theme.History)

		r.Route("/preview", func(r chi.Router) {
			r.Get("/", theme.PreviewGet)
			r.Delete("/", theme.PreviewClear)
			r.With(limiter.Middleware).Post("/", theme.PreviewSet)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
