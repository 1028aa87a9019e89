package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mintworks/launchgate/pkg/health"
	"github.com/mintworks/launchgate/pkg/middleware"
)

// RouterConfig carries the handlers and cross-cutting deps the router
// mounts.
type RouterConfig struct {
	Access *AccessHandler
	Phases *PhaseHandler
	Health *health.Handler
	Logger *slog.Logger
	// AdminSecret signs the bearer tokens required on mutating admin
	// routes. Empty leaves the admin surface open, for local development.
	AdminSecret string
	ServiceName string
}

// NewRouter assembles the full HTTP surface: health probes, prometheus
// metrics, and the versioned API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", cfg.Health.LivenessHandler())
	r.Get("/readyz", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	adminOnly := func(next http.Handler) http.Handler { return next }
	if cfg.AdminSecret != "" {
		adminOnly = middleware.AdminAuth(cfg.AdminSecret, cfg.Logger)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/collections", func(r chi.Router) {
			r.Get("/", cfg.Phases.ListCollections)
			r.With(adminOnly).Post("/", cfg.Phases.CreateCollection)

			r.Route("/{collectionID}", func(r chi.Router) {
				r.Get("/", cfg.Phases.GetCollection)
				r.Get("/eligibility/{wallet}", cfg.Access.CheckEligibility)
				r.Post("/reservations", cfg.Access.Reserve)

				r.Route("/phases", func(r chi.Router) {
					r.Get("/", cfg.Phases.ListPhases)
					r.With(adminOnly).Post("/", cfg.Phases.CreatePhase)
					r.Get("/active", cfg.Phases.ActivePhases)

					r.Route("/{phaseID}", func(r chi.Router) {
						r.Get("/", cfg.Phases.GetPhase)
						r.With(adminOnly).Patch("/", cfg.Phases.UpdatePhase)
						r.With(adminOnly).Delete("/", cfg.Phases.DeletePhase)
						r.Get("/stats", cfg.Access.PhaseStatistics)

						r.Route("/allowlist", func(r chi.Router) {
							r.Use(adminOnly)
							r.Post("/", cfg.Phases.AddAllowListMembers)
							r.Delete("/", cfg.Phases.RemoveAllowListMembers)
							r.Put("/lock", cfg.Phases.SetAllowListLock)
						})
					})
				})
			})
		})

		r.Route("/reservations/{reservationID}", func(r chi.Router) {
			r.Post("/commit", cfg.Access.Commit)
			r.Post("/release", cfg.Access.Release)
		})
	})

	return r
}
