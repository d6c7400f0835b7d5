package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/akib4796/omnishop-manager-sub000/internal/adapter/http/handler"
	"github.com/akib4796/omnishop-manager-sub000/internal/adapter/http/middleware"
	"github.com/akib4796/omnishop-manager-sub000/internal/infrastructure/metrics"
	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	EntryHandler      *handler.EntryHandler
	ObligationHandler *handler.ObligationHandler
	EntityHandler     *handler.EntityHandler
	ShiftHandler      *handler.ShiftHandler
	HealthHandler     *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore // optional
	IdempotencyTTL   time.Duration

	Metrics  *metrics.Metrics     // optional
	Gatherer prometheus.Gatherer // defaults to the global registry

	CORSAllowedOrigins []string
	Logger             zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg.CORSAllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.IdempotencyKeyHeader},
		ExposedHeaders: []string{middleware.IdempotencyReplayHeader},
		MaxAge:         300,
	}))

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", metricsHandler(cfg.Gatherer))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/allocations/preview", cfg.EntityHandler.PreviewAllocation)

		r.Route("/tenants/{tenantID}", func(r chi.Router) {
			// Idempotency middleware for mutating requests
			if cfg.IdempotencyStore != nil {
				r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
			}

			// Ledger
			r.Route("/entries", func(r chi.Router) {
				r.Post("/", cfg.EntryHandler.Record)
				r.Get("/", cfg.EntryHandler.List)
				r.Get("/{id}", cfg.EntryHandler.Get)
			})
			r.Get("/ledger/summary", cfg.EntryHandler.Summary)

			// Sales and purchase orders
			r.Route("/obligations", func(r chi.Router) {
				r.Post("/", cfg.ObligationHandler.Create)
				r.Get("/", cfg.ObligationHandler.List)
				r.Get("/{id}", cfg.ObligationHandler.Get)
			})

			// Customers and suppliers
			r.Route("/entities/{entityID}", func(r chi.Router) {
				r.Get("/balance", cfg.EntityHandler.Balance)
				r.Get("/statement", cfg.EntityHandler.Statement)
				r.Post("/payments", cfg.EntityHandler.ReceivePayment)
				r.Post("/rebuild", cfg.EntityHandler.Rebuild)
			})

			// Cash shifts
			r.Route("/shifts", func(r chi.Router) {
				r.Post("/", cfg.ShiftHandler.Open)
				r.Get("/{id}", cfg.ShiftHandler.Get)
				r.Get("/{id}/expected", cfg.ShiftHandler.Expected)
				r.Post("/{id}/close", cfg.ShiftHandler.Close)
			})
		})
	})

	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func metricsHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
