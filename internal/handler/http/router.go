package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/PatronScore/pkg/health"
	"github.com/utafrali/PatronScore/pkg/middleware"
)

// ServiceName labels HTTP metrics and spans.
const ServiceName = "reputation"

// RouterConfig carries the router's collaborators and options.
type RouterConfig struct {
	Service     ReputationService
	Health      *health.Handler
	Logger      *slog.Logger
	CORSOrigins []string
	PprofCIDRs  []string
	// LookupLimit throttles the phone lookup route. Nil disables throttling.
	LookupLimit func(http.Handler) http.Handler
}

// NewRouter creates a chi router with all reputation routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger, "/health", "/metrics"))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))

	// Health check and metrics endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	if len(cfg.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	customerHandler := NewCustomerHandler(cfg.Service, logger)
	reviewHandler := NewReviewHandler(cfg.Service, logger)

	r.Route("/api/v1/customers", func(r chi.Router) {
		r.Use(middleware.NoStore)

		r.With(limiter(cfg.LookupLimit)).Get("/lookup", customerHandler.Lookup)
		r.Get("/{id}/profile", customerHandler.GetProfile)
	})

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", reviewHandler.ListReviews)
		r.Post("/", reviewHandler.CreateReview)
		r.Get("/{id}", reviewHandler.GetReview)
		r.Patch("/{id}", reviewHandler.UpdateReview)
		r.Delete("/{id}", reviewHandler.DeleteReview)
		r.Post("/{id}/share", reviewHandler.ShareReview)
	})

	return r
}

func limiter(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}
