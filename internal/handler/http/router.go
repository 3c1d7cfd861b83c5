package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

const serviceName = "storefront"

// RouterConfig holds the HTTP concerns that vary per deployment.
type RouterConfig struct {
	CORS           middleware.CORSConfig
	CatalogMaxAge  time.Duration
	RequestTimeout time.Duration
	PprofEnabled   bool
	PprofCIDRs     []string
}

// DefaultRouterConfig returns development defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CORS:           middleware.DefaultCORSConfig(),
		CatalogMaxAge:  60 * time.Second,
		RequestTimeout: 30 * time.Second,
	}
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	carts *service.CartService,
	storefront *service.StorefrontService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	cartHandler := NewCartHandler(carts, logger)
	catalogHandler := NewCatalogHandler(storefront, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(middleware.RequireSession)

			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.Clear)
			r.Post("/visibility", cartHandler.ToggleVisibility)

			r.Post("/lines", cartHandler.AddLine)
			r.Put("/lines/{lineId}/quantity", cartHandler.SetQuantity)
			r.Put("/lines/{lineId}/size", cartHandler.ChangeSize)
			r.Delete("/lines/{lineId}", cartHandler.RemoveLine)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(cfg.CatalogMaxAge))

			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/{id}", catalogHandler.GetProduct)
			r.Get("/categories", catalogHandler.ListCategories)
			r.Get("/shelves/{name}", catalogHandler.GetShelf)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.Post("/shelves/{name}/retry", catalogHandler.RetryShelf)
			r.With(middleware.RequireSession).Post("/products/{id}/cart", catalogHandler.AddToCart)
		})
	})

	return r
}
