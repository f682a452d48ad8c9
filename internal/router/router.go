package router

import (
	"net/http"

	"product-catalog/internal/handler"
	"product-catalog/internal/middleware"
	"product-catalog/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Options toggles optional router features.
type Options struct {
	// Registry enables /metrics and request instrumentation when non-nil.
	Registry *prometheus.Registry
}

// New creates a new HTTP router with all routes and middleware configured.
func New(productHandler *handler.ProductHandler, logger zerolog.Logger, opts Options) http.Handler {
	r := chi.NewRouter()

	// Middleware order: CorrelationID -> Recovery -> Logging -> CORS -> Metrics
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	if opts.Registry != nil {
		r.Use(middleware.NewMetrics(opts.Registry).Middleware)
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeRouteError(w, req, http.StatusNotFound, model.ErrCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeRouteError(w, req, http.StatusMethodNotAllowed, model.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", productHandler.Health)
	r.Get("/ready", productHandler.Ready)

	r.Route("/products", func(r chi.Router) {
		r.Post("/", productHandler.Create)
		r.Get("/", productHandler.FindAll)
		// Static segments take precedence over {id} in chi.
		r.Get("/lowStock", productHandler.FindLowStock)
		r.Get("/popular", productHandler.FindMostPopular)
		r.Put("/{id}", productHandler.Update)
		r.Delete("/{id}", productHandler.Delete)
	})

	return r
}
