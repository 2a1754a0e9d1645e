package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/semenovm/ucp-checkout/internal/discovery"
	"github.com/semenovm/ucp-checkout/internal/idempotency"
	"github.com/semenovm/ucp-checkout/internal/metrics"
)

// RouterConfig collects everything the HTTP surface needs.
type RouterConfig struct {
	Checkout         *CheckoutHandler
	Orders           *OrderHandler
	Discovery        discovery.Document
	IdempotencyStore idempotency.Store
	Metrics          *metrics.ServerMetrics
	Registry         *prometheus.Registry
	SimulationSecret string
	RequestTimeout   time.Duration
}

// NewRouter builds the chi router with the full middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(MetricsMiddleware(cfg.Metrics))
	r.Use(AgentMiddleware)

	idem := Idempotent(cfg.IdempotencyStore)

	r.Route("/checkout-sessions", func(r chi.Router) {
		r.With(idem).Post("/", cfg.Checkout.Create)
		r.Get("/{id}", cfg.Checkout.Get)
		r.With(idem).Put("/{id}", cfg.Checkout.Update)
		r.With(idem).Post("/{id}/complete", cfg.Checkout.Complete)
		r.With(idem).Post("/{id}/cancel", cfg.Checkout.Cancel)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/{id}", cfg.Orders.Get)
		r.Put("/{id}", cfg.Orders.Update)
	})

	r.Route("/testing", func(r chi.Router) {
		r.Use(RequireSimulationSecret(cfg.SimulationSecret))
		r.Post("/simulate-shipping/{id}", cfg.Orders.SimulateShipping)
	})

	r.Get("/.well-known/ucp", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, cfg.Discovery)
	})

	// Capability spec and schema links advertised in the discovery
	// document resolve locally.
	r.Get("/specs/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte("# " + chi.URLParam(r, "*") + "\n\nCapability specification.\n"))
	})
	r.Get("/schemas/*", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"$schema": "https://json-schema.org/draft/2020-12/schema",
			"type":    "object",
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
