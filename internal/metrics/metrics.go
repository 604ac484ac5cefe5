// Package metrics provides Prometheus instrumentation for the trade engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OffersGenerated counts successfully generated offers per template.
	OffersGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocksim_offers_generated_total",
		Help: "Trade offers generated, by template",
	}, []string{"template"})

	// OfferGenerationFailures counts templates that could not produce an
	// offer (insufficient cash, no candidate equities, value below floor).
	OfferGenerationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocksim_offer_generation_failures_total",
		Help: "Offer templates that produced no offer, by template",
	}, []string{"template"})

	// FairnessBreaches counts offers whose sides diverge past the hard
	// ceiling. Non-fatal; the offer is still surfaced.
	FairnessBreaches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocksim_fairness_breaches_total",
		Help: "Generated offers with side imbalance beyond the ceiling",
	}, []string{"template"})

	// TradesExecuted counts accepted offers applied to the portfolio.
	TradesExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stocksim_trades_executed_total",
		Help: "Accepted trade offers executed",
	})

	// OffersDeclined counts individually declined offers.
	OffersDeclined = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stocksim_offers_declined_total",
		Help: "Trade offers declined by the player",
	})

	// PoolSize tracks the number of offers currently held in the daily pool.
	PoolSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stocksim_offer_pool_size",
		Help: "Offers currently available in the daily pool",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stocksim_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocksim_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stocksim_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
