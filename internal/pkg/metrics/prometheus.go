package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aetheria",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aetheria",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aetheria",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Generation metrics
	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aetheria",
			Subsystem: "generation",
			Name:      "total",
			Help:      "Total number of completed generations by provider and result source",
		},
		[]string{"provider", "source"},
	)

	generationFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aetheria",
			Subsystem: "generation",
			Name:      "fallbacks_total",
			Help:      "Total number of silent fallbacks to the simulated generator",
		},
		[]string{"reason"},
	)

	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aetheria",
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Duration of generation attempts in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"source"},
	)

	generationTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aetheria",
			Subsystem: "generation",
			Name:      "timeouts_total",
			Help:      "Total number of generation attempts that hit the deadline",
		},
	)

	// Entitlement metrics
	entitlementDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aetheria",
			Subsystem: "entitlement",
			Name:      "decisions_total",
			Help:      "Total number of entitlement gate decisions",
		},
		[]string{"decision", "class"},
	)

	premiumUnlocksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aetheria",
			Subsystem: "entitlement",
			Name:      "premium_unlocks_total",
			Help:      "Total number of premium unlocks",
		},
	)

	// Session metrics
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aetheria",
			Subsystem: "session",
			Name:      "active_count",
			Help:      "Number of live app sessions",
		},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		// Get route pattern from chi
		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordGeneration records a completed generation and its duration
func RecordGeneration(provider, source string, duration time.Duration) {
	generationsTotal.WithLabelValues(provider, source).Inc()
	generationDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordFallback records a silent fallback to the simulated generator
func RecordFallback(reason string) {
	generationFallbacksTotal.WithLabelValues(reason).Inc()
}

// RecordGenerationTimeout records a generation attempt that hit the deadline
func RecordGenerationTimeout() {
	generationTimeoutsTotal.Inc()
}

// RecordEntitlementDecision records one gate verdict
func RecordEntitlementDecision(decision, class string) {
	entitlementDecisionsTotal.WithLabelValues(decision, class).Inc()
}

// RecordPremiumUnlock records a premium unlock
func RecordPremiumUnlock() {
	premiumUnlocksTotal.Inc()
}

// SetActiveSessions sets the gauge for live app sessions
func SetActiveSessions(count float64) {
	activeSessions.Set(count)
}
