package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	ParseRequests    *prometheus.CounterVec
	AdmissionsDenied prometheus.Counter
	AuthFailures     prometheus.Counter
	KeysCreated      *prometheus.CounterVec
	KeysRotated      prometheus.Counter
}

// New creates a new Metrics instance with all metrics registered on its own
// registry, so repeated construction in tests never collides.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		ParseRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cccd_parse_requests_total",
				Help: "Total number of parse requests",
			},
			[]string{"outcome"}, // ok, invalid_format, implausible
		),
		AdmissionsDenied: factory.NewCounter(prometheus.CounterOpts{
			Name: "admissions_denied_total",
			Help: "Total number of requests refused by the rate limiter",
		}),
		AuthFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Total number of requests with a missing or rejected api key",
		}),
		KeysCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_keys_created_total",
				Help: "Total number of api keys minted",
			},
			[]string{"tier"},
		),
		KeysRotated: factory.NewCounter(prometheus.CounterOpts{
			Name: "api_keys_rotated_total",
			Help: "Total number of api key rotations",
		}),
	}
}

// Middleware creates a gin middleware recording per-request metrics. Paths
// are labelled by route pattern, not raw URL, to keep cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
	}
}

// Handler serves the scrape endpoint for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordParse increments the parse counter with its outcome
func (m *Metrics) RecordParse(outcome string) {
	m.ParseRequests.WithLabelValues(outcome).Inc()
}

// RecordAdmissionDenied increments the rate-limit refusal counter
func (m *Metrics) RecordAdmissionDenied() {
	m.AdmissionsDenied.Inc()
}

// RecordAuthFailure increments the auth failure counter
func (m *Metrics) RecordAuthFailure() {
	m.AuthFailures.Inc()
}

// RecordKeyCreated increments the key mint counter
func (m *Metrics) RecordKeyCreated(tier string) {
	m.KeysCreated.WithLabelValues(tier).Inc()
}

// RecordKeyRotated increments the rotation counter
func (m *Metrics) RecordKeyRotated() {
	m.KeysRotated.Inc()
}
