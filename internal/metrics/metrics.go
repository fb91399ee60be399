package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptpilot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "promptpilot_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Optimization Metrics
	OptimizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptpilot_optimizations_total",
			Help: "Total number of optimization requests by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	ProviderTokensUsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promptpilot_provider_tokens_used_total",
			Help: "Total provider tokens consumed by optimization calls",
		},
	)

	ProviderCallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "promptpilot_provider_call_duration_seconds",
			Help:    "Generation provider call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	// Quota Metrics
	QuotaReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptpilot_quota_reservations_total",
			Help: "Total quota admission attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Auth Metrics
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptpilot_logins_total",
			Help: "Total credential exchange attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// Middleware records request count and latency per endpoint
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()),
		).Inc()
		HTTPRequestDuration.WithLabelValues(
			c.Request.Method, endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the Prometheus metrics endpoint
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
