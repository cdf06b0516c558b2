package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finledger",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finledger",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	entriesPostedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finledger",
			Name:      "entries_posted_total",
			Help:      "Total number of ledger entries posted",
		},
		[]string{"source_type"},
	)
	reversalsPostedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "finledger",
			Name:      "reversals_posted_total",
			Help:      "Total number of reversal entries posted",
		},
	)
)

// MetricsHandler exposes the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// MetricsMiddleware records request count and latency per method and status.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		httpRequestsTotal.WithLabelValues(method, status).Inc()
		httpRequestDuration.WithLabelValues(method, status).Observe(time.Since(start).Seconds())
	}
}

// CountEntryPosted increments the posted-entry counter for a source type.
func CountEntryPosted(sourceType string) {
	entriesPostedTotal.WithLabelValues(sourceType).Inc()
}

// CountReversalPosted increments the reversal counter.
func CountReversalPosted() {
	reversalsPostedTotal.Inc()
}
