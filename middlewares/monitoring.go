package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bakery_service_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bakery_service_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	orderOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bakery_service_order_operations_total",
			Help: "Total number of order operations",
		},
		[]string{"operation", "status"},
	)

	trackingPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bakery_service_tracking_requests_total",
			Help: "Total number of tracking pushes and polls",
		},
		[]string{"kind", "status"},
	)
)

// PrometheusMiddleware collects request counters and latency histograms.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
	}
}

// RecordOrderOperation counts a business-level order operation.
func RecordOrderOperation(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	orderOperations.WithLabelValues(operation, status).Inc()
}

// RecordTrackingRequest counts agent pushes and customer polls.
func RecordTrackingRequest(kind string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	trackingPolls.WithLabelValues(kind, status).Inc()
}
