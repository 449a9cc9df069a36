package middleware

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestMetrics holds in-memory request counters
type RequestMetrics struct {
	mu                 sync.RWMutex
	TotalRequests      uint64
	FailedRequests     uint64
	RequestsByRoute    map[string]uint64
	ResponsesByStatus  map[string]uint64
	TotalLatencyMillis int64
}

var metrics = newRequestMetrics()

func newRequestMetrics() *RequestMetrics {
	return &RequestMetrics{
		RequestsByRoute:   make(map[string]uint64),
		ResponsesByStatus: make(map[string]uint64),
	}
}

// MetricsSnapshot is a point-in-time copy of the request metrics
type MetricsSnapshot struct {
	TotalRequests      uint64
	FailedRequests     uint64
	RequestsByRoute    map[string]uint64
	ResponsesByStatus  map[string]uint64
	TotalLatencyMillis int64
}

// GetMetrics returns a snapshot of the request metrics
func GetMetrics() MetricsSnapshot {
	metrics.mu.RLock()
	defer metrics.mu.RUnlock()
	return MetricsSnapshot{
		TotalRequests:      metrics.TotalRequests,
		FailedRequests:     metrics.FailedRequests,
		RequestsByRoute:    copyMap(metrics.RequestsByRoute),
		ResponsesByStatus:  copyMap(metrics.ResponsesByStatus),
		TotalLatencyMillis: metrics.TotalLatencyMillis,
	}
}

// ResetMetrics clears all counters
func ResetMetrics() {
	fresh := newRequestMetrics()
	metrics.mu.Lock()
	metrics.TotalRequests = 0
	metrics.FailedRequests = 0
	metrics.RequestsByRoute = fresh.RequestsByRoute
	metrics.ResponsesByStatus = fresh.ResponsesByStatus
	metrics.TotalLatencyMillis = 0
	metrics.mu.Unlock()
}

func copyMap(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// statusClass buckets a status code as "2xx", "4xx", ...
func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

func record(route string, status int, latency time.Duration) {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	metrics.TotalRequests++
	if status >= 500 {
		metrics.FailedRequests++
	}
	metrics.RequestsByRoute[route]++
	metrics.ResponsesByStatus[statusClass(status)]++
	metrics.TotalLatencyMillis += latency.Milliseconds()
}

// StructuredLoggingMiddleware logs every request with its latency and status.
// Requests are counted per route template so entry IDs do not explode the metrics.
func StructuredLoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		record(method+" "+route, statusCode, latency)

		attrs := []any{
			"method", method,
			"path", path,
			"route", route,
			"query_params", c.Request.URL.Query().Encode(),
			"remote_addr", c.ClientIP(),
			"status_code", statusCode,
			"latency_ms", latency.Milliseconds(),
			"bytes_written", c.Writer.Size(),
		}
		switch {
		case statusCode >= 500:
			logger.Error("request completed", attrs...)
		case statusCode >= 400:
			logger.Warn("request completed", attrs...)
		default:
			logger.Info("request completed", attrs...)
		}

		for _, err := range c.Errors {
			logger.Error("request error",
				"method", method,
				"path", path,
				"error", err.Error(),
			)
		}
	}
}
