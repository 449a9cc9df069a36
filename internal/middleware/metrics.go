package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MetricsHandler returns current request metrics
func MetricsHandler(c *gin.Context) {
	m := GetMetrics()

	avgLatency := 0.0
	if m.TotalRequests > 0 {
		avgLatency = float64(m.TotalLatencyMillis) / float64(m.TotalRequests)
	}

	c.JSON(http.StatusOK, gin.H{
		"total_requests":      m.TotalRequests,
		"failed_requests":     m.FailedRequests,
		"requests_by_route":   m.RequestsByRoute,
		"responses_by_status": m.ResponsesByStatus,
		"avg_latency_ms":      avgLatency,
	})
}
