package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/outreach-tracker/outreach-tracker/internal/telemetry"
)

// MetricsMiddleware returns a Gin handler that records two Prometheus metrics
// for every request that passes through the router:
//
//   - http_requests_total{method, path, status}    — CounterVec
//   - http_request_duration_seconds{method, path}  — HistogramVec
//
// The path label is set from c.FullPath(), which returns the matched Gin route
// template (e.g. /api/v1/potentials/:id/convert) rather than the raw URL.
// Requests that do not match any registered route (404/405) use the literal
// string "<no-route>" so unhandled paths do not inflate label cardinality.
//
// This middleware must be registered AFTER gin.Recovery() and
// RequestIDMiddleware so that the response status set by error handlers is
// captured correctly.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		status := fmt.Sprintf("%d", c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}
