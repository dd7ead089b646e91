package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avicola-track/farm-service/pkg/metrics"
)

// MetricsMiddleware records request count, latency and in-flight requests.
// Requests are labelled with the route template so flock and item ids do not explode cardinality.
func MetricsMiddleware(collector *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if collector == nil {
			c.Next()
			return
		}

		start := time.Now()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		collector.HTTPRequestsInFlight.Inc()
		defer collector.HTTPRequestsInFlight.Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		collector.HTTPRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		collector.HTTPRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}
