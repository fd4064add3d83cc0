package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/petalworks/bloom-server/internal/metrics"
)

// Metrics records request counts and latencies for every handled request.
// Unmatched routes share one label value to keep cardinality bounded.
func Metrics(registry *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		registry.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
