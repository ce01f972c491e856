// internal/middleware/metrics.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/readsphere/readsphere-api/internal/metrics"
)

// Metrics records request count and latency per route template
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordAPIRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
