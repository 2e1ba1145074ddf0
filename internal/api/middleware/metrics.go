package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"auction-analytics/internal/metrics"
)

// Metrics records request counts and latencies by matched route, so path
// parameters do not explode label cardinality.
func Metrics(reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		reg.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
