package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"pharmaledger/pkg/metrics"
)

// Metrics records every request against its route template, so ids in
// paths do not explode label cardinality.
func Metrics(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Observe(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
