package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Cryptobal/gardops-api/internal/service"
)

// Metrics records duration and status of every request. Unmatched routes are
// collapsed into one label so path scanning cannot explode cardinality.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
