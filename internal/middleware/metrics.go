package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/novalab-io/labms-api/internal/service"
)

// Metrics records per-request duration and counts. Unmatched routes fall
// back to the raw URL path so they still show up, just unaggregated.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
