package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yar-app/yar-api/internal/service"
)

const metricsPath = "/metrics"

// Metrics records duration, status and response size per route. Scrapes of
// the metrics endpoint itself are not counted.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == metricsPath {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		size := c.Writer.Size()
		if size < 0 {
			size = 0
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start), size)
	}
}
