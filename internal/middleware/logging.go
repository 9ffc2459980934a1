package middleware

import (
	"strconv"
	"time"

	"ad-ranking-system/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LoggingMiddleware logs every request and records its latency under the
// matched route, so /ads/1 and /ads/2 share a series.
func LoggingMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := c.Writer.Status()
		metrics.ResponseTime.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(status)).Observe(latency.Seconds())

		entry := log.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    status,
			"latency":   latency.String(),
			"client_ip": c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		switch {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}
	}
}
