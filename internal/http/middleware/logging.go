// README: Access log and request metrics for every route.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"farcal/internal/metrics"
)

func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		tags := []string{
			metrics.Tag(metrics.TagPath, path),
			metrics.Tag(metrics.TagMethod, c.Request.Method),
			metrics.Tag(metrics.TagStatusCode, strconv.Itoa(status)),
		}
		metrics.Incr(metrics.APIRequestCount, tags...)
		metrics.Timing(metrics.APIRequestLatency, latency, tags...)

		log.Info().
			Str("client_ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Msg("access")
	}
}
