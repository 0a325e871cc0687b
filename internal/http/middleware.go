// Package http wires the gin router, middleware chain, and graceful
// shutdown for the public API and the metrics server.
package http

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
)

// CustomLoggerMiddleware logs each request through slog instead of gin's
// default text logger, so request logs share structure with the rest of
// the application's output.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		logger.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
			slog.String("request_id", requestid.Get(c)),
		)
	}
}
