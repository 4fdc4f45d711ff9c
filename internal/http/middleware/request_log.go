package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-curriculum/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

// RequestLogger writes one access line per request. 5xx logs at error and 4xx at
// warn so rejected uploads and bad plans stand out.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		fields := append([]interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes_in", c.Request.ContentLength,
			"bytes_out", c.Writer.Size(),
		}, ctxutil.LogFields(c.Request.Context())...)
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		emit := log.Info
		if status >= 500 {
			emit = log.Error
		} else if status >= 400 {
			emit = log.Warn
		}
		emit("HTTP request", fields...)
	}
}
