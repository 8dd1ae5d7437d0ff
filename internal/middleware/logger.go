package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-booking/pkg/logger"
)

// Logger logs every request once it has been handled. Request bodies are not
// logged since booking forms carry patient contact details.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		event := log.ZL.Info()
		msg := "Request processed"
		switch {
		case status >= 500:
			event = log.ZL.Error()
			msg = "Server error"
		case status >= 400:
			event = log.ZL.Warn()
			msg = "Client error"
		}

		event.
			Str("request_id", c.GetString(ContextRequestID)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user_agent", c.Request.UserAgent()).
			Msg(msg)
	}
}
