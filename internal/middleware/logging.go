package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avicola-track/farm-service/internal/auth"
)

// LoggingMiddleware provides request logging
type LoggingMiddleware struct {
	logger *slog.Logger
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logger *slog.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: logger,
	}
}

// LogRequests logs every request with the acting user when known
func (m *LoggingMiddleware) LogRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		var userID string
		if user, ok := auth.GetUserFromContext(c); ok {
			userID = user.UserID
		}

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", latency,
			"ip", c.ClientIP(),
			"user_id", userID,
			"response_size", c.Writer.Size(),
		}

		switch {
		case status >= 500:
			m.logger.Error("HTTP request failed", append(attrs, "error_details", c.Errors.String())...)
		case status >= 400:
			m.logger.Warn("HTTP request rejected", attrs...)
		default:
			m.logger.Info("HTTP request processed", attrs...)
		}
	}
}
