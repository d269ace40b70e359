package middleware

import (
	"time"

	"photoshoot-api/internal/common/logger"

	"github.com/gin-gonic/gin"
)

func Logger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"durationMs": duration.Milliseconds(),
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
			"request_id": c.GetString(RequestIDKey),
		}

		if c.Writer.Status() >= 500 {
			log.Error("Request failed", fields)
		} else if c.Writer.Status() >= 400 {
			log.Warn("Request rejected", fields)
		} else {
			log.Info("Request processed", fields)
		}
	}
}
