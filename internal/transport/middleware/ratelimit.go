package middleware

import (
	"net/http"
	"strconv"

	apperrors "photoshoot-api/internal/common/errors"
	"photoshoot-api/internal/common/logger"
	"photoshoot-api/internal/common/metrics"
	"photoshoot-api/internal/common/ratelimit"
	"photoshoot-api/internal/models"

	"github.com/gin-gonic/gin"
)

// ClientKeyKey holds the rate limit identity of the caller in the gin context.
const ClientKeyKey = "clientKey"

// RateLimit admits requests through limiter. Limiter failures are logged and
// the request is let through.
func RateLimit(limiter ratelimit.Limiter, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ratelimit.ClientKey(c.Request)
		c.Set(ClientKeyKey, key)

		decision, err := limiter.Admit(c.Request.Context(), key)
		if err != nil {
			metrics.RateLimitDecisions.WithLabelValues("error").Inc()
			log.Warn("rate limiter unavailable, admitting request", map[string]interface{}{
				"error":     err,
				"clientKey": key,
			})
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining(), 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			metrics.RateLimitDecisions.WithLabelValues("rejected").Inc()
			rlErr := apperrors.NewRateLimitedError(key)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: rlErr.Message,
				Code:  string(rlErr.Code),
			})
			return
		}

		metrics.RateLimitDecisions.WithLabelValues("allowed").Inc()
		c.Next()
	}
}
