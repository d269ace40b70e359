package middleware

import (
	"net/http"

	apperrors "photoshoot-api/internal/common/errors"
	"photoshoot-api/internal/common/logger"
	"photoshoot-api/internal/models"

	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into a JSON 500.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("panic recovered", map[string]interface{}{
			"panic":      recovered,
			"path":       c.Request.URL.Path,
			"request_id": c.GetString(RequestIDKey),
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Unexpected error",
			Code:  string(apperrors.ErrCodeInternal),
		})
	})
}
