// Package transport exposes the photoshoot API over HTTP.
package transport

import (
	"photoshoot-api/internal/common/logger"
	"photoshoot-api/internal/common/ratelimit"
	"photoshoot-api/internal/transport/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	// Limiter guards POST /api/generate; nil disables rate limiting.
	Limiter        ratelimit.Limiter
	MetricsEnabled bool
}

func InitRoutes(opts RouterOptions, generateHandler *GenerateHandler, styleHandler *StyleHandler, healthHandler *HealthHandler, log logger.Logger) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Logger(log))

	api := router.Group("/api")
	{
		generate := []gin.HandlerFunc{generateHandler.Generate}
		if opts.Limiter != nil {
			generate = append([]gin.HandlerFunc{middleware.RateLimit(opts.Limiter, log)}, generate...)
		}
		api.POST("/generate", generate...)
		api.GET("/styles", styleHandler.ListStyles)
	}

	router.GET("/health", healthHandler.Health)
	if opts.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	return router
}
