// Package ratelimit implements the fixed-window limiter guarding the
// generation endpoint.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"photoshoot-api/internal/common/config"
	"photoshoot-api/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultWindow = 10 * time.Second
	DefaultLimit  = 3

	// UnknownClient is the key used when no proxy header identifies the caller.
	UnknownClient = "unknown"
)

// Limiter admits or rejects one request for a client key. Rejected requests
// still count against the window.
type Limiter interface {
	Admit(ctx context.Context, clientKey string) (models.RateDecision, error)
}

type Config struct {
	Window        time.Duration
	Limit         int64
	KeyPrefix     string
	SweepInterval time.Duration
}

// ConfigFrom maps the application rate_limit section.
func ConfigFrom(cfg config.RateLimitConfig) Config {
	return Config{
		Window:        config.GetDuration(cfg.Window),
		Limit:         cfg.Limit,
		KeyPrefix:     cfg.KeyPrefix,
		SweepInterval: config.GetDuration(cfg.SweepInterval),
	}
}

// NewFromConfig selects the backend named by rate_limit.backend. rdb is only
// used by the redis backend.
func NewFromConfig(cfg config.RateLimitConfig, rdb redis.Scripter) (Limiter, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryLimiter(ConfigFrom(cfg)), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis rate limit backend requires a redis client")
		}
		return NewRedisLimiter(rdb, ConfigFrom(cfg)), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.Backend)
	}
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	return c
}

// ClientKey identifies the caller by the first X-Forwarded-For entry, then
// X-Real-IP, then UnknownClient. Headers are trusted as sent.
func ClientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return UnknownClient
}
