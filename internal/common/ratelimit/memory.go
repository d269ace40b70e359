package ratelimit

import (
	"context"
	"sync"
	"time"

	"photoshoot-api/internal/models"

	"github.com/patrickmn/go-cache"
)

// MemoryLimiter keeps windows in process. Expired windows are evicted by the
// cache janitor so idle clients do not accumulate.
type MemoryLimiter struct {
	mu    sync.Mutex
	cfg   Config
	store *cache.Cache
	now   func() time.Time
}

func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	cfg = cfg.withDefaults()
	return &MemoryLimiter{
		cfg:   cfg,
		store: cache.New(cfg.Window, cfg.SweepInterval),
		now:   time.Now,
	}
}

func (m *MemoryLimiter) Admit(_ context.Context, clientKey string) (models.RateDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	var window *models.RateWindow
	if v, ok := m.store.Get(clientKey); ok {
		window = v.(*models.RateWindow)
	}

	if window == nil || now.After(window.ResetAt) {
		window = &models.RateWindow{
			ClientKey: clientKey,
			Count:     1,
			ResetAt:   now.Add(m.cfg.Window),
		}
		m.store.Set(clientKey, window, m.cfg.Window)
	} else {
		window.Count++
	}

	return models.RateDecision{
		Allowed: window.Count <= m.cfg.Limit,
		Count:   window.Count,
		Limit:   m.cfg.Limit,
		ResetAt: window.ResetAt,
	}, nil
}

// Len reports the number of live windows.
func (m *MemoryLimiter) Len() int {
	return m.store.ItemCount()
}
