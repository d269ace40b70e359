package ratelimit

import (
	"context"
	"fmt"
	"time"

	"photoshoot-api/internal/models"

	"github.com/redis/go-redis/v9"
)

// admitScript increments the window counter and starts the TTL on the first
// hit. Returns {count, pttl}.
var admitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if current == 1 or ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisLimiter shares windows between service instances.
type RedisLimiter struct {
	client redis.Scripter
	cfg    Config
	now    func() time.Time
}

func NewRedisLimiter(client redis.Scripter, cfg Config) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		cfg:    cfg.withDefaults(),
		now:    time.Now,
	}
}

func (l *RedisLimiter) Admit(ctx context.Context, clientKey string) (models.RateDecision, error) {
	key := l.cfg.KeyPrefix + clientKey

	res, err := admitScript.Run(ctx, l.client, []string{key}, l.cfg.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return models.RateDecision{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 2 {
		return models.RateDecision{}, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	count, ttl := res[0], res[1]
	return models.RateDecision{
		Allowed: count <= l.cfg.Limit,
		Count:   count,
		Limit:   l.cfg.Limit,
		ResetAt: l.now().Add(time.Duration(ttl) * time.Millisecond),
	}, nil
}
