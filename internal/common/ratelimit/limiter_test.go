package ratelimit

import (
	"net/http/httptest"
	"testing"

	"photoshoot-api/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientKey(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "first forwarded entry",
			headers: map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1", "X-Real-IP": "198.51.100.1"},
			want:    "203.0.113.7",
		},
		{
			name:    "real ip fallback",
			headers: map[string]string{"X-Real-IP": "198.51.100.1"},
			want:    "198.51.100.1",
		},
		{
			name:    "empty forwarded entry falls back",
			headers: map[string]string{"X-Forwarded-For": " , 10.0.0.1", "X-Real-IP": "198.51.100.1"},
			want:    "198.51.100.1",
		},
		{
			name: "no headers",
			want: UnknownClient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/generate", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientKey(req))
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	tests := []struct {
		name    string
		cfg     config.RateLimitConfig
		rdb     redis.Scripter
		want    interface{}
		wantErr bool
	}{
		{name: "default memory", cfg: config.RateLimitConfig{}, want: &MemoryLimiter{}},
		{name: "redis", cfg: config.RateLimitConfig{Backend: "redis"}, rdb: rdb, want: &RedisLimiter{}},
		{name: "redis without client", cfg: config.RateLimitConfig{Backend: "redis"}, wantErr: true},
		{name: "unknown backend", cfg: config.RateLimitConfig{Backend: "etcd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter, err := NewFromConfig(tt.cfg, tt.rdb)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, limiter)
		})
	}
}
