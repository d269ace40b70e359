package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLimiter(rdb, Config{Window: 10 * time.Second, Limit: 3, KeyPrefix: "rl:"}), mr
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	l, mr := newMiniredisLimiter(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := l.Admit(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, int64(i), d.Count)
	}

	d, err := l.Admit(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(4), d.Count)

	ttl := mr.TTL("rl:1.2.3.4")
	assert.True(t, ttl > 0 && ttl <= 10*time.Second, "ttl %v", ttl)

	mr.FastForward(11 * time.Second)

	d, err = l.Admit(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.Count)
}

func TestRedisLimiter_TTLNotExtendedByLaterHits(t *testing.T) {
	l, mr := newMiniredisLimiter(t)
	ctx := context.Background()

	_, err := l.Admit(ctx, "k")
	require.NoError(t, err)
	mr.FastForward(6 * time.Second)

	_, err = l.Admit(ctx, "k")
	require.NoError(t, err)
	assert.LessOrEqual(t, mr.TTL("rl:k"), 4*time.Second)
}

func TestRedisLimiter_KeysIndependent(t *testing.T) {
	l, _ := newMiniredisLimiter(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = l.Admit(ctx, "a")
	}
	d, err := l.Admit(ctx, "b")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiter_BackendError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedisLimiter(db, Config{Window: 10 * time.Second, Limit: 3, KeyPrefix: "rl:"})

	mock.ExpectEvalSha(admitScript.Hash(), []string{"rl:1.2.3.4"}, int64(10000)).
		SetErr(errors.New("connection refused"))

	_, err := l.Admit(context.Background(), "1.2.3.4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLimiter_ScriptReply(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedisLimiter(db, Config{Window: 10 * time.Second, Limit: 3, KeyPrefix: "rl:"})
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	mock.ExpectEvalSha(admitScript.Hash(), []string{"rl:k"}, int64(10000)).
		SetVal([]interface{}{int64(4), int64(2500)})

	d, err := l.Admit(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(4), d.Count)
	assert.Equal(t, fixed.Add(2500*time.Millisecond), d.ResetAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
