package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBalanceCache_SetGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewBalanceCache(db, zap.NewNop(), 0)
	ctx := context.Background()

	mock.ExpectSet("cleannft:balance:user-1", "125", DefaultBalanceTTL).SetVal("OK")
	err := cache.Set(ctx, "user-1", 125)
	require.NoError(t, err)

	mock.ExpectGet("cleannft:balance:user-1").SetVal("125")
	points, hit, err := cache.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(125), points)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBalanceCache_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewBalanceCache(db, zap.NewNop(), 0)

	mock.ExpectGet("cleannft:balance:user-miss").RedisNil()

	points, hit, err := cache.Get(context.Background(), "user-miss")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(0), points)
}

func TestBalanceCache_CorruptValue(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewBalanceCache(db, zap.NewNop(), 0)

	mock.ExpectGet("cleannft:balance:user-1").SetVal("not-a-number")

	_, hit, err := cache.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestBalanceCache_Invalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewBalanceCache(client, zap.NewNop(), time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "user-1", 50))

	points, hit, err := cache.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(50), points)

	require.NoError(t, cache.Invalidate(ctx, "user-1"))

	_, hit, err = cache.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestJobLock_AcquireRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	lock1 := NewJobLock(client, zap.NewNop())
	lock2 := NewJobLock(client, zap.NewNop())

	ok, err := lock1.Acquire(ctx, "session_cleanup", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// 另一实例抢占失败
	ok, err = lock2.Acquire(ctx, "session_cleanup", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// 非持有者释放无效
	lock2.Release(ctx, "session_cleanup")
	ok, err = lock2.Acquire(ctx, "session_cleanup", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// 持有者释放后可再抢占
	lock1.Release(ctx, "session_cleanup")
	ok, err = lock2.Acquire(ctx, "session_cleanup", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
