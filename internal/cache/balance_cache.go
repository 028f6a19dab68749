// Package cache Redis 缓存层
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis 缓存键格式
const (
	KeyBalance = "cleannft:balance:%s" // userID
)

// DefaultBalanceTTL 余额缓存默认过期时间
const DefaultBalanceTTL = 60 * time.Second

// BalanceCache 积分余额缓存
// 写流水时失效，读路径回源后写入
type BalanceCache struct {
	client redis.UniversalClient
	logger *zap.Logger
	ttl    time.Duration
}

// NewBalanceCache 创建余额缓存
func NewBalanceCache(client redis.UniversalClient, logger *zap.Logger, ttl time.Duration) *BalanceCache {
	if ttl == 0 {
		ttl = DefaultBalanceTTL
	}
	return &BalanceCache{
		client: client,
		logger: logger.Named("balance_cache"),
		ttl:    ttl,
	}
}

// Get 读取缓存余额，未命中返回 (0, false, nil)
func (c *BalanceCache) Get(ctx context.Context, userID string) (int64, bool, error) {
	key := fmt.Sprintf(KeyBalance, userID)
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, false, nil
		}
		return 0, false, err
	}
	points, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// 脏数据直接丢弃
		c.logger.Warn("invalid cached balance", zap.String("user_id", userID), zap.String("value", val))
		return 0, false, nil
	}
	return points, true, nil
}

// Set 写入缓存余额
func (c *BalanceCache) Set(ctx context.Context, userID string, points int64) error {
	key := fmt.Sprintf(KeyBalance, userID)
	return c.client.Set(ctx, key, strconv.FormatInt(points, 10), c.ttl).Err()
}

// Invalidate 失效缓存余额
func (c *BalanceCache) Invalidate(ctx context.Context, userID string) error {
	key := fmt.Sprintf(KeyBalance, userID)
	return c.client.Del(ctx, key).Err()
}
