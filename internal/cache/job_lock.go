package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyJobLock 定时任务分布式锁键格式
const KeyJobLock = "cleannft:job_lock:%s" // jobName

// 比较持有者后删除，避免释放他人的锁
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// JobLock 定时任务分布式锁
// SETNX 抢占，锁带 TTL 防止实例崩溃后永久占用
type JobLock struct {
	client redis.UniversalClient
	logger *zap.Logger
	holder string
}

// NewJobLock 创建任务锁
func NewJobLock(client redis.UniversalClient, logger *zap.Logger) *JobLock {
	return &JobLock{
		client: client,
		logger: logger.Named("job_lock"),
		holder: uuid.NewString(),
	}
}

// Acquire 尝试抢占任务锁
func (l *JobLock) Acquire(ctx context.Context, jobName string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyJobLock, jobName)
	ok, err := l.client.SetNX(ctx, key, l.holder, ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release 释放任务锁
func (l *JobLock) Release(ctx context.Context, jobName string) {
	key := fmt.Sprintf(KeyJobLock, jobName)
	if err := l.client.Eval(ctx, releaseScript, []string{key}, l.holder).Err(); err != nil && err != redis.Nil {
		l.logger.Warn("release job lock failed", zap.String("job", jobName), zap.Error(err))
	}
}
