package scheduler

import (
	"context"
	"time"
)

// Job 定时任务接口
type Job interface {
	// Name 任务名称
	Name() string
	// Cron 调度表达式 (支持秒字段)
	Cron() string
	// Execute 执行任务
	Execute(ctx context.Context) (*JobResult, error)
	// Timeout 任务超时时间
	Timeout() time.Duration
	// LockTTL 分布式锁 TTL
	LockTTL() time.Duration
	// RequiresLock 是否需要分布式锁
	RequiresLock() bool
}

// JobResult 任务执行结果
type JobResult struct {
	// ProcessedCount 处理的记录数
	ProcessedCount int
	// AffectedCount 影响的记录数
	AffectedCount int64
}

// BaseJob 基础任务实现
type BaseJob struct {
	name    string
	cron    string
	timeout time.Duration
	lockTTL time.Duration
}

// NewBaseJob 创建基础任务
func NewBaseJob(name, cron string, timeout, lockTTL time.Duration) BaseJob {
	return BaseJob{
		name:    name,
		cron:    cron,
		timeout: timeout,
		lockTTL: lockTTL,
	}
}

// Name 任务名称
func (j BaseJob) Name() string {
	return j.name
}

// Cron 调度表达式
func (j BaseJob) Cron() string {
	return j.cron
}

// Timeout 任务超时时间
func (j BaseJob) Timeout() time.Duration {
	return j.timeout
}

// LockTTL 分布式锁 TTL
func (j BaseJob) LockTTL() time.Duration {
	return j.lockTTL
}

// RequiresLock 是否需要分布式锁
func (j BaseJob) RequiresLock() bool {
	return j.lockTTL > 0
}
