// Package scheduler 提供基于 cron 的定时任务调度
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/SagarBarate/CleanNFT-sub001/internal/cache"
	"github.com/SagarBarate/CleanNFT-sub001/internal/metrics"
	"github.com/SagarBarate/CleanNFT-sub001/pkg/logger"
)

// 执行结果标签
const (
	resultSuccess = "success"
	resultFailed  = "failed"
	resultSkipped = "skipped"
)

// Scheduler 任务调度器
// 多实例部署时互斥任务靠 Redis 锁去重，同名任务同一时刻只跑一个实例
type Scheduler struct {
	cron    *cron.Cron
	jobLock *cache.JobLock
	jobs    map[string]Job
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler 创建调度器
func NewScheduler(jobLock *cache.JobLock) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()), // 支持秒级调度
		jobLock: jobLock,
		jobs:    make(map[string]Job),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// RegisterJob 注册任务
func (s *Scheduler) RegisterJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name()]; exists {
		return fmt.Errorf("job %s already registered", job.Name())
	}
	s.jobs[job.Name()] = job

	_, err := s.cron.AddFunc(job.Cron(), func() {
		s.executeJob(job)
	})
	if err != nil {
		delete(s.jobs, job.Name())
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	logger.Info("job registered", "job", job.Name(), "cron", job.Cron())
	return nil
}

// Start 启动调度器
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("scheduler started", "jobs", len(s.jobs))
}

// Stop 停止调度器，等待在途任务结束
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("scheduler stopped")
}

// TriggerJob 手动触发任务
func (s *Scheduler) TriggerJob(jobName string) error {
	s.mu.RLock()
	job, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", jobName)
	}
	go s.executeJob(job)
	return nil
}

// executeJob 执行任务
func (s *Scheduler) executeJob(job Job) {
	select {
	case <-s.ctx.Done():
		return
	default:
	}

	ctx, cancel := context.WithTimeout(s.ctx, job.Timeout())
	defer cancel()

	if job.RequiresLock() {
		acquired, err := s.jobLock.Acquire(ctx, job.Name(), job.LockTTL())
		if err != nil {
			logger.Error("acquire job lock failed", "job", job.Name(), "error", err)
			metrics.JobRunsTotal.WithLabelValues(job.Name(), resultFailed).Inc()
			return
		}
		if !acquired {
			logger.Debug("job is running on another instance", "job", job.Name())
			metrics.JobRunsTotal.WithLabelValues(job.Name(), resultSkipped).Inc()
			return
		}
		defer s.jobLock.Release(context.Background(), job.Name())
	}

	start := time.Now()
	logger.Info("starting job", "job", job.Name())

	result, err := job.Execute(ctx)
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues(job.Name(), resultFailed).Inc()
		logger.Error("job failed",
			"job", job.Name(), "duration", time.Since(start), "error", err)
		return
	}

	metrics.JobRunsTotal.WithLabelValues(job.Name(), resultSuccess).Inc()
	if result != nil {
		logger.Info("job completed",
			"job", job.Name(),
			"duration", time.Since(start),
			"processed", result.ProcessedCount,
			"affected", result.AffectedCount)
	} else {
		logger.Info("job completed", "job", job.Name(), "duration", time.Since(start))
	}
}
