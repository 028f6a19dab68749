package jobs

import (
	"context"
	"time"

	"github.com/SagarBarate/CleanNFT-sub001/internal/repository"
	"github.com/SagarBarate/CleanNFT-sub001/internal/scheduler"
	"github.com/SagarBarate/CleanNFT-sub001/pkg/logger"
)

// JobNameSessionCleanup 会话清理任务名
const JobNameSessionCleanup = "session-cleanup"

// SessionCleanupJob 清理过期登录会话
type SessionCleanupJob struct {
	scheduler.BaseJob
	userRepo repository.UserRepository
}

// NewSessionCleanupJob 创建会话清理任务
func NewSessionCleanupJob(userRepo repository.UserRepository, cronSpec string) *SessionCleanupJob {
	return &SessionCleanupJob{
		BaseJob:  scheduler.NewBaseJob(JobNameSessionCleanup, cronSpec, 1*time.Minute, 2*time.Minute),
		userRepo: userRepo,
	}
}

// Execute 删除已过期的会话记录
func (j *SessionCleanupJob) Execute(ctx context.Context) (*scheduler.JobResult, error) {
	deleted, err := j.userRepo.DeleteExpiredSessions(ctx, time.Now().UnixMilli())
	if err != nil {
		return nil, err
	}

	if deleted > 0 {
		logger.Info("expired sessions cleaned", "deleted", deleted)
	}
	return &scheduler.JobResult{AffectedCount: deleted}, nil
}
