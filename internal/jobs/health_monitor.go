package jobs

import (
	"context"
	"time"

	"github.com/SagarBarate/CleanNFT-sub001/internal/metrics"
	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
	"github.com/SagarBarate/CleanNFT-sub001/internal/repository"
	"github.com/SagarBarate/CleanNFT-sub001/internal/scheduler"
	"github.com/SagarBarate/CleanNFT-sub001/pkg/logger"
)

// JobNameHealthMonitor 设备健康巡检任务名
const JobNameHealthMonitor = "health-monitor"

// errorAfterFactor 离线持续超过阈值倍数后升级为故障态
const errorAfterFactor = 4

// HealthMonitorJob 设备健康巡检
// 心跳静默超过阈值的在线设备批量置为离线，长期离线升级为故障，并刷新设备状态计数指标
type HealthMonitorJob struct {
	scheduler.BaseJob
	stationRepo  repository.StationRepository
	offlineAfter time.Duration
}

// NewHealthMonitorJob 创建设备健康巡检任务
func NewHealthMonitorJob(
	stationRepo repository.StationRepository,
	cronSpec string,
	offlineAfterMin int,
) *HealthMonitorJob {
	if offlineAfterMin <= 0 {
		offlineAfterMin = 15
	}
	return &HealthMonitorJob{
		// 巡检只做一条批量 UPDATE，幂等，无需跨实例互斥
		BaseJob:      scheduler.NewBaseJob(JobNameHealthMonitor, cronSpec, 10*time.Second, 0),
		stationRepo:  stationRepo,
		offlineAfter: time.Duration(offlineAfterMin) * time.Minute,
	}
}

// Execute 巡检设备心跳
func (j *HealthMonitorJob) Execute(ctx context.Context) (*scheduler.JobResult, error) {
	deadline := time.Now().Add(-j.offlineAfter).UnixMilli()

	marked, err := j.stationRepo.MarkStaleDevicesOffline(ctx, deadline)
	if err != nil {
		return nil, err
	}
	if marked > 0 {
		logger.Warn("stale devices marked offline",
			"count", marked, "silence_threshold", j.offlineAfter)
	}

	errorDeadline := time.Now().Add(-errorAfterFactor * j.offlineAfter).UnixMilli()
	escalated, err := j.stationRepo.MarkStaleDevicesError(ctx, errorDeadline)
	if err != nil {
		return nil, err
	}
	if escalated > 0 {
		logger.Error("stale devices escalated to error",
			"count", escalated, "silence_threshold", errorAfterFactor*j.offlineAfter)
	}
	marked += escalated

	for _, status := range []model.DeviceStatus{model.DeviceStatusOnline, model.DeviceStatusOffline, model.DeviceStatusError} {
		count, err := j.stationRepo.CountDevicesByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		metrics.DevicesGauge.WithLabelValues(string(status)).Set(float64(count))
	}

	return &scheduler.JobResult{AffectedCount: marked}, nil
}
