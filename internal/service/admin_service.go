package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/SagarBarate/CleanNFT-sub001/internal/dto"
	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
	"github.com/SagarBarate/CleanNFT-sub001/internal/repository"
	"github.com/SagarBarate/CleanNFT-sub001/pkg/logger"
)

// HealthReport 系统健康报告
type HealthReport struct {
	Database        bool  `json:"database"`
	OutboxPending   int64 `json:"outbox_pending"`
	FailedTxs       int64 `json:"failed_txs"`
	ExpiredSessions int64 `json:"expired_sessions"`
	DevicesOnline   int64 `json:"devices_online"`
	DevicesOffline  int64 `json:"devices_offline"`
	DevicesError    int64 `json:"devices_error"`
	Overall         bool  `json:"overall"`
}

// AdminService 管理服务接口
type AdminService interface {
	// RetryBlockchainTx 重试失败结算: 为失败交易生成新的 outbox 事件
	// 历史失败行保留，重试产生新的交易记录
	RetryBlockchainTx(ctx context.Context, actorID string, txID int64) error

	// ListTxsByRelated 查询某聚合的全部结算尝试
	ListTxsByRelated(ctx context.Context, relatedTable, relatedID string) ([]*model.BlockchainTx, error)

	// Health 系统健康报告
	Health(ctx context.Context) (*HealthReport, error)

	// ListAuditLogs 审计日志查询
	ListAuditLogs(ctx context.Context, actorID string, page *repository.Pagination) ([]*model.AuditLog, error)
}

type adminService struct {
	txRepo      repository.TxRepository
	outboxRepo  repository.OutboxRepository
	stationRepo repository.StationRepository
	userRepo    repository.UserRepository
}

// NewAdminService 创建管理服务
func NewAdminService(
	txRepo repository.TxRepository,
	outboxRepo repository.OutboxRepository,
	stationRepo repository.StationRepository,
	userRepo repository.UserRepository,
) AdminService {
	return &adminService{
		txRepo:      txRepo,
		outboxRepo:  outboxRepo,
		stationRepo: stationRepo,
		userRepo:    userRepo,
	}
}

func (s *adminService) RetryBlockchainTx(ctx context.Context, actorID string, txID int64) error {
	err := s.retryTx(ctx, txID)

	entry := &model.AuditLog{
		ActorID:      actorID,
		Action:       model.AuditActionTxRetry,
		ResourceType: "blockchain_tx",
		ResourceID:   strconv.FormatInt(txID, 10),
		Status:       model.AuditStatusSuccess,
	}
	if err != nil {
		entry.Status = model.AuditStatusFailed
		entry.ErrorMessage = err.Error()
	}
	if aerr := s.userRepo.CreateAuditLog(ctx, entry); aerr != nil {
		logger.Error("write audit log failed", "action", entry.Action, "error", aerr)
	}

	return err
}

func (s *adminService) retryTx(ctx context.Context, txID int64) error {
	tx, err := s.txRepo.GetByID(ctx, txID)
	if err != nil {
		if errors.Is(err, repository.ErrBlockchainTxNotFound) {
			return dto.ErrTxNotFound
		}
		return err
	}

	if tx.Status != model.BlockchainTxStatusFailed {
		return dto.ErrTxNotRetryable
	}

	// 复用原事件负载，重新入队
	events, err := s.outboxRepo.ListByAggregate(ctx, tx.RelatedTable, tx.RelatedID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("no outbox event for %s/%s", tx.RelatedTable, tx.RelatedID)
	}
	origin := events[0]

	if err := s.outboxRepo.Create(ctx, &model.OutboxEvent{
		EventType:   origin.EventType,
		Aggregate:   origin.Aggregate,
		AggregateID: origin.AggregateID,
		Payload:     origin.Payload,
	}); err != nil {
		return err
	}

	logger.Info("blockchain tx retry enqueued",
		"tx_id", txID, "aggregate", origin.Aggregate, "aggregate_id", origin.AggregateID)
	return nil
}

func (s *adminService) ListTxsByRelated(ctx context.Context, relatedTable, relatedID string) ([]*model.BlockchainTx, error) {
	return s.txRepo.ListByRelated(ctx, relatedTable, relatedID)
}

// Health 数据库不可用时降级返回报告而非报错，各计数为零值
func (s *adminService) Health(ctx context.Context) (*HealthReport, error) {
	report := &HealthReport{Database: true}

	var err error
	if report.OutboxPending, err = s.outboxRepo.CountPending(ctx); err != nil {
		logger.Error("health check database ping failed", "error", err)
		report.Database = false
		return report, nil
	}
	if report.FailedTxs, err = s.txRepo.CountByStatus(ctx, model.BlockchainTxStatusFailed); err != nil {
		return nil, err
	}
	if report.ExpiredSessions, err = s.userRepo.CountExpiredSessions(ctx, nowMilli()); err != nil {
		return nil, err
	}
	if report.DevicesOnline, err = s.stationRepo.CountDevicesByStatus(ctx, model.DeviceStatusOnline); err != nil {
		return nil, err
	}
	if report.DevicesOffline, err = s.stationRepo.CountDevicesByStatus(ctx, model.DeviceStatusOffline); err != nil {
		return nil, err
	}
	if report.DevicesError, err = s.stationRepo.CountDevicesByStatus(ctx, model.DeviceStatusError); err != nil {
		return nil, err
	}
	report.Overall = report.DevicesOffline == 0 && report.DevicesError == 0 && report.FailedTxs == 0
	return report, nil
}

func (s *adminService) ListAuditLogs(ctx context.Context, actorID string, page *repository.Pagination) ([]*model.AuditLog, error) {
	return s.userRepo.ListAuditLogs(ctx, actorID, page)
}
