// Package service 业务逻辑层
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/SagarBarate/CleanNFT-sub001/internal/cache"
	"github.com/SagarBarate/CleanNFT-sub001/internal/config"
	"github.com/SagarBarate/CleanNFT-sub001/internal/dto"
	"github.com/SagarBarate/CleanNFT-sub001/internal/metrics"
	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
	"github.com/SagarBarate/CleanNFT-sub001/internal/repository"
	"github.com/SagarBarate/CleanNFT-sub001/pkg/logger"
	"github.com/SagarBarate/CleanNFT-sub001/pkg/nonce"
)

// MaxWeightGrams 单次投递重量上限，超过按异常拒绝
const MaxWeightGrams = 100_000

// WasteService 投递服务接口
type WasteService interface {
	// RecordEvent 记录投递事件并发放积分
	// 幂等: 命中幂等键时返回已存在事件，Duplicate=true 且不重复发放
	RecordEvent(ctx context.Context, req *dto.RecordWasteEventRequest) (*dto.RecordWasteEventResponse, error)

	// GetEvent 获取投递事件详情
	GetEvent(ctx context.Context, id string) (*model.WasteEvent, error)

	// ListUserEvents 获取用户投递记录
	ListUserEvents(ctx context.Context, userID string, tr *repository.TimeRange, page *repository.Pagination) ([]*model.WasteEvent, error)

	// ListStationEvents 按站点编码查询投递记录
	ListStationEvents(ctx context.Context, stationCode string, tr *repository.TimeRange, page *repository.Pagination) ([]*model.WasteEvent, error)

	// ListEvents 全量投递记录查询，材质和来源可筛选
	ListEvents(ctx context.Context, materialType, source string, tr *repository.TimeRange, page *repository.Pagination) ([]*model.WasteEvent, error)
}

// wasteService 投递服务实现
type wasteService struct {
	wasteRepo    repository.WasteRepository
	pointRepo    repository.PointRepository
	outboxRepo   repository.OutboxRepository
	stationRepo  repository.StationRepository
	balanceCache *cache.BalanceCache
	deriver      *nonce.Deriver
	cfg          config.WasteConfig
}

// NewWasteService 创建投递服务
func NewWasteService(
	wasteRepo repository.WasteRepository,
	pointRepo repository.PointRepository,
	outboxRepo repository.OutboxRepository,
	stationRepo repository.StationRepository,
	balanceCache *cache.BalanceCache,
	deriver *nonce.Deriver,
	cfg config.WasteConfig,
) WasteService {
	return &wasteService{
		wasteRepo:    wasteRepo,
		pointRepo:    pointRepo,
		outboxRepo:   outboxRepo,
		stationRepo:  stationRepo,
		balanceCache: balanceCache,
		deriver:      deriver,
		cfg:          cfg,
	}
}

func (s *wasteService) RecordEvent(ctx context.Context, req *dto.RecordWasteEventRequest) (*dto.RecordWasteEventResponse, error) {
	if err := s.validate(req); err != nil {
		metrics.WasteEventsTotal.WithLabelValues(req.Source, "rejected").Inc()
		return nil, err
	}

	key, err := s.deriver.Derive(req.DeviceHwID, time.UnixMilli(req.OccurredAt), req.Nonce)
	if err != nil {
		if errors.Is(err, nonce.ErrNonceRequired) {
			return nil, dto.ErrNonceRequired
		}
		return nil, err
	}

	// 设备存在性: IOT 上报必须来自登记设备，其他来源设备可选
	var device *model.Device
	device, err = s.stationRepo.GetDeviceByHardwareID(ctx, req.DeviceHwID)
	if err != nil {
		if !errors.Is(err, repository.ErrDeviceNotFound) {
			return nil, err
		}
		if req.Source == string(model.WasteSourceIOT) {
			metrics.WasteEventsTotal.WithLabelValues(req.Source, "rejected").Inc()
			return nil, dto.ErrDeviceNotFound
		}
	}

	event := s.buildEvent(req, device, key)

	resp, err := s.recordWithRetry(ctx, event)
	if err != nil {
		return nil, err
	}

	if !resp.Duplicate {
		metrics.WasteEventsTotal.WithLabelValues(req.Source, "created").Inc()
		metrics.WasteEventWeight.Observe(float64(req.WeightGrams))
	} else {
		metrics.WasteEventsTotal.WithLabelValues(req.Source, "duplicate").Inc()
	}

	// 心跳与缓存维护失败不影响主流程
	if device != nil {
		if err := s.stationRepo.TouchDevice(ctx, device.HardwareID, time.Now().UnixMilli()); err != nil {
			logger.Warn("touch device failed", "hardware_id", device.HardwareID, "error", err)
		}
	}
	if resp.PointsAwarded > 0 && event.UserID != nil {
		if err := s.balanceCache.Invalidate(ctx, *event.UserID); err != nil {
			logger.Warn("invalidate balance cache failed", "user_id", *event.UserID, "error", err)
		}
	}

	return resp, nil
}

func (s *wasteService) validate(req *dto.RecordWasteEventRequest) error {
	if !model.WasteSource(req.Source).Valid() {
		return dto.ErrInvalidSource
	}
	if req.WeightGrams <= 0 || req.WeightGrams > MaxWeightGrams {
		return dto.ErrInvalidWeight
	}
	if req.OccurredAt <= 0 || req.OccurredAt > time.Now().Add(time.Minute).UnixMilli() {
		return dto.ErrInvalidOccurTime
	}
	return nil
}

func (s *wasteService) buildEvent(req *dto.RecordWasteEventRequest, device *model.Device, key string) *model.WasteEvent {
	event := &model.WasteEvent{
		ID:             uuid.NewString(),
		OccurredAt:     req.OccurredAt,
		MaterialType:   req.MaterialType,
		WeightGrams:    req.WeightGrams,
		Source:         model.WasteSource(req.Source),
		RawPayload:     req.RawPayload,
		IdempotencyKey: key,
	}
	if req.UserID != "" {
		userID := req.UserID
		event.UserID = &userID
	}
	if device != nil {
		event.DeviceID = &device.ID
		event.StationID = &device.StationID
	}
	return event
}

// recordWithRetry 带退避的事务重试
// 第 n 次失败后等待 backoff*2^n，业务错误与 ctx 取消不重试
func (s *wasteService) recordWithRetry(ctx context.Context, event *model.WasteEvent) (*dto.RecordWasteEventResponse, error) {
	maxAttempts := s.cfg.TxMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	backoff := time.Duration(s.cfg.TxBackoffMs) * time.Millisecond
	timeout := time.Duration(s.cfg.TxTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			wait := backoff * (1 << (attempt - 1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			logger.Warn("retrying waste event transaction",
				"event_id", event.ID, "attempt", attempt, "error", lastErr)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		resp, err := s.recordOnce(attemptCtx, event)
		cancel()
		if err == nil {
			return resp, nil
		}

		var bizErr *dto.BizError
		if errors.As(err, &bizErr) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// recordOnce 单次事务: 插入事件、求值规则、写流水、增量余额、写 outbox
func (s *wasteService) recordOnce(ctx context.Context, event *model.WasteEvent) (*dto.RecordWasteEventResponse, error) {
	var resp *dto.RecordWasteEventResponse

	err := s.wasteRepo.Transaction(ctx, func(txCtx context.Context) error {
		inserted, err := s.wasteRepo.CreateIdempotent(txCtx, event)
		if err != nil {
			return err
		}

		if !inserted {
			existing, err := s.wasteRepo.GetByIdempotencyKey(txCtx, event.IdempotencyKey)
			if err != nil {
				return err
			}
			resp = &dto.RecordWasteEventResponse{Event: existing, Duplicate: true}
			return nil
		}

		awarded, err := s.awardPoints(txCtx, event)
		if err != nil {
			return err
		}

		if err := s.enqueueSettlement(txCtx, event); err != nil {
			return err
		}

		resp = &dto.RecordWasteEventResponse{Event: event, PointsAwarded: awarded}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// awardPoints 对事件逐条求值生效规则并入账
func (s *wasteService) awardPoints(ctx context.Context, event *model.WasteEvent) (int64, error) {
	if event.UserID == nil {
		return 0, nil
	}
	userID := *event.UserID

	rules, err := s.pointRepo.ListActiveRules(ctx, event.OccurredAt)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, rule := range rules {
		delta := rule.Evaluate(event.WeightGrams)

		if rule.Code == model.RuleCodeFirstDumpBonus {
			// 事务内计数已含当前事件，首投即 count == 1
			count, err := s.wasteRepo.CountByUser(ctx, userID)
			if err != nil {
				return 0, err
			}
			if count > 1 {
				continue
			}
		}

		if delta <= 0 {
			continue
		}

		inserted, err := s.pointRepo.CreateLedger(ctx, &model.PointLedger{
			UserID:      userID,
			RefTable:    model.RefTableWasteEvents,
			RefID:       event.ID,
			DeltaPoints: delta,
			ReasonCode:  rule.Code,
			OccurredAt:  event.OccurredAt,
		})
		if err != nil {
			return 0, err
		}
		if !inserted {
			// 已发放过，跳过
			continue
		}

		if err := s.pointRepo.IncrementBalance(ctx, userID, delta); err != nil {
			return 0, err
		}

		metrics.PointsAwardedTotal.WithLabelValues(rule.Code).Add(float64(delta))
		total += delta
	}
	return total, nil
}

// enqueueSettlement 事件与 outbox 同事务写入
func (s *wasteService) enqueueSettlement(ctx context.Context, event *model.WasteEvent) error {
	payload, err := json.Marshal(map[string]interface{}{
		"event_id":      event.ID,
		"material_type": event.MaterialType,
		"weight_grams":  event.WeightGrams,
		"occurred_at":   event.OccurredAt,
	})
	if err != nil {
		return err
	}

	return s.outboxRepo.Create(ctx, &model.OutboxEvent{
		EventType:   model.OutboxEventPushToIPFS,
		Aggregate:   model.AggregateWasteEvents,
		AggregateID: event.ID,
		Payload:     string(payload),
	})
}

func (s *wasteService) GetEvent(ctx context.Context, id string) (*model.WasteEvent, error) {
	event, err := s.wasteRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrWasteEventNotFound) {
		return nil, dto.ErrEventNotFound
	}
	return event, err
}

func (s *wasteService) ListUserEvents(ctx context.Context, userID string, tr *repository.TimeRange, page *repository.Pagination) ([]*model.WasteEvent, error) {
	return s.wasteRepo.ListByUser(ctx, userID, tr, page)
}

func (s *wasteService) ListStationEvents(ctx context.Context, stationCode string, tr *repository.TimeRange, page *repository.Pagination) ([]*model.WasteEvent, error) {
	station, err := s.stationRepo.GetStationByCode(ctx, stationCode)
	if errors.Is(err, repository.ErrStationNotFound) {
		return nil, dto.ErrStationNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.wasteRepo.ListByStation(ctx, station.ID, tr, page)
}

func (s *wasteService) ListEvents(ctx context.Context, materialType, source string, tr *repository.TimeRange, page *repository.Pagination) ([]*model.WasteEvent, error) {
	return s.wasteRepo.List(ctx, materialType, source, tr, page)
}
