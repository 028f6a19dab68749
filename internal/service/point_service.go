package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/SagarBarate/CleanNFT-sub001/internal/cache"
	"github.com/SagarBarate/CleanNFT-sub001/internal/dto"
	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
	"github.com/SagarBarate/CleanNFT-sub001/internal/repository"
	"github.com/SagarBarate/CleanNFT-sub001/pkg/logger"
)

// PointService 积分服务接口
type PointService interface {
	// GetBalance 查询余额，优先读缓存，未命中回源并写缓存
	GetBalance(ctx context.Context, userID string) (*dto.BalanceResponse, error)

	// ListLedger 积分流水
	ListLedger(ctx context.Context, userID string, tr *repository.TimeRange, page *repository.Pagination) ([]*model.PointLedger, error)

	// Summary 积分与投递汇总: 按事由和材质聚合，附累计收入/支出
	Summary(ctx context.Context, userID string, tr *repository.TimeRange) (*dto.PointSummaryResponse, error)

	// ManualAdjust 人工积分调整，refID 保证同一调整单只入账一次
	ManualAdjust(ctx context.Context, actorID string, req *dto.ManualAdjustRequest) error

	// CreateRule 创建积分规则
	CreateRule(ctx context.Context, req *dto.CreateRuleRequest) (*model.PointRule, error)
}

type pointService struct {
	pointRepo    repository.PointRepository
	userRepo     repository.UserRepository
	balanceCache *cache.BalanceCache
}

// NewPointService 创建积分服务
func NewPointService(
	pointRepo repository.PointRepository,
	userRepo repository.UserRepository,
	balanceCache *cache.BalanceCache,
) PointService {
	return &pointService{
		pointRepo:    pointRepo,
		userRepo:     userRepo,
		balanceCache: balanceCache,
	}
}

func (s *pointService) GetBalance(ctx context.Context, userID string) (*dto.BalanceResponse, error) {
	points, hit, err := s.balanceCache.Get(ctx, userID)
	if err != nil {
		// 缓存故障降级读库
		logger.Warn("balance cache read failed", "user_id", userID, "error", err)
	} else if hit {
		return &dto.BalanceResponse{UserID: userID, Points: points, Cached: true}, nil
	}

	balance, err := s.pointRepo.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.balanceCache.Set(ctx, userID, balance.Points); err != nil {
		logger.Warn("balance cache write failed", "user_id", userID, "error", err)
	}

	return &dto.BalanceResponse{
		UserID:    userID,
		Points:    balance.Points,
		UpdatedAt: balance.UpdatedAt,
	}, nil
}

func (s *pointService) ListLedger(ctx context.Context, userID string, tr *repository.TimeRange, page *repository.Pagination) ([]*model.PointLedger, error) {
	return s.pointRepo.ListLedger(ctx, userID, tr, page)
}

func (s *pointService) Summary(ctx context.Context, userID string, tr *repository.TimeRange) (*dto.PointSummaryResponse, error) {
	earned, spent, err := s.pointRepo.SumDeltas(ctx, userID, tr)
	if err != nil {
		return nil, err
	}
	byReason, err := s.pointRepo.SummaryByReason(ctx, userID, tr)
	if err != nil {
		return nil, err
	}
	byMaterial, err := s.pointRepo.SummaryByMaterial(ctx, userID, tr)
	if err != nil {
		return nil, err
	}
	return &dto.PointSummaryResponse{
		TotalEarned: earned,
		TotalSpent:  spent,
		ByReason:    byReason,
		ByMaterial:  byMaterial,
	}, nil
}

func (s *pointService) ManualAdjust(ctx context.Context, actorID string, req *dto.ManualAdjustRequest) error {
	if req.DeltaPoints == 0 {
		return dto.ErrInvalidAdjustment
	}

	err := s.pointRepo.Transaction(ctx, func(txCtx context.Context) error {
		inserted, err := s.pointRepo.CreateLedger(txCtx, &model.PointLedger{
			UserID:      req.UserID,
			RefTable:    model.RefTableManual,
			RefID:       req.RefID,
			DeltaPoints: req.DeltaPoints,
			ReasonCode:  req.ReasonCode,
			OccurredAt:  nowMilli(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			return dto.ErrDuplicateAward
		}
		return s.pointRepo.IncrementBalance(txCtx, req.UserID, req.DeltaPoints)
	})

	s.audit(ctx, actorID, req, err)
	if err != nil {
		return err
	}

	if cerr := s.balanceCache.Invalidate(ctx, req.UserID); cerr != nil {
		logger.Warn("invalidate balance cache failed", "user_id", req.UserID, "error", cerr)
	}
	return nil
}

// audit 审计写入失败只记日志
func (s *pointService) audit(ctx context.Context, actorID string, req *dto.ManualAdjustRequest, opErr error) {
	entry := &model.AuditLog{
		ActorID:      actorID,
		Action:       model.AuditActionPointAdjust,
		ResourceType: "user",
		ResourceID:   req.UserID,
		Description:  fmt.Sprintf("delta=%d reason=%s ref=%s", req.DeltaPoints, req.ReasonCode, req.RefID),
		Status:       model.AuditStatusSuccess,
	}
	if opErr != nil {
		entry.Status = model.AuditStatusFailed
		entry.ErrorMessage = opErr.Error()
	}
	if err := s.userRepo.CreateAuditLog(ctx, entry); err != nil {
		logger.Error("write audit log failed", "action", entry.Action, "error", err)
	}
}

func (s *pointService) CreateRule(ctx context.Context, req *dto.CreateRuleRequest) (*model.PointRule, error) {
	exprType := model.PointExprType(req.ExprType)
	if !exprType.Valid() {
		return nil, dto.ErrInvalidParams
	}

	value, err := decimal.NewFromString(req.ExprValue)
	if err != nil {
		return nil, dto.ErrInvalidParams
	}

	rule := &model.PointRule{
		Code:        req.Code,
		Description: req.Description,
		ExprType:    exprType,
		ExprValue:   value,
		ActiveFrom:  req.ActiveFrom,
		ActiveTo:    req.ActiveTo,
	}
	if err := s.pointRepo.CreateRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}
