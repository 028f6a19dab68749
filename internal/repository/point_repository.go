package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
)

var ErrPointRuleNotFound = errors.New("point rule not found")

// MaterialSummary 按材质聚合的投递汇总
type MaterialSummary struct {
	MaterialType string `json:"material_type"`
	EventCount   int64  `json:"event_count"`
	TotalGrams   int64  `json:"total_grams"`
}

// ReasonSummary 按积分事由聚合的流水汇总
type ReasonSummary struct {
	ReasonCode  string `json:"reason_code"`
	EntryCount  int64  `json:"entry_count"`
	TotalPoints int64  `json:"total_points"`
}

// PointRepository 积分仓储接口
type PointRepository interface {
	// 规则
	ListActiveRules(ctx context.Context, atMilli int64) ([]*model.PointRule, error)
	GetRuleByCode(ctx context.Context, code string) (*model.PointRule, error)
	CreateRule(ctx context.Context, rule *model.PointRule) error

	// 流水与余额
	// CreateLedger 写入流水，(ref_table, ref_id, reason_code) 冲突视为已发放
	CreateLedger(ctx context.Context, entry *model.PointLedger) (inserted bool, err error)
	// IncrementBalance 原子增量余额，行不存在则先建零余额行
	IncrementBalance(ctx context.Context, userID string, delta int64) error
	GetBalance(ctx context.Context, userID string) (*model.PointBalance, error)
	ListLedger(ctx context.Context, userID string, tr *TimeRange, page *Pagination) ([]*model.PointLedger, error)
	SummaryByMaterial(ctx context.Context, userID string, tr *TimeRange) ([]*MaterialSummary, error)
	SummaryByReason(ctx context.Context, userID string, tr *TimeRange) ([]*ReasonSummary, error)
	// SumDeltas 正负流水分别求和，spent 返回绝对值
	SumDeltas(ctx context.Context, userID string, tr *TimeRange) (earned, spent int64, err error)

	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type pointRepository struct {
	*Repository
}

// NewPointRepository 创建积分仓储
func NewPointRepository(db *gorm.DB) PointRepository {
	return &pointRepository{Repository: NewRepository(db)}
}

func (r *pointRepository) ListActiveRules(ctx context.Context, atMilli int64) ([]*model.PointRule, error) {
	var rules []*model.PointRule
	err := r.DB(ctx).
		Where("active_from <= ?", atMilli).
		Where("active_to IS NULL OR active_to >= ?", atMilli).
		Order("active_from ASC, id ASC").
		Find(&rules).Error
	return rules, err
}

func (r *pointRepository) GetRuleByCode(ctx context.Context, code string) (*model.PointRule, error) {
	var rule model.PointRule
	err := r.DB(ctx).Where("code = ?", code).First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPointRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *pointRepository) CreateRule(ctx context.Context, rule *model.PointRule) error {
	return r.DB(ctx).Create(rule).Error
}

func (r *pointRepository) CreateLedger(ctx context.Context, entry *model.PointLedger) (bool, error) {
	result := r.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "ref_table"}, {Name: "ref_id"}, {Name: "reason_code"},
		},
		DoNothing: true,
	}).Create(entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *pointRepository) IncrementBalance(ctx context.Context, userID string, delta int64) error {
	now := time.Now().UnixMilli()
	// 先保证余额行存在，再原子增量，与流水写入共用同一事务上下文
	err := r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.PointBalance{UserID: userID, Points: 0, UpdatedAt: now}).Error
	if err != nil {
		return err
	}

	return r.DB(ctx).Exec(`
		UPDATE point_balances
		SET points = points + ?, updated_at = ?
		WHERE user_id = ?
	`, delta, now, userID).Error
}

func (r *pointRepository) GetBalance(ctx context.Context, userID string) (*model.PointBalance, error) {
	var balance model.PointBalance
	err := r.DB(ctx).Where("user_id = ?", userID).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.PointBalance{UserID: userID, Points: 0}, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *pointRepository) ListLedger(ctx context.Context, userID string, tr *TimeRange, page *Pagination) ([]*model.PointLedger, error) {
	query := r.DB(ctx).Model(&model.PointLedger{}).Where("user_id = ?", userID)
	query = tr.Apply(query, "occurred_at")

	if page != nil {
		if err := query.Count(&page.Total).Error; err != nil {
			return nil, err
		}
		query = query.Offset(page.Offset()).Limit(page.Limit())
	}

	var entries []*model.PointLedger
	err := query.Order("occurred_at DESC").Find(&entries).Error
	return entries, err
}

func (r *pointRepository) SummaryByMaterial(ctx context.Context, userID string, tr *TimeRange) ([]*MaterialSummary, error) {
	query := r.DB(ctx).Model(&model.WasteEvent{}).
		Select("material_type, COUNT(*) AS event_count, COALESCE(SUM(weight_grams), 0) AS total_grams").
		Where("user_id = ?", userID)
	query = tr.Apply(query, "occurred_at")

	var rows []*MaterialSummary
	err := query.Group("material_type").Order("material_type ASC").Scan(&rows).Error
	return rows, err
}

func (r *pointRepository) SummaryByReason(ctx context.Context, userID string, tr *TimeRange) ([]*ReasonSummary, error) {
	query := r.DB(ctx).Model(&model.PointLedger{}).
		Select("reason_code, COUNT(*) AS entry_count, COALESCE(SUM(delta_points), 0) AS total_points").
		Where("user_id = ?", userID)
	query = tr.Apply(query, "occurred_at")

	var rows []*ReasonSummary
	err := query.Group("reason_code").Order("reason_code ASC").Scan(&rows).Error
	return rows, err
}

func (r *pointRepository) SumDeltas(ctx context.Context, userID string, tr *TimeRange) (int64, int64, error) {
	var row struct {
		Earned int64
		Spent  int64
	}
	query := r.DB(ctx).Model(&model.PointLedger{}).
		Select(`
			COALESCE(SUM(CASE WHEN delta_points > 0 THEN delta_points ELSE 0 END), 0) AS earned,
			COALESCE(SUM(CASE WHEN delta_points < 0 THEN -delta_points ELSE 0 END), 0) AS spent
		`).
		Where("user_id = ?", userID)
	query = tr.Apply(query, "occurred_at")

	if err := query.Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.Earned, row.Spent, nil
}
