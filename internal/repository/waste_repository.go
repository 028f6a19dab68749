package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
)

var ErrWasteEventNotFound = errors.New("waste event not found")

// WasteRepository 投递事件仓储接口
type WasteRepository interface {
	// CreateIdempotent 幂等创建投递事件
	// 幂等键冲突时不报错，inserted 返回 false，调用方需回查已有行
	CreateIdempotent(ctx context.Context, event *model.WasteEvent) (inserted bool, err error)
	GetByID(ctx context.Context, id string) (*model.WasteEvent, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*model.WasteEvent, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	ListByUser(ctx context.Context, userID string, tr *TimeRange, page *Pagination) ([]*model.WasteEvent, error)
	ListByStation(ctx context.Context, stationID int64, tr *TimeRange, page *Pagination) ([]*model.WasteEvent, error)
	// List 全量查询，materialType/source 为空时不过滤
	List(ctx context.Context, materialType, source string, tr *TimeRange, page *Pagination) ([]*model.WasteEvent, error)

	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type wasteRepository struct {
	*Repository
}

// NewWasteRepository 创建投递事件仓储
func NewWasteRepository(db *gorm.DB) WasteRepository {
	return &wasteRepository{Repository: NewRepository(db)}
}

func (r *wasteRepository) CreateIdempotent(ctx context.Context, event *model.WasteEvent) (bool, error) {
	result := r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *wasteRepository) GetByID(ctx context.Context, id string) (*model.WasteEvent, error) {
	var event model.WasteEvent
	err := r.DB(ctx).Where("id = ?", id).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWasteEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *wasteRepository) GetByIdempotencyKey(ctx context.Context, key string) (*model.WasteEvent, error) {
	var event model.WasteEvent
	err := r.DB(ctx).Where("idempotency_key = ?", key).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWasteEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *wasteRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&model.WasteEvent{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *wasteRepository) ListByUser(ctx context.Context, userID string, tr *TimeRange, page *Pagination) ([]*model.WasteEvent, error) {
	query := r.DB(ctx).Model(&model.WasteEvent{}).Where("user_id = ?", userID)
	query = tr.Apply(query, "occurred_at")

	if page != nil {
		if err := query.Count(&page.Total).Error; err != nil {
			return nil, err
		}
		query = query.Offset(page.Offset()).Limit(page.Limit())
	}

	var events []*model.WasteEvent
	err := query.Order("occurred_at DESC").Find(&events).Error
	return events, err
}

func (r *wasteRepository) List(ctx context.Context, materialType, source string, tr *TimeRange, page *Pagination) ([]*model.WasteEvent, error) {
	query := r.DB(ctx).Model(&model.WasteEvent{})
	if materialType != "" {
		query = query.Where("material_type = ?", materialType)
	}
	if source != "" {
		query = query.Where("source = ?", source)
	}
	query = tr.Apply(query, "occurred_at")

	if page != nil {
		if err := query.Count(&page.Total).Error; err != nil {
			return nil, err
		}
		query = query.Offset(page.Offset()).Limit(page.Limit())
	}

	var events []*model.WasteEvent
	err := query.Order("occurred_at DESC").Find(&events).Error
	return events, err
}

func (r *wasteRepository) ListByStation(ctx context.Context, stationID int64, tr *TimeRange, page *Pagination) ([]*model.WasteEvent, error) {
	query := r.DB(ctx).Model(&model.WasteEvent{}).Where("station_id = ?", stationID)
	query = tr.Apply(query, "occurred_at")

	if page != nil {
		if err := query.Count(&page.Total).Error; err != nil {
			return nil, err
		}
		query = query.Offset(page.Offset()).Limit(page.Limit())
	}

	var events []*model.WasteEvent
	err := query.Order("occurred_at DESC").Find(&events).Error
	return events, err
}
