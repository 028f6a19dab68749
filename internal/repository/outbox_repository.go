package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
)

// OutboxRepository outbox 事件仓储接口
type OutboxRepository interface {
	// Create 写入事件，须与领域变更在同一事务中调用
	Create(ctx context.Context, event *model.OutboxEvent) error
	// FetchAndClaim 原子认领一批最老的待处理事件
	// FOR UPDATE SKIP LOCKED 保证多实例不会认领同一事件，
	// 认领即置位 processed_at，结算结果通过 blockchain_txs 追踪
	FetchAndClaim(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	CountPending(ctx context.Context) (int64, error)
	ListByAggregate(ctx context.Context, aggregate, aggregateID string) ([]*model.OutboxEvent, error)
}

type outboxRepository struct {
	*Repository
}

// NewOutboxRepository 创建 outbox 仓储
func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{Repository: NewRepository(db)}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	return r.DB(ctx).Create(event).Error
}

func (r *outboxRepository) FetchAndClaim(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	var events []*model.OutboxEvent

	err := r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		// SKIP LOCKED 跳过被其他实例锁定的行，避免等待
		var ids []int64
		err := tx.Raw(`
			SELECT id FROM outbox_events
			WHERE processed_at IS NULL
			ORDER BY created_at ASC
			LIMIT ?
			FOR UPDATE SKIP LOCKED
		`, limit).Scan(&ids).Error
		if err != nil {
			return fmt.Errorf("select pending events: %w", err)
		}

		if len(ids) == 0 {
			return nil
		}

		now := time.Now().UnixMilli()
		err = tx.Exec(`
			UPDATE outbox_events
			SET processed_at = ?
			WHERE id IN ?
		`, now, ids).Error
		if err != nil {
			return fmt.Errorf("mark events processed: %w", err)
		}

		err = tx.Where("id IN ?", ids).Order("created_at ASC").Find(&events).Error
		if err != nil {
			return fmt.Errorf("fetch claimed events: %w", err)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("fetch and claim events failed: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&model.OutboxEvent{}).
		Where("processed_at IS NULL").
		Count(&count).Error
	return count, err
}

func (r *outboxRepository) ListByAggregate(ctx context.Context, aggregate, aggregateID string) ([]*model.OutboxEvent, error) {
	var events []*model.OutboxEvent
	err := r.DB(ctx).
		Where("aggregate = ? AND aggregate_id = ?", aggregate, aggregateID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}
