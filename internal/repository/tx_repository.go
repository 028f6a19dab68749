package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
)

var ErrBlockchainTxNotFound = errors.New("blockchain tx not found")

// TxRepository 结算交易仓储接口
// 结算记录只追加，重试产生新行
type TxRepository interface {
	Create(ctx context.Context, tx *model.BlockchainTx) error
	GetByID(ctx context.Context, id int64) (*model.BlockchainTx, error)
	ListByRelated(ctx context.Context, relatedTable, relatedID string) ([]*model.BlockchainTx, error)
	ListByStatus(ctx context.Context, status model.BlockchainTxStatus, page *Pagination) ([]*model.BlockchainTx, error)
	CountByStatus(ctx context.Context, status model.BlockchainTxStatus) (int64, error)
}

type txRepository struct {
	*Repository
}

// NewTxRepository 创建结算交易仓储
func NewTxRepository(db *gorm.DB) TxRepository {
	return &txRepository{Repository: NewRepository(db)}
}

func (r *txRepository) Create(ctx context.Context, tx *model.BlockchainTx) error {
	return r.DB(ctx).Create(tx).Error
}

func (r *txRepository) GetByID(ctx context.Context, id int64) (*model.BlockchainTx, error) {
	var tx model.BlockchainTx
	err := r.DB(ctx).Where("id = ?", id).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBlockchainTxNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *txRepository) ListByRelated(ctx context.Context, relatedTable, relatedID string) ([]*model.BlockchainTx, error) {
	var txs []*model.BlockchainTx
	err := r.DB(ctx).
		Where("related_table = ? AND related_id = ?", relatedTable, relatedID).
		Order("id ASC").
		Find(&txs).Error
	return txs, err
}

func (r *txRepository) ListByStatus(ctx context.Context, status model.BlockchainTxStatus, page *Pagination) ([]*model.BlockchainTx, error) {
	query := r.DB(ctx).Model(&model.BlockchainTx{}).Where("status = ?", status)

	if page != nil {
		if err := query.Count(&page.Total).Error; err != nil {
			return nil, err
		}
		query = query.Offset(page.Offset()).Limit(page.Limit())
	}

	var txs []*model.BlockchainTx
	err := query.Order("id DESC").Find(&txs).Error
	return txs, err
}

func (r *txRepository) CountByStatus(ctx context.Context, status model.BlockchainTxStatus) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&model.BlockchainTx{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
