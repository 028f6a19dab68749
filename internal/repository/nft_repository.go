package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
)

var (
	ErrNftDefinitionNotFound = errors.New("nft definition not found")
	ErrNftClaimNotFound      = errors.New("nft claim not found")
	ErrNoMintAvailable       = errors.New("no mint available")
	ErrClaimAlreadyFinal     = errors.New("claim already finalized")
)

// NftRepository NFT 仓储接口
type NftRepository interface {
	// 模板
	GetDefinitionByID(ctx context.Context, id int64) (*model.NftDefinition, error)
	GetDefinitionByCode(ctx context.Context, code string) (*model.NftDefinition, error)
	ListDefinitions(ctx context.Context) ([]*model.NftDefinition, error)
	CreateDefinition(ctx context.Context, def *model.NftDefinition) error

	// 铸造实例
	CreateMint(ctx context.Context, mint *model.NftMint) error
	// ClaimAvailableMint 锁定一个可认领实例
	// SKIP LOCKED 保证并发认领各取各的行，不排队等锁
	ClaimAvailableMint(ctx context.Context, definitionID int64) (*model.NftMint, error)
	UpdateMintStatus(ctx context.Context, mintID int64, status model.NftMintStatus) error
	CountAvailableMints(ctx context.Context, definitionID int64) (int64, error)

	// 认领
	CreateClaim(ctx context.Context, claim *model.NftClaim) error
	// CountClaimsByUserAndDefinition 用户在某模板下的有效认领数 (FAILED 不计)
	CountClaimsByUserAndDefinition(ctx context.Context, userID string, definitionID int64) (int64, error)
	GetClaimByID(ctx context.Context, id string) (*model.NftClaim, error)
	ListClaimsByUser(ctx context.Context, userID string, page *Pagination) ([]*model.NftClaim, error)
	// FinalizeClaim 将待确认认领置为终态，已终态的认领返回 ErrClaimAlreadyFinal
	FinalizeClaim(ctx context.Context, id string, status model.NftClaimStatus) error

	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type nftRepository struct {
	*Repository
}

// NewNftRepository 创建 NFT 仓储
func NewNftRepository(db *gorm.DB) NftRepository {
	return &nftRepository{Repository: NewRepository(db)}
}

func (r *nftRepository) GetDefinitionByID(ctx context.Context, id int64) (*model.NftDefinition, error) {
	var def model.NftDefinition
	err := r.DB(ctx).Where("id = ?", id).First(&def).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNftDefinitionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *nftRepository) GetDefinitionByCode(ctx context.Context, code string) (*model.NftDefinition, error) {
	var def model.NftDefinition
	err := r.DB(ctx).Where("code = ?", code).First(&def).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNftDefinitionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *nftRepository) ListDefinitions(ctx context.Context) ([]*model.NftDefinition, error) {
	var defs []*model.NftDefinition
	err := r.DB(ctx).Order("id ASC").Find(&defs).Error
	return defs, err
}

func (r *nftRepository) CreateDefinition(ctx context.Context, def *model.NftDefinition) error {
	return r.DB(ctx).Create(def).Error
}

func (r *nftRepository) CreateMint(ctx context.Context, mint *model.NftMint) error {
	return r.DB(ctx).Create(mint).Error
}

func (r *nftRepository) ClaimAvailableMint(ctx context.Context, definitionID int64) (*model.NftMint, error) {
	var mint model.NftMint
	err := r.DB(ctx).Raw(`
		SELECT * FROM nft_mints
		WHERE definition_id = ? AND status = ?
		ORDER BY token_id ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, definitionID, model.NftMintStatusMinted).Scan(&mint).Error
	if err != nil {
		return nil, err
	}
	if mint.ID == 0 {
		return nil, ErrNoMintAvailable
	}
	return &mint, nil
}

func (r *nftRepository) UpdateMintStatus(ctx context.Context, mintID int64, status model.NftMintStatus) error {
	return r.DB(ctx).Model(&model.NftMint{}).
		Where("id = ?", mintID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UnixMilli(),
		}).Error
}

func (r *nftRepository) CountAvailableMints(ctx context.Context, definitionID int64) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&model.NftMint{}).
		Where("definition_id = ? AND status = ?", definitionID, model.NftMintStatusMinted).
		Count(&count).Error
	return count, err
}

func (r *nftRepository) CreateClaim(ctx context.Context, claim *model.NftClaim) error {
	return r.DB(ctx).Create(claim).Error
}

func (r *nftRepository) CountClaimsByUserAndDefinition(ctx context.Context, userID string, definitionID int64) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&model.NftClaim{}).
		Where("user_id = ? AND definition_id = ? AND status <> ?", userID, definitionID, model.NftClaimStatusFailed).
		Count(&count).Error
	return count, err
}

func (r *nftRepository) GetClaimByID(ctx context.Context, id string) (*model.NftClaim, error) {
	var claim model.NftClaim
	err := r.DB(ctx).Where("id = ?", id).First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNftClaimNotFound
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *nftRepository) ListClaimsByUser(ctx context.Context, userID string, page *Pagination) ([]*model.NftClaim, error) {
	query := r.DB(ctx).Model(&model.NftClaim{}).Where("user_id = ?", userID)

	if page != nil {
		if err := query.Count(&page.Total).Error; err != nil {
			return nil, err
		}
		query = query.Offset(page.Offset()).Limit(page.Limit())
	}

	var claims []*model.NftClaim
	err := query.Order("created_at DESC").Find(&claims).Error
	return claims, err
}

func (r *nftRepository) FinalizeClaim(ctx context.Context, id string, status model.NftClaimStatus) error {
	now := time.Now().UnixMilli()
	result := r.DB(ctx).Model(&model.NftClaim{}).
		Where("id = ? AND status = ?", id, model.NftClaimStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"finalized_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 区分不存在与已终态
		var count int64
		if err := r.DB(ctx).Model(&model.NftClaim{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNftClaimNotFound
		}
		return ErrClaimAlreadyFinal
	}
	return nil
}
