package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/SagarBarate/CleanNFT-sub001/internal/dto"
	"github.com/SagarBarate/CleanNFT-sub001/internal/metrics"
	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
	"github.com/SagarBarate/CleanNFT-sub001/internal/repository"
	"github.com/SagarBarate/CleanNFT-sub001/pkg/logger"
)

// 认领类型
const (
	ClaimTypeUser   = "USER"
	ClaimTypeManual = "MANUAL"
)

// ActorSystem 非人工触发操作的审计主体
const ActorSystem = "system"

// NftService NFT 服务接口
type NftService interface {
	// ListDefinitions NFT 模板列表
	ListDefinitions(ctx context.Context) ([]*model.NftDefinition, error)

	// Claim 认领一个可用铸造实例
	// 实例被锁定后立即转移，链上确认失败时释放回池
	Claim(ctx context.Context, userID string, req *dto.ClaimNftRequest) (*dto.ClaimNftResponse, error)

	// ManualClaim 管理员代用户认领，写审计
	ManualClaim(ctx context.Context, actorID, userID string, req *dto.ClaimNftRequest) (*dto.ClaimNftResponse, error)

	// FinalizeClaim 结算回调: 将待确认认领置为终态，记录操作主体
	// 失败时铸造实例释放回可认领池
	FinalizeClaim(ctx context.Context, actorID, claimID string, status model.NftClaimStatus) error

	// GetClaim 认领详情
	GetClaim(ctx context.Context, id string) (*model.NftClaim, error)

	// ListUserClaims 用户认领列表
	ListUserClaims(ctx context.Context, userID string, page *repository.Pagination) ([]*model.NftClaim, error)
}

type nftService struct {
	nftRepo    repository.NftRepository
	outboxRepo repository.OutboxRepository
	userRepo   repository.UserRepository
}

// NewNftService 创建 NFT 服务
func NewNftService(
	nftRepo repository.NftRepository,
	outboxRepo repository.OutboxRepository,
	userRepo repository.UserRepository,
) NftService {
	return &nftService{
		nftRepo:    nftRepo,
		outboxRepo: outboxRepo,
		userRepo:   userRepo,
	}
}

func (s *nftService) ListDefinitions(ctx context.Context) ([]*model.NftDefinition, error) {
	return s.nftRepo.ListDefinitions(ctx)
}

func (s *nftService) Claim(ctx context.Context, userID string, req *dto.ClaimNftRequest) (*dto.ClaimNftResponse, error) {
	return s.claim(ctx, userID, req.DefinitionCode, ClaimTypeUser)
}

func (s *nftService) ManualClaim(ctx context.Context, actorID, userID string, req *dto.ClaimNftRequest) (*dto.ClaimNftResponse, error) {
	resp, err := s.claim(ctx, userID, req.DefinitionCode, ClaimTypeManual)

	entry := &model.AuditLog{
		ActorID:      actorID,
		Action:       model.AuditActionManualClaim,
		ResourceType: "nft_definition",
		ResourceID:   req.DefinitionCode,
		Description:  fmt.Sprintf("user=%s", userID),
		Status:       model.AuditStatusSuccess,
	}
	if err != nil {
		entry.Status = model.AuditStatusFailed
		entry.ErrorMessage = err.Error()
	}
	if aerr := s.userRepo.CreateAuditLog(ctx, entry); aerr != nil {
		logger.Error("write audit log failed", "action", entry.Action, "error", aerr)
	}

	return resp, err
}

// claim 认领事务: 锁定实例、转移、建认领单、写 outbox
func (s *nftService) claim(ctx context.Context, userID, definitionCode, claimType string) (*dto.ClaimNftResponse, error) {
	def, err := s.nftRepo.GetDefinitionByCode(ctx, definitionCode)
	if err != nil {
		if errors.Is(err, repository.ErrNftDefinitionNotFound) {
			return nil, dto.ErrDefinitionNotFound
		}
		return nil, err
	}

	var resp *dto.ClaimNftResponse
	err = s.nftRepo.Transaction(ctx, func(txCtx context.Context) error {
		// 同一模板每用户只认领一次，失败的认领不占名额
		held, err := s.nftRepo.CountClaimsByUserAndDefinition(txCtx, userID, def.ID)
		if err != nil {
			return err
		}
		if held > 0 {
			return dto.ErrAlreadyClaimed
		}

		mint, err := s.nftRepo.ClaimAvailableMint(txCtx, def.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNoMintAvailable) {
				return dto.ErrNoMintAvailable
			}
			return err
		}

		if err := s.nftRepo.UpdateMintStatus(txCtx, mint.ID, model.NftMintStatusTransferred); err != nil {
			return err
		}

		claim := &model.NftClaim{
			ID:           uuid.NewString(),
			UserID:       userID,
			MintID:       mint.ID,
			DefinitionID: def.ID,
			ClaimType:    claimType,
			Status:       model.NftClaimStatusPending,
		}
		if err := s.nftRepo.CreateClaim(txCtx, claim); err != nil {
			return err
		}

		payload, err := json.Marshal(map[string]interface{}{
			"claim_id": claim.ID,
			"user_id":  userID,
			"token_id": mint.TokenID,
		})
		if err != nil {
			return err
		}
		if err := s.outboxRepo.Create(txCtx, &model.OutboxEvent{
			EventType:   model.OutboxEventSendToChain,
			Aggregate:   model.AggregateNftClaims,
			AggregateID: claim.ID,
			Payload:     string(payload),
		}); err != nil {
			return err
		}

		resp = &dto.ClaimNftResponse{Claim: claim, TokenID: mint.TokenID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.NftClaimsTotal.WithLabelValues(model.NftClaimStatusPending.String()).Inc()
	logger.Info("nft claim created",
		"claim_id", resp.Claim.ID, "user_id", userID, "definition", definitionCode, "token_id", resp.TokenID)
	return resp, nil
}

func (s *nftService) FinalizeClaim(ctx context.Context, actorID, claimID string, status model.NftClaimStatus) error {
	if !status.IsTerminal() {
		return dto.ErrInvalidParams
	}

	claim, err := s.nftRepo.GetClaimByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, repository.ErrNftClaimNotFound) {
			return dto.ErrClaimNotFound
		}
		return err
	}

	err = s.nftRepo.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.nftRepo.FinalizeClaim(txCtx, claimID, status); err != nil {
			return err
		}
		if status == model.NftClaimStatusFailed {
			// 失败释放实例回池
			return s.nftRepo.UpdateMintStatus(txCtx, claim.MintID, model.NftMintStatusMinted)
		}
		return nil
	})

	entry := &model.AuditLog{
		ActorID:      actorID,
		Action:       model.AuditActionClaimFinalize,
		ResourceType: "nft_claim",
		ResourceID:   claimID,
		Description:  fmt.Sprintf("status=%s", status),
		Status:       model.AuditStatusSuccess,
	}
	if err != nil {
		entry.Status = model.AuditStatusFailed
		entry.ErrorMessage = err.Error()
	}
	if aerr := s.userRepo.CreateAuditLog(ctx, entry); aerr != nil {
		logger.Error("write audit log failed", "action", entry.Action, "error", aerr)
	}

	if err != nil {
		if errors.Is(err, repository.ErrClaimAlreadyFinal) {
			return dto.ErrClaimAlreadyFinal
		}
		return err
	}

	metrics.NftClaimsTotal.WithLabelValues(status.String()).Inc()
	return nil
}

func (s *nftService) GetClaim(ctx context.Context, id string) (*model.NftClaim, error) {
	claim, err := s.nftRepo.GetClaimByID(ctx, id)
	if errors.Is(err, repository.ErrNftClaimNotFound) {
		return nil, dto.ErrClaimNotFound
	}
	return claim, err
}

func (s *nftService) ListUserClaims(ctx context.Context, userID string, page *repository.Pagination) ([]*model.NftClaim, error) {
	return s.nftRepo.ListClaimsByUser(ctx, userID, page)
}
