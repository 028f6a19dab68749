package dto

import "github.com/SagarBarate/CleanNFT-sub001/internal/model"

// ClaimNftRequest NFT 认领请求
type ClaimNftRequest struct {
	DefinitionCode string `json:"definition_code" binding:"required"`
}

// ClaimNftResponse NFT 认领响应
type ClaimNftResponse struct {
	Claim   *model.NftClaim `json:"claim"`
	TokenID int64           `json:"token_id"`
}

// ManualClaimRequest 管理员代用户认领请求
type ManualClaimRequest struct {
	UserID         string `json:"user_id" binding:"required"`
	DefinitionCode string `json:"definition_code" binding:"required"`
}

// FinalizeClaimRequest 认领终态化请求
type FinalizeClaimRequest struct {
	Status string `json:"status" binding:"required,oneof=COMPLETED FAILED"`
}

// RetryTxRequest 结算重试请求
type RetryTxRequest struct {
	TxID int64 `json:"tx_id" binding:"required"`
}
