package dto

import "github.com/SagarBarate/CleanNFT-sub001/internal/repository"

// PointSummaryResponse 积分汇总响应
type PointSummaryResponse struct {
	TotalEarned int64                         `json:"total_earned"`
	TotalSpent  int64                         `json:"total_spent"`
	ByReason    []*repository.ReasonSummary   `json:"by_reason"`
	ByMaterial  []*repository.MaterialSummary `json:"by_material"`
}

// BalanceResponse 积分余额响应
type BalanceResponse struct {
	UserID    string `json:"user_id"`
	Points    int64  `json:"points"`
	UpdatedAt int64  `json:"updated_at"`
	Cached    bool   `json:"cached"`
}

// ManualAdjustRequest 人工积分调整请求
type ManualAdjustRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	DeltaPoints int64  `json:"delta_points" binding:"required"`
	ReasonCode  string `json:"reason_code" binding:"required"`
	RefID       string `json:"ref_id" binding:"required"` // 调整单号，保证幂等
}

// CreateRuleRequest 创建积分规则请求
type CreateRuleRequest struct {
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
	ExprType    string `json:"expr_type" binding:"required"`
	ExprValue   string `json:"expr_value" binding:"required"`
	ActiveFrom  int64  `json:"active_from" binding:"required"`
	ActiveTo    *int64 `json:"active_to"`
}
