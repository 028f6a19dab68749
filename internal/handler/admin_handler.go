package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/SagarBarate/CleanNFT-sub001/internal/dto"
	"github.com/SagarBarate/CleanNFT-sub001/internal/middleware"
	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
	"github.com/SagarBarate/CleanNFT-sub001/internal/service"
)

// AdminHandler 管理端处理器
type AdminHandler struct {
	adminSvc service.AdminService
	pointSvc service.PointService
	nftSvc   service.NftService
}

// NewAdminHandler 创建管理端处理器
func NewAdminHandler(
	adminSvc service.AdminService,
	pointSvc service.PointService,
	nftSvc service.NftService,
) *AdminHandler {
	return &AdminHandler{
		adminSvc: adminSvc,
		pointSvc: pointSvc,
		nftSvc:   nftSvc,
	}
}

// CreateRule 创建积分规则
// POST /api/v1/admin/point-rules
func (h *AdminHandler) CreateRule(c *gin.Context) {
	var req dto.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, dto.ErrInvalidParams.WithMessage(err.Error()))
		return
	}

	rule, err := h.pointSvc.CreateRule(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, rule)
}

// ManualAdjust 人工积分调整
// POST /api/v1/admin/points/adjust
func (h *AdminHandler) ManualAdjust(c *gin.Context) {
	var req dto.ManualAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, dto.ErrInvalidParams.WithMessage(err.Error()))
		return
	}

	if err := h.pointSvc.ManualAdjust(c.Request.Context(), middleware.GetUserID(c), &req); err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, nil)
}

// ManualClaim 管理员代用户认领 NFT
// POST /api/v1/admin/nft/claims
func (h *AdminHandler) ManualClaim(c *gin.Context) {
	var req dto.ManualClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, dto.ErrInvalidParams.WithMessage(err.Error()))
		return
	}

	resp, err := h.nftSvc.ManualClaim(c.Request.Context(), middleware.GetUserID(c), req.UserID,
		&dto.ClaimNftRequest{DefinitionCode: req.DefinitionCode})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, resp)
}

// FinalizeClaim 认领终态化: 确认或失败
// PUT /api/v1/admin/nft/claims/:id/finalize
func (h *AdminHandler) FinalizeClaim(c *gin.Context) {
	var req dto.FinalizeClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, dto.ErrInvalidParams.WithMessage(err.Error()))
		return
	}

	var status model.NftClaimStatus
	switch req.Status {
	case model.NftClaimStatusCompleted.String():
		status = model.NftClaimStatusCompleted
	case model.NftClaimStatusFailed.String():
		status = model.NftClaimStatusFailed
	}

	if err := h.nftSvc.FinalizeClaim(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), status); err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, nil)
}

// RetryTx 重试失败结算
// POST /api/v1/admin/txs/retry
func (h *AdminHandler) RetryTx(c *gin.Context) {
	var req dto.RetryTxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, dto.ErrInvalidParams.WithMessage(err.Error()))
		return
	}

	if err := h.adminSvc.RetryBlockchainTx(c.Request.Context(), middleware.GetUserID(c), req.TxID); err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, nil)
}

// ListTxs 查询某聚合的全部结算尝试
// GET /api/v1/admin/txs?related_table=nft_claims&related_id=xxx
func (h *AdminHandler) ListTxs(c *gin.Context) {
	relatedTable := c.Query("related_table")
	relatedID := c.Query("related_id")
	if relatedTable == "" || relatedID == "" {
		Error(c, dto.ErrInvalidParams.WithMessage("related_table and related_id are required"))
		return
	}

	txs, err := h.adminSvc.ListTxsByRelated(c.Request.Context(), relatedTable, relatedID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, txs)
}

// Health 系统健康报告
// GET /api/v1/admin/health
func (h *AdminHandler) Health(c *gin.Context) {
	report, err := h.adminSvc.Health(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, report)
}

// ListAuditLogs 审计日志
// GET /api/v1/admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	page := parsePagination(c)
	logs, err := h.adminSvc.ListAuditLogs(c.Request.Context(), c.Query("actor_id"), page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	SuccessPage(c, logs, page)
}
