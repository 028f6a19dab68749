package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/SagarBarate/CleanNFT-sub001/internal/dto"
	"github.com/SagarBarate/CleanNFT-sub001/internal/middleware"
	"github.com/SagarBarate/CleanNFT-sub001/internal/service"
)

// NftHandler NFT 处理器
type NftHandler struct {
	svc service.NftService
}

// NewNftHandler 创建 NFT 处理器
func NewNftHandler(svc service.NftService) *NftHandler {
	return &NftHandler{svc: svc}
}

// ListDefinitions NFT 模板列表
// GET /api/v1/nft/definitions
func (h *NftHandler) ListDefinitions(c *gin.Context) {
	defs, err := h.svc.ListDefinitions(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, defs)
}

// Claim 认领 NFT
// POST /api/v1/nft/claims
func (h *NftHandler) Claim(c *gin.Context) {
	var req dto.ClaimNftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, dto.ErrInvalidParams.WithMessage(err.Error()))
		return
	}

	resp, err := h.svc.Claim(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, resp)
}

// GetClaim 认领详情
// GET /api/v1/nft/claims/:id
func (h *NftHandler) GetClaim(c *gin.Context) {
	claim, err := h.svc.GetClaim(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, claim)
}

// ListMyClaims 当前用户认领列表
// GET /api/v1/nft/claims
func (h *NftHandler) ListMyClaims(c *gin.Context) {
	page := parsePagination(c)
	claims, err := h.svc.ListUserClaims(c.Request.Context(), middleware.GetUserID(c), page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	SuccessPage(c, claims, page)
}
