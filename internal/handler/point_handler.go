package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/SagarBarate/CleanNFT-sub001/internal/middleware"
	"github.com/SagarBarate/CleanNFT-sub001/internal/service"
)

// PointHandler 积分处理器
type PointHandler struct {
	svc service.PointService
}

// NewPointHandler 创建积分处理器
func NewPointHandler(svc service.PointService) *PointHandler {
	return &PointHandler{svc: svc}
}

// GetMyBalance 当前用户积分余额
// GET /api/v1/points/balance
func (h *PointHandler) GetMyBalance(c *gin.Context) {
	resp, err := h.svc.GetBalance(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, resp)
}

// ListMyLedger 当前用户积分流水
// GET /api/v1/points/ledger
func (h *PointHandler) ListMyLedger(c *gin.Context) {
	page := parsePagination(c)
	entries, err := h.svc.ListLedger(c.Request.Context(), middleware.GetUserID(c), parseTimeRange(c), page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	SuccessPage(c, entries, page)
}

// GetMySummary 当前用户按材质的投递汇总
// GET /api/v1/points/summary
func (h *PointHandler) GetMySummary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context(), middleware.GetUserID(c), parseTimeRange(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, summary)
}
