package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/SagarBarate/CleanNFT-sub001/internal/dto"
	"github.com/SagarBarate/CleanNFT-sub001/internal/middleware"
	"github.com/SagarBarate/CleanNFT-sub001/internal/service"
)

// WasteHandler 投递事件处理器
type WasteHandler struct {
	svc service.WasteService
}

// NewWasteHandler 创建投递事件处理器
func NewWasteHandler(svc service.WasteService) *WasteHandler {
	return &WasteHandler{svc: svc}
}

// RecordEvent 上报投递事件
// POST /api/v1/waste/events
// 归属用户只认会话身份: 匿名上报只建事件不计分，冒用他人 user_id 拒绝
func (h *WasteHandler) RecordEvent(c *gin.Context) {
	var req dto.RecordWasteEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, dto.ErrInvalidParams.WithMessage(err.Error()))
		return
	}

	if authedID := middleware.GetUserID(c); authedID != "" {
		if req.UserID != "" && req.UserID != authedID {
			Error(c, dto.ErrForbidden)
			return
		}
		req.UserID = authedID
	} else {
		req.UserID = ""
	}

	resp, err := h.svc.RecordEvent(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, resp)
}

// GetEvent 投递事件详情
// GET /api/v1/waste/events/:id
func (h *WasteHandler) GetEvent(c *gin.Context) {
	event, err := h.svc.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, event)
}

// ListMyEvents 当前用户投递记录
// GET /api/v1/waste/events
func (h *WasteHandler) ListMyEvents(c *gin.Context) {
	page := parsePagination(c)
	events, err := h.svc.ListUserEvents(c.Request.Context(), middleware.GetUserID(c), parseTimeRange(c), page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	SuccessPage(c, events, page)
}

// ListEvents 全量投递记录
// GET /api/v1/admin/waste-events?material_type=PET&source=IOT
func (h *WasteHandler) ListEvents(c *gin.Context) {
	page := parsePagination(c)
	events, err := h.svc.ListEvents(c.Request.Context(),
		c.Query("material_type"), c.Query("source"), parseTimeRange(c), page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	SuccessPage(c, events, page)
}

// ListStationEvents 站点投递记录
// GET /api/v1/admin/stations/:code/waste-events
func (h *WasteHandler) ListStationEvents(c *gin.Context) {
	page := parsePagination(c)
	events, err := h.svc.ListStationEvents(c.Request.Context(), c.Param("code"), parseTimeRange(c), page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	SuccessPage(c, events, page)
}
