package dto

import "github.com/SagarBarate/CleanNFT-sub001/internal/model"

// RecordWasteEventRequest 投递事件上报请求
type RecordWasteEventRequest struct {
	DeviceHwID   string `json:"device_hw_id" binding:"required"`
	UserID       string `json:"user_id"`
	OccurredAt   int64  `json:"occurred_at" binding:"required"` // 毫秒时间戳
	MaterialType string `json:"material_type" binding:"required"`
	WeightGrams  int64  `json:"weight_grams" binding:"required"`
	Source       string `json:"source" binding:"required"`
	Nonce        string `json:"nonce"`
	RawPayload   string `json:"raw_payload"`
}

// RecordWasteEventResponse 投递事件上报响应
// Duplicate 表示命中幂等键，返回的是已存在的事件，PointsAwarded 为 0
type RecordWasteEventResponse struct {
	Event         *model.WasteEvent `json:"event"`
	PointsAwarded int64             `json:"points_awarded"`
	Duplicate     bool              `json:"duplicate"`
}

// ListWasteEventsRequest 投递事件列表查询
type ListWasteEventsRequest struct {
	StartTime int64 `form:"start_time"`
	EndTime   int64 `form:"end_time"`
	Page      int   `form:"page"`
	PageSize  int   `form:"page_size"`
}

// PageResult 分页结果
type PageResult struct {
	List     interface{} `json:"list"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}
