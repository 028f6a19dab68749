package model

// WasteSource 投递来源
type WasteSource string

const (
	WasteSourceIOT    WasteSource = "IOT"    // 硬件称重上报
	WasteSourceQR     WasteSource = "QR"     // 扫码投递
	WasteSourceManual WasteSource = "MANUAL" // 人工录入
)

// Valid 判断来源是否合法
func (s WasteSource) Valid() bool {
	switch s {
	case WasteSourceIOT, WasteSourceQR, WasteSourceManual:
		return true
	}
	return false
}

// WasteEvent 投递事件
// 创建后不可变，幂等键保证同一设备的重复提交收敛到同一行
type WasteEvent struct {
	ID             string      `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	UserID         *string     `gorm:"column:user_id;type:varchar(36);index" json:"user_id,omitempty"`
	StationID      *int64      `gorm:"column:station_id;index" json:"station_id,omitempty"`
	DeviceID       *int64      `gorm:"column:device_id;index" json:"device_id,omitempty"`
	OccurredAt     int64       `gorm:"column:occurred_at;index;not null" json:"occurred_at"`
	MaterialType   string      `gorm:"column:material_type;size:32;index;not null" json:"material_type"`
	WeightGrams    int64       `gorm:"column:weight_grams;not null" json:"weight_grams"`
	Source         WasteSource `gorm:"column:source;size:10;not null" json:"source"`
	RawPayload     string      `gorm:"column:raw_payload;type:text" json:"raw_payload,omitempty"`
	IdempotencyKey string      `gorm:"column:idempotency_key;size:32;uniqueIndex;not null" json:"-"`
	CreatedAt      int64       `gorm:"column:created_at;autoCreateTime:milli" json:"created_at"`
}

// TableName 表名
func (WasteEvent) TableName() string {
	return "waste_events"
}
