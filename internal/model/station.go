package model

// StationStatus 回收站状态
type StationStatus int8

const (
	StationStatusActive   StationStatus = 1 // 开放
	StationStatusInactive StationStatus = 2 // 停用
)

// Station 回收站点
type Station struct {
	ID        int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string        `gorm:"column:code;size:32;uniqueIndex;not null" json:"code"`
	Name      string        `gorm:"column:name;size:100" json:"name"`
	Address   string        `gorm:"column:address;size:255" json:"address"`
	Status    StationStatus `gorm:"column:status;default:1" json:"status"`
	CreatedAt int64         `gorm:"column:created_at;autoCreateTime:milli" json:"created_at"`
	UpdatedAt int64         `gorm:"column:updated_at;autoUpdateTime:milli" json:"updated_at"`
}

// TableName 表名
func (Station) TableName() string {
	return "stations"
}

// DeviceStatus 设备状态
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "ONLINE"
	DeviceStatusOffline DeviceStatus = "OFFLINE"
	DeviceStatusError   DeviceStatus = "ERROR"
)

// Device 回收站内的投递设备
type Device struct {
	ID         int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	HardwareID string       `gorm:"column:hardware_id;size:64;uniqueIndex;not null" json:"hardware_id"`
	StationID  int64        `gorm:"column:station_id;index;not null" json:"station_id"`
	Status     DeviceStatus `gorm:"column:status;size:16;index;default:OFFLINE" json:"status"`
	LastSeenAt int64        `gorm:"column:last_seen_at" json:"last_seen_at"`
	CreatedAt  int64        `gorm:"column:created_at;autoCreateTime:milli" json:"created_at"`
	UpdatedAt  int64        `gorm:"column:updated_at;autoUpdateTime:milli" json:"updated_at"`
}

// TableName 表名
func (Device) TableName() string {
	return "devices"
}
