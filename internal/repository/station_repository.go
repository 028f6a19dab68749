package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
)

var (
	ErrStationNotFound = errors.New("station not found")
	ErrDeviceNotFound  = errors.New("device not found")
)

// StationRepository 站点与设备仓储接口
type StationRepository interface {
	GetStationByID(ctx context.Context, id int64) (*model.Station, error)
	GetStationByCode(ctx context.Context, code string) (*model.Station, error)
	ListStations(ctx context.Context, page *Pagination) ([]*model.Station, error)
	CreateStation(ctx context.Context, station *model.Station) error

	GetDeviceByHardwareID(ctx context.Context, hwID string) (*model.Device, error)
	ListDevicesByStation(ctx context.Context, stationID int64) ([]*model.Device, error)
	CreateDevice(ctx context.Context, device *model.Device) error
	// TouchDevice 刷新设备心跳并置为在线
	TouchDevice(ctx context.Context, hwID string, seenAtMilli int64) error
	// MarkStaleDevicesOffline 将心跳超时的在线设备批量置为离线
	MarkStaleDevicesOffline(ctx context.Context, beforeMilli int64) (int64, error)
	// MarkStaleDevicesError 将长时间离线的设备升级为故障态
	MarkStaleDevicesError(ctx context.Context, beforeMilli int64) (int64, error)
	CountDevicesByStatus(ctx context.Context, status model.DeviceStatus) (int64, error)
}

type stationRepository struct {
	*Repository
}

// NewStationRepository 创建站点仓储
func NewStationRepository(db *gorm.DB) StationRepository {
	return &stationRepository{Repository: NewRepository(db)}
}

func (r *stationRepository) GetStationByID(ctx context.Context, id int64) (*model.Station, error) {
	var station model.Station
	err := r.DB(ctx).Where("id = ?", id).First(&station).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &station, nil
}

func (r *stationRepository) GetStationByCode(ctx context.Context, code string) (*model.Station, error) {
	var station model.Station
	err := r.DB(ctx).Where("code = ?", code).First(&station).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &station, nil
}

func (r *stationRepository) ListStations(ctx context.Context, page *Pagination) ([]*model.Station, error) {
	query := r.DB(ctx).Model(&model.Station{})

	if page != nil {
		if err := query.Count(&page.Total).Error; err != nil {
			return nil, err
		}
		query = query.Offset(page.Offset()).Limit(page.Limit())
	}

	var stations []*model.Station
	err := query.Order("id ASC").Find(&stations).Error
	return stations, err
}

func (r *stationRepository) CreateStation(ctx context.Context, station *model.Station) error {
	return r.DB(ctx).Create(station).Error
}

func (r *stationRepository) GetDeviceByHardwareID(ctx context.Context, hwID string) (*model.Device, error) {
	var device model.Device
	err := r.DB(ctx).Where("hardware_id = ?", hwID).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *stationRepository) ListDevicesByStation(ctx context.Context, stationID int64) ([]*model.Device, error) {
	var devices []*model.Device
	err := r.DB(ctx).Where("station_id = ?", stationID).Order("id ASC").Find(&devices).Error
	return devices, err
}

func (r *stationRepository) CreateDevice(ctx context.Context, device *model.Device) error {
	return r.DB(ctx).Create(device).Error
}

func (r *stationRepository) TouchDevice(ctx context.Context, hwID string, seenAtMilli int64) error {
	result := r.DB(ctx).Model(&model.Device{}).
		Where("hardware_id = ?", hwID).
		Updates(map[string]interface{}{
			"status":       model.DeviceStatusOnline,
			"last_seen_at": seenAtMilli,
			"updated_at":   time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

func (r *stationRepository) MarkStaleDevicesOffline(ctx context.Context, beforeMilli int64) (int64, error) {
	result := r.DB(ctx).Exec(`
		UPDATE devices
		SET status = ?, updated_at = ?
		WHERE status = ? AND last_seen_at < ?
	`, model.DeviceStatusOffline, time.Now().UnixMilli(), model.DeviceStatusOnline, beforeMilli)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *stationRepository) MarkStaleDevicesError(ctx context.Context, beforeMilli int64) (int64, error) {
	result := r.DB(ctx).Exec(`
		UPDATE devices
		SET status = ?, updated_at = ?
		WHERE status = ? AND last_seen_at < ?
	`, model.DeviceStatusError, time.Now().UnixMilli(), model.DeviceStatusOffline, beforeMilli)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *stationRepository) CountDevicesByStatus(ctx context.Context, status model.DeviceStatus) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&model.Device{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
