package jobs

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
	"github.com/SagarBarate/CleanNFT-sub001/internal/repository"
)

func setupJobDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Session{},
		&model.Station{}, &model.Device{},
	))
	return db
}

func TestSessionCleanupJob(t *testing.T) {
	db := setupJobDB(t)
	now := time.Now().UnixMilli()

	sessions := []*model.Session{
		{UserID: "u1", TokenHash: "hash-expired-1", ExpiresAt: now - 1000},
		{UserID: "u2", TokenHash: "hash-expired-2", ExpiresAt: now - 60_000},
		{UserID: "u3", TokenHash: "hash-live", ExpiresAt: now + 3_600_000},
	}
	for _, s := range sessions {
		require.NoError(t, db.Create(s).Error)
	}

	job := NewSessionCleanupJob(repository.NewUserRepository(db), "0 0 * * * *")
	result, err := job.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.AffectedCount)

	var remaining []model.Session
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "hash-live", remaining[0].TokenHash)
}

func TestSessionCleanupJob_NothingExpired(t *testing.T) {
	db := setupJobDB(t)
	require.NoError(t, db.Create(&model.Session{
		UserID: "u1", TokenHash: "hash-live", ExpiresAt: time.Now().UnixMilli() + 10_000,
	}).Error)

	job := NewSessionCleanupJob(repository.NewUserRepository(db), "0 0 * * * *")
	result, err := job.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.AffectedCount)
}

func TestHealthMonitorJob_MarksStaleDevicesOffline(t *testing.T) {
	db := setupJobDB(t)
	now := time.Now().UnixMilli()

	require.NoError(t, db.Create(&model.Station{Code: "ST-01", Name: "Central Park"}).Error)
	devices := []*model.Device{
		{HardwareID: "dev-stale", StationID: 1, Status: model.DeviceStatusOnline, LastSeenAt: now - 30*60_000},
		{HardwareID: "dev-fresh", StationID: 1, Status: model.DeviceStatusOnline, LastSeenAt: now - 60_000},
		{HardwareID: "dev-off", StationID: 1, Status: model.DeviceStatusOffline, LastSeenAt: now - 90*60_000},
	}
	for _, d := range devices {
		require.NoError(t, db.Create(d).Error)
	}

	job := NewHealthMonitorJob(repository.NewStationRepository(db), "*/30 * * * * *", 15)
	result, err := job.Execute(context.Background())
	require.NoError(t, err)
	// dev-stale 置离线，dev-off 离线超过 4 倍阈值升级故障
	assert.Equal(t, int64(2), result.AffectedCount)

	var stale model.Device
	require.NoError(t, db.Where("hardware_id = ?", "dev-stale").First(&stale).Error)
	assert.Equal(t, model.DeviceStatusOffline, stale.Status)

	var fresh model.Device
	require.NoError(t, db.Where("hardware_id = ?", "dev-fresh").First(&fresh).Error)
	assert.Equal(t, model.DeviceStatusOnline, fresh.Status)

	var broken model.Device
	require.NoError(t, db.Where("hardware_id = ?", "dev-off").First(&broken).Error)
	assert.Equal(t, model.DeviceStatusError, broken.Status)
}

func TestHealthMonitorJob_Idempotent(t *testing.T) {
	db := setupJobDB(t)
	require.NoError(t, db.Create(&model.Device{
		HardwareID: "dev-stale", StationID: 1,
		Status: model.DeviceStatusOnline, LastSeenAt: time.Now().UnixMilli() - 30*60_000,
	}).Error)

	job := NewHealthMonitorJob(repository.NewStationRepository(db), "*/30 * * * * *", 15)

	first, err := job.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.AffectedCount)

	second, err := job.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.AffectedCount)
}
