package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
)

func TestStationRepository_GetDeviceByHardwareID_Success(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewStationRepository(db)
	ctx := context.Background()
	now := time.Now().UnixMilli()

	rows := sqlmock.NewRows([]string{
		"id", "hardware_id", "station_id", "status", "last_seen_at", "created_at", "updated_at",
	}).AddRow(1, "bin-001", 1, model.DeviceStatusOnline, now, now, now)

	mock.ExpectQuery(`SELECT \* FROM "devices" WHERE hardware_id = \$1`).
		WithArgs("bin-001", 1).
		WillReturnRows(rows)

	device, err := repo.GetDeviceByHardwareID(ctx, "bin-001")

	assert.NoError(t, err)
	assert.Equal(t, int64(1), device.StationID)
	assert.Equal(t, model.DeviceStatusOnline, device.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStationRepository_GetDeviceByHardwareID_NotFound(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewStationRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "devices" WHERE hardware_id = \$1`).
		WillReturnError(gorm.ErrRecordNotFound)

	device, err := repo.GetDeviceByHardwareID(ctx, "missing")

	assert.Nil(t, device)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStationRepository_TouchDevice_NotFound(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewStationRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "devices"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.TouchDevice(ctx, "missing", time.Now().UnixMilli())

	assert.ErrorIs(t, err, ErrDeviceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStationRepository_MarkStaleDevicesOffline(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewStationRepository(db)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE devices`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := repo.MarkStaleDevicesOffline(ctx, time.Now().UnixMilli())

	assert.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStationRepository_MarkStaleDevicesError(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewStationRepository(db)

	mock.ExpectExec(`UPDATE devices`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.MarkStaleDevicesError(context.Background(), time.Now().UnixMilli())

	assert.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
