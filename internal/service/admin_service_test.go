package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SagarBarate/CleanNFT-sub001/internal/dto"
	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
	"github.com/SagarBarate/CleanNFT-sub001/internal/repository"
)

func setupAdminService(t *testing.T) (AdminService, *gorm.DB) {
	db := setupTestDB(t)
	svc := NewAdminService(
		repository.NewTxRepository(db),
		repository.NewOutboxRepository(db),
		repository.NewStationRepository(db),
		repository.NewUserRepository(db),
	)
	return svc, db
}

func TestAdminService_RetryBlockchainTx(t *testing.T) {
	svc, db := setupAdminService(t)
	ctx := context.Background()
	now := time.Now().UnixMilli()

	require.NoError(t, db.Create(&model.OutboxEvent{
		EventType:   model.OutboxEventSendToChain,
		Aggregate:   model.AggregateNftClaims,
		AggregateID: "claim-1",
		Payload:     `{"claim_id":"claim-1"}`,
		ProcessedAt: &now,
	}).Error)
	require.NoError(t, db.Create(&model.BlockchainTx{
		RelatedTable: model.AggregateNftClaims,
		RelatedID:    "claim-1",
		Network:      "simulated",
		Status:       model.BlockchainTxStatusFailed,
		SubmittedAt:  now,
		Error:        "rpc timeout",
	}).Error)

	require.NoError(t, svc.RetryBlockchainTx(ctx, "admin-1", 1))

	// 重试生成新的待处理事件，原失败行保留
	var events []model.OutboxEvent
	require.NoError(t, db.Order("id ASC").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Nil(t, events[1].ProcessedAt)
	assert.Equal(t, events[0].Payload, events[1].Payload)

	var audits []model.AuditLog
	require.NoError(t, db.Find(&audits).Error)
	require.Len(t, audits, 1)
	assert.Equal(t, model.AuditActionTxRetry, audits[0].Action)
	assert.Equal(t, model.AuditStatusSuccess, audits[0].Status)
}

func TestAdminService_RetryBlockchainTx_NotFailed(t *testing.T) {
	svc, db := setupAdminService(t)
	now := time.Now().UnixMilli()

	require.NoError(t, db.Create(&model.BlockchainTx{
		RelatedTable: model.AggregateNftClaims,
		RelatedID:    "claim-1",
		Network:      "simulated",
		Status:       model.BlockchainTxStatusConfirmed,
		SubmittedAt:  now,
	}).Error)

	err := svc.RetryBlockchainTx(context.Background(), "admin-1", 1)
	assert.ErrorIs(t, err, dto.ErrTxNotRetryable)
}

func TestAdminService_RetryBlockchainTx_NotFound(t *testing.T) {
	svc, _ := setupAdminService(t)

	err := svc.RetryBlockchainTx(context.Background(), "admin-1", 999)
	assert.ErrorIs(t, err, dto.ErrTxNotFound)
}

func TestAdminService_Health(t *testing.T) {
	svc, db := setupAdminService(t)
	now := time.Now().UnixMilli()

	require.NoError(t, db.Create(&model.OutboxEvent{
		EventType: model.OutboxEventPushToIPFS, Aggregate: model.AggregateWasteEvents,
		AggregateID: "evt-1",
	}).Error)
	require.NoError(t, db.Create(&model.BlockchainTx{
		RelatedTable: model.AggregateWasteEvents, RelatedID: "evt-0",
		Network: "simulated", Status: model.BlockchainTxStatusFailed, SubmittedAt: now,
	}).Error)
	require.NoError(t, db.Create(&model.Station{Code: "ST-1", Status: model.StationStatusActive}).Error)
	require.NoError(t, db.Create(&model.Device{HardwareID: "bin-1", StationID: 1, Status: model.DeviceStatusOnline}).Error)
	require.NoError(t, db.Create(&model.Device{HardwareID: "bin-2", StationID: 1, Status: model.DeviceStatusOffline}).Error)
	require.NoError(t, db.Create(&model.Device{HardwareID: "bin-3", StationID: 1, Status: model.DeviceStatusError}).Error)
	require.NoError(t, db.Create(&model.Session{UserID: "user-1", TokenHash: "hash-expired", ExpiresAt: now - 1000}).Error)
	require.NoError(t, db.Create(&model.Session{UserID: "user-1", TokenHash: "hash-live", ExpiresAt: now + 60_000}).Error)

	report, err := svc.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Database)
	assert.Equal(t, int64(1), report.OutboxPending)
	assert.Equal(t, int64(1), report.FailedTxs)
	assert.Equal(t, int64(1), report.ExpiredSessions)
	assert.Equal(t, int64(1), report.DevicesOnline)
	assert.Equal(t, int64(1), report.DevicesOffline)
	assert.Equal(t, int64(1), report.DevicesError)
	// 存在失败交易与离线设备，总体不健康
	assert.False(t, report.Overall)
}
