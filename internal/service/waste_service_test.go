package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/SagarBarate/CleanNFT-sub001/internal/cache"
	"github.com/SagarBarate/CleanNFT-sub001/internal/config"
	"github.com/SagarBarate/CleanNFT-sub001/internal/dto"
	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
	"github.com/SagarBarate/CleanNFT-sub001/internal/repository"
	"github.com/SagarBarate/CleanNFT-sub001/pkg/nonce"
)

// 测试用数据库设置
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.User{}, &model.Session{},
		&model.Station{}, &model.Device{},
		&model.WasteEvent{},
		&model.PointRule{}, &model.PointLedger{}, &model.PointBalance{},
		&model.OutboxEvent{}, &model.BlockchainTx{},
		&model.NftDefinition{}, &model.NftMint{}, &model.NftClaim{},
		&model.AuditLog{},
	)
	require.NoError(t, err)

	return db
}

func setupBalanceCache(t *testing.T) *cache.BalanceCache {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewBalanceCache(client, zap.NewNop(), time.Minute)
}

type wasteTestEnv struct {
	db        *gorm.DB
	svc       WasteService
	pointRepo repository.PointRepository
}

func setupWasteService(t *testing.T, nonceMode string) *wasteTestEnv {
	db := setupTestDB(t)

	wasteRepo := repository.NewWasteRepository(db)
	pointRepo := repository.NewPointRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	stationRepo := repository.NewStationRepository(db)

	svc := NewWasteService(
		wasteRepo, pointRepo, outboxRepo, stationRepo,
		setupBalanceCache(t),
		nonce.NewDeriver(nonce.Mode(nonceMode)),
		config.WasteConfig{NonceMode: nonceMode, TxMaxAttempts: 1, TxBackoffMs: 1, TxTimeoutSec: 5},
	)

	return &wasteTestEnv{db: db, svc: svc, pointRepo: pointRepo}
}

func seedRule(t *testing.T, db *gorm.DB, code string, exprType model.PointExprType, value string) {
	require.NoError(t, db.Create(&model.PointRule{
		Code:       code,
		ExprType:   exprType,
		ExprValue:  decimal.RequireFromString(value),
		ActiveFrom: 1,
	}).Error)
}

func seedDevice(t *testing.T, db *gorm.DB, hwID string) {
	require.NoError(t, db.Create(&model.Station{Code: "ST-1", Name: "Central", Status: model.StationStatusActive}).Error)
	require.NoError(t, db.Create(&model.Device{HardwareID: hwID, StationID: 1, Status: model.DeviceStatusOnline}).Error)
}

func recordReq(userID string) *dto.RecordWasteEventRequest {
	return &dto.RecordWasteEventRequest{
		DeviceHwID:   "bin-001",
		UserID:       userID,
		OccurredAt:   time.Now().UnixMilli(),
		MaterialType: "PET",
		WeightGrams:  2500,
		Source:       string(model.WasteSourceIOT),
		Nonce:        "nonce-1",
	}
}

func TestWasteService_RecordEvent_AwardsPoints(t *testing.T) {
	env := setupWasteService(t, "best_effort")
	seedDevice(t, env.db, "bin-001")
	seedRule(t, env.db, "PER_KG_PET", model.PointExprPerKg, "10")
	seedRule(t, env.db, model.RuleCodeFirstDumpBonus, model.PointExprFlat, "5")

	ctx := context.Background()
	resp, err := env.svc.RecordEvent(ctx, recordReq("user-1"))
	require.NoError(t, err)

	assert.False(t, resp.Duplicate)
	// 2.5kg × 10 分/kg = 25，首投奖励 5
	assert.Equal(t, int64(30), resp.PointsAwarded)
	assert.NotNil(t, resp.Event.StationID)

	balance, err := env.pointRepo.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(30), balance.Points)

	// 与事件同事务写入结算事件
	var outbox []model.OutboxEvent
	require.NoError(t, env.db.Find(&outbox).Error)
	require.Len(t, outbox, 1)
	assert.Equal(t, model.OutboxEventPushToIPFS, outbox[0].EventType)
	assert.Equal(t, resp.Event.ID, outbox[0].AggregateID)
	assert.Nil(t, outbox[0].ProcessedAt)
}

func TestWasteService_RecordEvent_FirstDumpBonusOnlyOnce(t *testing.T) {
	env := setupWasteService(t, "best_effort")
	seedDevice(t, env.db, "bin-001")
	seedRule(t, env.db, "PER_KG_PET", model.PointExprPerKg, "10")
	seedRule(t, env.db, model.RuleCodeFirstDumpBonus, model.PointExprFlat, "5")

	ctx := context.Background()

	first := recordReq("user-1")
	resp, err := env.svc.RecordEvent(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int64(30), resp.PointsAwarded)

	second := recordReq("user-1")
	second.Nonce = "nonce-2"
	second.OccurredAt = first.OccurredAt + 1000
	resp, err = env.svc.RecordEvent(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, int64(25), resp.PointsAwarded)

	balance, err := env.pointRepo.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(55), balance.Points)
}

func TestWasteService_RecordEvent_DuplicateNonce(t *testing.T) {
	env := setupWasteService(t, "best_effort")
	seedDevice(t, env.db, "bin-001")
	seedRule(t, env.db, "PER_KG_PET", model.PointExprPerKg, "10")

	ctx := context.Background()
	req := recordReq("user-1")

	resp1, err := env.svc.RecordEvent(ctx, req)
	require.NoError(t, err)
	require.False(t, resp1.Duplicate)
	assert.Equal(t, int64(25), resp1.PointsAwarded)

	// 完全相同的上报收敛到同一事件，不重复发放
	resp2, err := env.svc.RecordEvent(ctx, req)
	require.NoError(t, err)
	assert.True(t, resp2.Duplicate)
	assert.Equal(t, int64(0), resp2.PointsAwarded)
	assert.Equal(t, resp1.Event.ID, resp2.Event.ID)

	balance, err := env.pointRepo.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance.Points)

	var count int64
	require.NoError(t, env.db.Model(&model.WasteEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWasteService_RecordEvent_NonceRequiredMode(t *testing.T) {
	env := setupWasteService(t, "required")
	seedDevice(t, env.db, "bin-001")

	req := recordReq("user-1")
	req.Nonce = ""

	_, err := env.svc.RecordEvent(context.Background(), req)
	assert.ErrorIs(t, err, dto.ErrNonceRequired)
}

func TestWasteService_RecordEvent_BestEffortWithoutNonce(t *testing.T) {
	env := setupWasteService(t, "best_effort")
	seedDevice(t, env.db, "bin-001")

	req1 := recordReq("user-1")
	req1.Nonce = ""
	req2 := recordReq("user-1")
	req2.Nonce = ""

	ctx := context.Background()
	resp1, err := env.svc.RecordEvent(ctx, req1)
	require.NoError(t, err)
	resp2, err := env.svc.RecordEvent(ctx, req2)
	require.NoError(t, err)

	// 无 nonce 时随机派生，两次上报互不去重
	assert.False(t, resp1.Duplicate)
	assert.False(t, resp2.Duplicate)
	assert.NotEqual(t, resp1.Event.ID, resp2.Event.ID)
}

func TestWasteService_RecordEvent_Validation(t *testing.T) {
	env := setupWasteService(t, "best_effort")
	seedDevice(t, env.db, "bin-001")
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(req *dto.RecordWasteEventRequest)
		wantErr *dto.BizError
	}{
		{"非法来源", func(r *dto.RecordWasteEventRequest) { r.Source = "WEB" }, dto.ErrInvalidSource},
		{"零重量", func(r *dto.RecordWasteEventRequest) { r.WeightGrams = 0 }, dto.ErrInvalidWeight},
		{"负重量", func(r *dto.RecordWasteEventRequest) { r.WeightGrams = -100 }, dto.ErrInvalidWeight},
		{"超限重量", func(r *dto.RecordWasteEventRequest) { r.WeightGrams = MaxWeightGrams + 1 }, dto.ErrInvalidWeight},
		{"未来时间戳", func(r *dto.RecordWasteEventRequest) { r.OccurredAt = time.Now().Add(time.Hour).UnixMilli() }, dto.ErrInvalidOccurTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := recordReq("user-1")
			tt.mutate(req)
			_, err := env.svc.RecordEvent(ctx, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWasteService_RecordEvent_UnknownIOTDevice(t *testing.T) {
	env := setupWasteService(t, "best_effort")
	ctx := context.Background()

	req := recordReq("user-1")
	req.DeviceHwID = "unknown-bin"
	_, err := env.svc.RecordEvent(ctx, req)
	assert.ErrorIs(t, err, dto.ErrDeviceNotFound)

	// 非 IOT 来源允许未登记设备
	req.Source = string(model.WasteSourceManual)
	resp, err := env.svc.RecordEvent(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, resp.Event.DeviceID)
}

func TestWasteService_RecordEvent_AnonymousNoPoints(t *testing.T) {
	env := setupWasteService(t, "best_effort")
	seedDevice(t, env.db, "bin-001")
	seedRule(t, env.db, "PER_KG_PET", model.PointExprPerKg, "10")

	req := recordReq("")
	resp, err := env.svc.RecordEvent(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.PointsAwarded)

	var ledgerCount int64
	require.NoError(t, env.db.Model(&model.PointLedger{}).Count(&ledgerCount).Error)
	assert.Equal(t, int64(0), ledgerCount)
}

func TestWasteService_ListStationEvents(t *testing.T) {
	env := setupWasteService(t, "best_effort")
	seedDevice(t, env.db, "bin-001")
	seedRule(t, env.db, "PER_KG_PET", model.PointExprPerKg, "10")

	ctx := context.Background()
	_, err := env.svc.RecordEvent(ctx, recordReq("user-1"))
	require.NoError(t, err)

	events, err := env.svc.ListStationEvents(ctx, "ST-1", nil, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].UserID)
	assert.Equal(t, "user-1", *events[0].UserID)

	_, err = env.svc.ListStationEvents(ctx, "ST-404", nil, nil)
	assert.ErrorIs(t, err, dto.ErrStationNotFound)
}

func TestWasteService_ListEvents_Filters(t *testing.T) {
	env := setupWasteService(t, "best_effort")
	seedDevice(t, env.db, "bin-001")
	seedRule(t, env.db, "PER_KG_PET", model.PointExprPerKg, "10")

	ctx := context.Background()
	_, err := env.svc.RecordEvent(ctx, recordReq("user-1"))
	require.NoError(t, err)

	hdpe := recordReq("user-2")
	hdpe.MaterialType = "HDPE"
	hdpe.Nonce = "nonce-2"
	_, err = env.svc.RecordEvent(ctx, hdpe)
	require.NoError(t, err)

	all, err := env.svc.ListEvents(ctx, "", "", nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pet, err := env.svc.ListEvents(ctx, "PET", "", nil, nil)
	require.NoError(t, err)
	require.Len(t, pet, 1)
	assert.Equal(t, "PET", pet[0].MaterialType)

	none, err := env.svc.ListEvents(ctx, "", string(model.WasteSourceManual), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
