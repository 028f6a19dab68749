package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SagarBarate/CleanNFT-sub001/internal/dto"
	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
	"github.com/SagarBarate/CleanNFT-sub001/internal/repository"
)

func setupPointService(t *testing.T) (PointService, repository.PointRepository) {
	db := setupTestDB(t)
	pointRepo := repository.NewPointRepository(db)
	userRepo := repository.NewUserRepository(db)
	svc := NewPointService(pointRepo, userRepo, setupBalanceCache(t))
	return svc, pointRepo
}

func TestPointService_GetBalance_CacheAside(t *testing.T) {
	svc, pointRepo := setupPointService(t)
	ctx := context.Background()

	require.NoError(t, pointRepo.IncrementBalance(ctx, "user-1", 42))

	// 首次回源
	resp, err := svc.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.Points)
	assert.False(t, resp.Cached)

	// 第二次命中缓存
	resp, err = svc.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.Points)
	assert.True(t, resp.Cached)
}

func TestPointService_GetBalance_NewUser(t *testing.T) {
	svc, _ := setupPointService(t)

	resp, err := svc.GetBalance(context.Background(), "user-new")
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Points)
}

func TestPointService_ManualAdjust(t *testing.T) {
	svc, pointRepo := setupPointService(t)
	ctx := context.Background()

	req := &dto.ManualAdjustRequest{
		UserID:      "user-1",
		DeltaPoints: 100,
		ReasonCode:  "CAMPAIGN_BONUS",
		RefID:       "adj-001",
	}
	require.NoError(t, svc.ManualAdjust(ctx, "admin-1", req))

	balance, err := pointRepo.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Points)

	// 同一调整单重复提交被拒
	err = svc.ManualAdjust(ctx, "admin-1", req)
	assert.ErrorIs(t, err, dto.ErrDuplicateAward)

	balance, err = pointRepo.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Points)
}

func TestPointService_ManualAdjust_ZeroDelta(t *testing.T) {
	svc, _ := setupPointService(t)

	err := svc.ManualAdjust(context.Background(), "admin-1", &dto.ManualAdjustRequest{
		UserID:     "user-1",
		ReasonCode: "NOOP",
		RefID:      "adj-002",
	})
	assert.ErrorIs(t, err, dto.ErrInvalidAdjustment)
}

func TestPointService_ManualAdjust_NegativeDelta(t *testing.T) {
	svc, pointRepo := setupPointService(t)
	ctx := context.Background()

	require.NoError(t, svc.ManualAdjust(ctx, "admin-1", &dto.ManualAdjustRequest{
		UserID: "user-1", DeltaPoints: 50, ReasonCode: "BONUS", RefID: "adj-1",
	}))
	require.NoError(t, svc.ManualAdjust(ctx, "admin-1", &dto.ManualAdjustRequest{
		UserID: "user-1", DeltaPoints: -20, ReasonCode: "CORRECTION", RefID: "adj-2",
	}))

	balance, err := pointRepo.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(30), balance.Points)
}

func TestPointService_CreateRule(t *testing.T) {
	svc, pointRepo := setupPointService(t)
	ctx := context.Background()

	rule, err := svc.CreateRule(ctx, &dto.CreateRuleRequest{
		Code:       "PER_KG_GLASS",
		ExprType:   "per_kg",
		ExprValue:  "2.5",
		ActiveFrom: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PointExprPerKg, rule.ExprType)

	got, err := pointRepo.GetRuleByCode(ctx, "PER_KG_GLASS")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Evaluate(3000))
}

func TestPointService_CreateRule_Invalid(t *testing.T) {
	svc, _ := setupPointService(t)
	ctx := context.Background()

	_, err := svc.CreateRule(ctx, &dto.CreateRuleRequest{
		Code: "BAD", ExprType: "exponential", ExprValue: "1", ActiveFrom: 1,
	})
	assert.ErrorIs(t, err, dto.ErrInvalidParams)

	_, err = svc.CreateRule(ctx, &dto.CreateRuleRequest{
		Code: "BAD", ExprType: "flat", ExprValue: "not-a-number", ActiveFrom: 1,
	})
	assert.ErrorIs(t, err, dto.ErrInvalidParams)
}

func TestPointService_Summary(t *testing.T) {
	svc, pointRepo := setupPointService(t)
	ctx := context.Background()

	seed := []*model.PointLedger{
		{UserID: "user-1", RefTable: "waste_events", RefID: "evt-1", DeltaPoints: 25, ReasonCode: "PER_KG_PET", OccurredAt: 1000},
		{UserID: "user-1", RefTable: "waste_events", RefID: "evt-1", DeltaPoints: 50, ReasonCode: "FIRST_DUMP_BONUS", OccurredAt: 1000},
		{UserID: "user-1", RefTable: "waste_events", RefID: "evt-2", DeltaPoints: 30, ReasonCode: "PER_KG_PET", OccurredAt: 2000},
		{UserID: "user-1", RefTable: "manual", RefID: "adj-1", DeltaPoints: -20, ReasonCode: "MANUAL_ADJUST", OccurredAt: 3000},
		{UserID: "user-2", RefTable: "waste_events", RefID: "evt-9", DeltaPoints: 99, ReasonCode: "PER_KG_PET", OccurredAt: 1000},
	}
	for _, entry := range seed {
		inserted, err := pointRepo.CreateLedger(ctx, entry)
		require.NoError(t, err)
		require.True(t, inserted)
	}

	summary, err := svc.Summary(ctx, "user-1", nil)
	require.NoError(t, err)

	assert.Equal(t, int64(105), summary.TotalEarned)
	assert.Equal(t, int64(20), summary.TotalSpent)

	byReason := make(map[string]int64, len(summary.ByReason))
	for _, row := range summary.ByReason {
		byReason[row.ReasonCode] = row.TotalPoints
	}
	assert.Equal(t, int64(55), byReason["PER_KG_PET"])
	assert.Equal(t, int64(50), byReason["FIRST_DUMP_BONUS"])
	assert.Equal(t, int64(-20), byReason["MANUAL_ADJUST"])
}

func TestPointService_Summary_TimeRange(t *testing.T) {
	svc, pointRepo := setupPointService(t)
	ctx := context.Background()

	for _, entry := range []*model.PointLedger{
		{UserID: "user-1", RefTable: "waste_events", RefID: "evt-1", DeltaPoints: 10, ReasonCode: "PER_KG_PET", OccurredAt: 1000},
		{UserID: "user-1", RefTable: "waste_events", RefID: "evt-2", DeltaPoints: 40, ReasonCode: "PER_KG_PET", OccurredAt: 5000},
	} {
		_, err := pointRepo.CreateLedger(ctx, entry)
		require.NoError(t, err)
	}

	summary, err := svc.Summary(ctx, "user-1", &repository.TimeRange{Start: 4000, End: 6000})
	require.NoError(t, err)
	assert.Equal(t, int64(40), summary.TotalEarned)
	assert.Equal(t, int64(0), summary.TotalSpent)
}
