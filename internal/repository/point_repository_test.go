package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
)

func TestPointRepository_CreateLedger_Inserted(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewPointRepository(db)
	ctx := context.Background()

	entry := &model.PointLedger{
		UserID:      "user-1",
		RefTable:    model.RefTableWasteEvents,
		RefID:       "evt-1",
		DeltaPoints: 25,
		ReasonCode:  "PER_KG_PET",
		OccurredAt:  time.Now().UnixMilli(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "point_ledger"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	inserted, err := repo.CreateLedger(ctx, entry)

	assert.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointRepository_CreateLedger_Conflict(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewPointRepository(db)
	ctx := context.Background()

	entry := &model.PointLedger{
		UserID:      "user-1",
		RefTable:    model.RefTableWasteEvents,
		RefID:       "evt-1",
		DeltaPoints: 25,
		ReasonCode:  "PER_KG_PET",
		OccurredAt:  time.Now().UnixMilli(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "point_ledger"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	inserted, err := repo.CreateLedger(ctx, entry)

	assert.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointRepository_IncrementBalance(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewPointRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "point_balances"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`UPDATE point_balances`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.IncrementBalance(ctx, "user-1", 25)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointRepository_GetBalance_Missing(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewPointRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "point_balances" WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "points", "updated_at"}))

	balance, err := repo.GetBalance(ctx, "user-new")

	assert.NoError(t, err)
	assert.Equal(t, "user-new", balance.UserID)
	assert.Equal(t, int64(0), balance.Points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointRepository_ListActiveRules(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewPointRepository(db)
	ctx := context.Background()
	now := time.Now().UnixMilli()

	rows := sqlmock.NewRows([]string{
		"id", "code", "description", "expr_type", "expr_value",
		"active_from", "active_to", "created_at", "updated_at",
	}).AddRow(
		1, "PER_KG_PET", "", model.PointExprPerKg, "10",
		now-1000, nil, now, now,
	).AddRow(
		2, model.RuleCodeFirstDumpBonus, "", model.PointExprFlat, "5",
		now-1000, nil, now, now,
	)

	mock.ExpectQuery(`SELECT \* FROM "point_rules" WHERE active_from <= \$1 AND \(active_to IS NULL OR active_to >= \$2\) ORDER BY active_from ASC, id ASC`).
		WithArgs(now, now).
		WillReturnRows(rows)

	rules, err := repo.ListActiveRules(ctx, now)

	assert.NoError(t, err)
	assert.Len(t, rules, 2)
	assert.Equal(t, "PER_KG_PET", rules[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointRepository_SummaryByMaterial(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewPointRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"material_type", "event_count", "total_grams"}).
		AddRow("GLASS", 2, 4000).
		AddRow("PET", 5, 12500)

	mock.ExpectQuery(`SELECT material_type, COUNT\(\*\) AS event_count, COALESCE\(SUM\(weight_grams\), 0\) AS total_grams FROM "waste_events"`).
		WillReturnRows(rows)

	summary, err := repo.SummaryByMaterial(ctx, "user-1", nil)

	assert.NoError(t, err)
	assert.Len(t, summary, 2)
	assert.Equal(t, "PET", summary[1].MaterialType)
	assert.Equal(t, int64(12500), summary[1].TotalGrams)
	assert.NoError(t, mock.ExpectationsWereMet())
}
