package model

import (
	"github.com/shopspring/decimal"
)

// PointExprType 积分规则表达式类型 (封闭标签联合)
type PointExprType string

const (
	PointExprPerKg      PointExprType = "per_kg"     // 每公斤积分
	PointExprFlat       PointExprType = "flat"       // 固定积分
	PointExprPercentage PointExprType = "percentage" // 基础费率 (10 分/kg) 的百分比
)

// Valid 判断表达式类型是否合法
func (t PointExprType) Valid() bool {
	switch t {
	case PointExprPerKg, PointExprFlat, PointExprPercentage:
		return true
	}
	return false
}

// RuleCodeFirstDumpBonus 首投奖励规则码，仅用户首次投递生效
const RuleCodeFirstDumpBonus = "FIRST_DUMP_BONUS"

// PointRule 积分规则
// 同一时刻可有多条生效规则，逐条求值后累加
type PointRule struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string          `gorm:"column:code;size:64;uniqueIndex;not null" json:"code"`
	Description string          `gorm:"column:description;size:255" json:"description"`
	ExprType    PointExprType   `gorm:"column:expr_type;size:16;not null" json:"expr_type"`
	ExprValue   decimal.Decimal `gorm:"column:expr_value;type:decimal(18,6);not null" json:"expr_value"`
	ActiveFrom  int64           `gorm:"column:active_from;index;not null" json:"active_from"`
	ActiveTo    *int64          `gorm:"column:active_to" json:"active_to,omitempty"`
	CreatedAt   int64           `gorm:"column:created_at;autoCreateTime:milli" json:"created_at"`
	UpdatedAt   int64           `gorm:"column:updated_at;autoUpdateTime:milli" json:"updated_at"`
}

// TableName 表名
func (PointRule) TableName() string {
	return "point_rules"
}

// ActiveAt 判断规则在某时刻是否生效
func (r *PointRule) ActiveAt(tsMilli int64) bool {
	if tsMilli < r.ActiveFrom {
		return false
	}
	if r.ActiveTo != nil && tsMilli > *r.ActiveTo {
		return false
	}
	return true
}

// Evaluate 按表达式类型求积分值
// per_kg: floor(weightGrams/1000 × value)
// flat: value 取整
// percentage: floor(floor(weightGrams/1000)×10 × value/100)
func (r *PointRule) Evaluate(weightGrams int64) int64 {
	switch r.ExprType {
	case PointExprPerKg:
		kg := decimal.NewFromInt(weightGrams).Div(decimal.NewFromInt(1000))
		return kg.Mul(r.ExprValue).Floor().IntPart()
	case PointExprFlat:
		return r.ExprValue.Floor().IntPart()
	case PointExprPercentage:
		wholeKg := weightGrams / 1000
		base := decimal.NewFromInt(wholeKg * 10)
		return base.Mul(r.ExprValue).Div(decimal.NewFromInt(100)).Floor().IntPart()
	default:
		return 0
	}
}

// 积分流水关联表
const (
	RefTableWasteEvents = "waste_events"
	RefTableManual      = "manual_adjustments"
)

// PointLedger 积分流水 (仅追加)
// (ref_table, ref_id, reason_code) 唯一，重复写入视为已发放
type PointLedger struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      string `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	RefTable    string `gorm:"column:ref_table;size:32;not null;uniqueIndex:uk_ledger_ref,priority:1" json:"ref_table"`
	RefID       string `gorm:"column:ref_id;size:36;not null;uniqueIndex:uk_ledger_ref,priority:2" json:"ref_id"`
	DeltaPoints int64  `gorm:"column:delta_points;not null" json:"delta_points"`
	ReasonCode  string `gorm:"column:reason_code;size:64;not null;uniqueIndex:uk_ledger_ref,priority:3" json:"reason_code"`
	OccurredAt  int64  `gorm:"column:occurred_at;index;not null" json:"occurred_at"`
	CreatedAt   int64  `gorm:"column:created_at;autoCreateTime:milli" json:"created_at"`
}

// TableName 表名
func (PointLedger) TableName() string {
	return "point_ledger"
}

// PointBalance 积分余额 (派生缓存态)
// 与流水在同一事务内原子增量维护，任何时刻等于流水和
type PointBalance struct {
	UserID    string `gorm:"primaryKey;column:user_id;type:varchar(36)" json:"user_id"`
	Points    int64  `gorm:"column:points;not null" json:"points"`
	UpdatedAt int64  `gorm:"column:updated_at;autoUpdateTime:milli" json:"updated_at"`
}

// TableName 表名
func (PointBalance) TableName() string {
	return "point_balances"
}
