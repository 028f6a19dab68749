package model

// 审计动作
const (
	AuditActionLogin         = "login"
	AuditActionLogout        = "logout"
	AuditActionPointAdjust   = "point_adjust"
	AuditActionClaimFinalize = "claim_finalize"
	AuditActionManualClaim   = "manual_claim"
	AuditActionTxRetry       = "tx_retry"
)

// 审计结果
const (
	AuditStatusSuccess = "success"
	AuditStatusFailed  = "failed"
)

// AuditLog 管理操作审计
// 审计写入失败只记日志，绝不影响主操作
type AuditLog struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID      string `gorm:"column:actor_id;type:varchar(36);index" json:"actor_id"`
	Action       string `gorm:"column:action;size:32;index;not null" json:"action"`
	ResourceType string `gorm:"column:resource_type;size:32" json:"resource_type"`
	ResourceID   string `gorm:"column:resource_id;size:64" json:"resource_id"`
	Description  string `gorm:"column:description;size:255" json:"description"`
	Status       string `gorm:"column:status;size:16" json:"status"`
	ErrorMessage string `gorm:"column:error_message;size:500" json:"error_message,omitempty"`
	CreatedAt    int64  `gorm:"column:created_at;autoCreateTime:milli" json:"created_at"`
}

// TableName 表名
func (AuditLog) TableName() string {
	return "audit_logs"
}
