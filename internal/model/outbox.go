package model

// OutboxEventType 外部结算事件类型
type OutboxEventType string

const (
	OutboxEventSendToChain OutboxEventType = "SEND_TO_CHAIN" // 提交链上结算
	OutboxEventPushToIPFS  OutboxEventType = "PUSH_TO_IPFS"  // 推送 IPFS 固定
)

// Valid 判断事件类型是否合法
func (t OutboxEventType) Valid() bool {
	return t == OutboxEventSendToChain || t == OutboxEventPushToIPFS
}

// 聚合名
const (
	AggregateWasteEvents = "waste_events"
	AggregateNftClaims   = "nft_claims"
)

// OutboxEvent 结算 outbox 事件
// 与领域变更同事务写入，由轮询器消费恰好一次:
// 无论结算成败 processed_at 都会置位，失败不自动重试
type OutboxEvent struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	EventType   OutboxEventType `gorm:"column:event_type;size:20;not null" json:"event_type"`
	Aggregate   string          `gorm:"column:aggregate;size:32;index:idx_outbox_aggregate,priority:1;not null" json:"aggregate"`
	AggregateID string          `gorm:"column:aggregate_id;size:36;index:idx_outbox_aggregate,priority:2;not null" json:"aggregate_id"`
	Payload     string          `gorm:"column:payload;type:text" json:"payload"`
	CreatedAt   int64           `gorm:"column:created_at;index;autoCreateTime:milli" json:"created_at"`
	ProcessedAt *int64          `gorm:"column:processed_at;index" json:"processed_at,omitempty"`
}

// TableName 表名
func (OutboxEvent) TableName() string {
	return "outbox_events"
}

// Processed 是否已消费
func (e *OutboxEvent) Processed() bool {
	return e.ProcessedAt != nil
}
