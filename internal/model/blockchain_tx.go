package model

// BlockchainTxStatus 结算交易状态
type BlockchainTxStatus int8

const (
	BlockchainTxStatusSubmitted BlockchainTxStatus = 0 // 已提交
	BlockchainTxStatusConfirmed BlockchainTxStatus = 1 // 已确认
	BlockchainTxStatusFailed    BlockchainTxStatus = 2 // 失败
)

func (s BlockchainTxStatus) String() string {
	switch s {
	case BlockchainTxStatusSubmitted:
		return "SUBMITTED"
	case BlockchainTxStatusConfirmed:
		return "CONFIRMED"
	case BlockchainTxStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal 判断是否为终态
func (s BlockchainTxStatus) IsTerminal() bool {
	return s == BlockchainTxStatusConfirmed || s == BlockchainTxStatusFailed
}

// BlockchainTx 结算交易记录
// 每次结算尝试追加一行，重试不改写历史失败行
type BlockchainTx struct {
	ID           int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	RelatedTable string             `gorm:"column:related_table;size:32;index:idx_tx_related,priority:1;not null" json:"related_table"`
	RelatedID    string             `gorm:"column:related_id;size:36;index:idx_tx_related,priority:2;not null" json:"related_id"`
	Network      string             `gorm:"column:network;size:32;not null" json:"network"`
	TxHash       string             `gorm:"column:tx_hash;size:128" json:"tx_hash,omitempty"`
	Status       BlockchainTxStatus `gorm:"column:status;type:smallint;index;not null;default:0" json:"status"`
	SubmittedAt  int64              `gorm:"column:submitted_at;not null" json:"submitted_at"`
	ConfirmedAt  *int64             `gorm:"column:confirmed_at" json:"confirmed_at,omitempty"`
	Error        string             `gorm:"column:error;size:500" json:"error,omitempty"`
	CreatedAt    int64              `gorm:"column:created_at;autoCreateTime:milli" json:"created_at"`
}

// TableName 表名
func (BlockchainTx) TableName() string {
	return "blockchain_txs"
}
