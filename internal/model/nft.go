package model

// NftDefinition NFT 模板
type NftDefinition struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string `gorm:"column:code;size:64;uniqueIndex;not null" json:"code"`
	Name        string `gorm:"column:name;size:100" json:"name"`
	Description string `gorm:"column:description;size:255" json:"description"`
	SupplyCap   int    `gorm:"column:supply_cap;not null" json:"supply_cap"`
	CreatedAt   int64  `gorm:"column:created_at;autoCreateTime:milli" json:"created_at"`
	UpdatedAt   int64  `gorm:"column:updated_at;autoUpdateTime:milli" json:"updated_at"`
}

// TableName 表名
func (NftDefinition) TableName() string {
	return "nft_definitions"
}

// NftMintStatus 铸造实例状态
type NftMintStatus string

const (
	NftMintStatusMinted      NftMintStatus = "MINTED"      // 预铸造待认领
	NftMintStatusTransferred NftMintStatus = "TRANSFERRED" // 已转移给用户
	NftMintStatusBurned      NftMintStatus = "BURNED"      // 已销毁
)

// NftMint 预铸造的 NFT 实例
type NftMint struct {
	ID           int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	DefinitionID int64         `gorm:"column:definition_id;index;not null;uniqueIndex:uk_mint_token,priority:1" json:"definition_id"`
	TokenID      int64         `gorm:"column:token_id;not null;uniqueIndex:uk_mint_token,priority:2" json:"token_id"`
	Status       NftMintStatus `gorm:"column:status;size:16;index;default:MINTED" json:"status"`
	CreatedAt    int64         `gorm:"column:created_at;autoCreateTime:milli" json:"created_at"`
	UpdatedAt    int64         `gorm:"column:updated_at;autoUpdateTime:milli" json:"updated_at"`
}

// TableName 表名
func (NftMint) TableName() string {
	return "nft_mints"
}

// NftClaimStatus 认领状态
type NftClaimStatus int8

const (
	NftClaimStatusPending   NftClaimStatus = 0 // 待链上确认
	NftClaimStatusCompleted NftClaimStatus = 1 // 已完成
	NftClaimStatusFailed    NftClaimStatus = 2 // 失败
)

func (s NftClaimStatus) String() string {
	switch s {
	case NftClaimStatusPending:
		return "PENDING"
	case NftClaimStatusCompleted:
		return "COMPLETED"
	case NftClaimStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal 判断是否为终态
func (s NftClaimStatus) IsTerminal() bool {
	return s == NftClaimStatusCompleted || s == NftClaimStatusFailed
}

// NftClaim 用户对铸造实例的认领
// mint_id 唯一约束是防止并发重复认领的最终防线
type NftClaim struct {
	ID           string         `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	UserID       string         `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	MintID       int64          `gorm:"column:mint_id;uniqueIndex;not null" json:"mint_id"`
	DefinitionID int64          `gorm:"column:definition_id;index;not null" json:"definition_id"`
	ClaimType    string         `gorm:"column:claim_type;size:32" json:"claim_type"`
	Status       NftClaimStatus `gorm:"column:status;type:smallint;index;default:0" json:"status"`
	CreatedAt    int64          `gorm:"column:created_at;autoCreateTime:milli" json:"created_at"`
	FinalizedAt  *int64         `gorm:"column:finalized_at" json:"finalized_at,omitempty"`
}

// TableName 表名
func (NftClaim) TableName() string {
	return "nft_claims"
}
