package app

import (
	"gorm.io/gorm"

	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
)

// AutoMigrate 自动执行数据库迁移
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.Station{},
		&model.Device{},
		&model.WasteEvent{},
		&model.PointRule{},
		&model.PointLedger{},
		&model.PointBalance{},
		&model.NftDefinition{},
		&model.NftMint{},
		&model.NftClaim{},
		&model.OutboxEvent{},
		&model.BlockchainTx{},
		&model.AuditLog{},
	)
}
