package database

import (
	"fmt"

	"kantong/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Wallet{},
		&models.Transaction{},
		&models.BalanceCache{},
		&models.Business{},
		&models.BusinessSession{},
		&models.Material{},
		&models.PriceTier{},
		&models.Catalog{},
		&models.BusinessExpense{},
		&models.BusinessIncome{},
		&models.EmptyBouquet{},
		&models.AuditLog{},
		&models.Backup{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
