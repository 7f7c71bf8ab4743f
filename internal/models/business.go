package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Business is a small shop owned by a chat user; members log in with
// username/password to start a business session.
type Business struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       string `gorm:"size:64;not null;uniqueIndex:idx_business_user_name"`
	Name         string `gorm:"size:64;not null;uniqueIndex:idx_business_user_name"`
	Username     string `gorm:"size:64;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Description  string `gorm:"size:255"`
	CreatedAt    time.Time
}

// BusinessSession marks the business a chat user currently operates on.
type BusinessSession struct {
	UserID     string `gorm:"primaryKey;size:64"`
	BusinessID uint   `gorm:"index;not null"`
	StartedAt  time.Time

	Business Business `gorm:"constraint:OnDelete:CASCADE"`
}

type Material struct {
	ID         uint                `gorm:"primaryKey"`
	BusinessID uint                `gorm:"not null;uniqueIndex:idx_material_business_name"`
	Name       string              `gorm:"size:128;not null;uniqueIndex:idx_material_business_name"`
	UnitPrice  decimal.Decimal     `gorm:"type:decimal(20,2);not null;default:0"`
	PackPrice  decimal.NullDecimal `gorm:"type:decimal(20,2)"`
	PerPack    *int
	CreatedAt  time.Time
}

type PriceTier struct {
	ID         uint            `gorm:"primaryKey"`
	BusinessID uint            `gorm:"not null;uniqueIndex:idx_price_business_price"`
	Price      decimal.Decimal `gorm:"type:decimal(20,2);not null;uniqueIndex:idx_price_business_price"`
	CreatedAt  time.Time
}

type Catalog struct {
	ID                  uint                `gorm:"primaryKey"`
	BusinessID          uint                `gorm:"index;not null"`
	Name                string              `gorm:"size:128;not null"`
	Price               decimal.Decimal     `gorm:"type:decimal(20,2);not null;default:0"`
	ImagePath           string              `gorm:"size:255"`
	ProductionCost      decimal.NullDecimal `gorm:"type:decimal(20,2)"`
	ProductionMaterials string              `gorm:"type:text"` // JSON []MaterialUsage
	CreatedAt           time.Time
}

type BusinessExpense struct {
	ID          uint            `gorm:"primaryKey"`
	BusinessID  uint            `gorm:"index;not null"`
	Description string          `gorm:"size:255"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	IsRecorded  bool            `gorm:"not null;default:false"`
	CreatedAt   time.Time
}

type BusinessIncome struct {
	ID          uint            `gorm:"primaryKey"`
	BusinessID  uint            `gorm:"index;not null"`
	Description string          `gorm:"size:255"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	CreatedAt   time.Time
}

// EmptyBouquet is one row of the bare-bouquet price sheet (size -> price).
type EmptyBouquet struct {
	ID         uint            `gorm:"primaryKey"`
	BusinessID uint            `gorm:"not null;uniqueIndex:idx_bouquet_business_size"`
	Size       string          `gorm:"size:32;not null;uniqueIndex:idx_bouquet_business_size"`
	Price      decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	CreatedAt  time.Time
}
