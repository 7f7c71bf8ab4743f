package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type WalletType string

const (
	WalletRegular WalletType = "regular"
	WalletSavings WalletType = "savings"
)

func (t WalletType) Valid() bool {
	return t == WalletRegular || t == WalletSavings
}

// Wallet is a named running balance ("kantong") owned by one chat user.
// Name is stored normalized (lowercase, trimmed).
type Wallet struct {
	ID             uint            `gorm:"primaryKey"`
	UserID         string          `gorm:"size:64;not null;uniqueIndex:idx_wallet_user_name"`
	Name           string          `gorm:"size:64;not null;uniqueIndex:idx_wallet_user_name"`
	Type           WalletType      `gorm:"size:16;not null;default:regular"`
	IncludeInTotal bool            `gorm:"not null"`
	Balance        decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BalanceCache keeps the running sum of all wallet balances for a user.
type BalanceCache struct {
	UserID    string          `gorm:"primaryKey;size:64"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	UpdatedAt time.Time
}

func (BalanceCache) TableName() string {
	return "balances"
}
