package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Transaction is an immutable ledger row. Transfers are two rows (expense on
// the source, income on the destination) sharing one CreatedAt.
type Transaction struct {
	ID          uint            `gorm:"primaryKey"`
	UserID      string          `gorm:"size:64;index;not null"`
	WalletName  string          `gorm:"size:64;not null;default:cash"`
	Type        TransactionType `gorm:"size:16;not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Category    *string         `gorm:"size:64;index"`
	Description string          `gorm:"size:255"`
	CreatedAt   time.Time       `gorm:"index;not null"`
}

// Signed returns the amount with the sign applied to the wallet balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// CategoryName returns the category or "" when unset.
func (t Transaction) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return *t.Category
}
