package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kantong/internal/models"
	"kantong/internal/util"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntryParams describes one income or expense.
type EntryParams struct {
	UserID      string
	Amount      decimal.Decimal
	Description string
	Wallet      string // default "cash"
	Category    string // optional; expenses default to "lainnya"
	Date        *time.Time
}

// EntryResult reports the balances after an income or expense.
type EntryResult struct {
	TransactionID uint
	WalletName    string
	WalletBalance decimal.Decimal
	// TotalBalance is the running sum over all wallets, including ones
	// excluded from the headline total.
	TotalBalance decimal.Decimal
}

type TransferParams struct {
	UserID      string
	Amount      decimal.Decimal
	From        string
	To          string
	Description string
	Date        *time.Time
}

type TransferResult struct {
	Amount      decimal.Decimal
	FromWallet  string
	ToWallet    string
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
}

// AdjustParams reconciles a wallet against a real-world balance. A nil
// CurrentBalance means the stored balance.
type AdjustParams struct {
	UserID         string
	Wallet         string
	CurrentBalance *decimal.Decimal
	RealBalance    decimal.Decimal
	Description    string
}

// AdjustResult is the outcome of AdjustBalance. Difference is zero and
// TransactionID is 0 when nothing had to change.
type AdjustResult struct {
	Wallet        string
	Difference    decimal.Decimal
	Type          models.TransactionType
	Amount        decimal.Decimal
	NewBalance    decimal.Decimal
	TransactionID uint
}

// AddIncome records money coming into a wallet.
func (s *Service) AddIncome(ctx context.Context, p EntryParams) (*EntryResult, error) {
	return s.addEntry(ctx, models.TypeIncome, p)
}

// AddExpense records money leaving a wallet. The balance may go negative.
func (s *Service) AddExpense(ctx context.Context, p EntryParams) (*EntryResult, error) {
	if p.Category == "" {
		p.Category = DefaultExpenseCategory
	}
	return s.addEntry(ctx, models.TypeExpense, p)
}

func (s *Service) addEntry(ctx context.Context, typ models.TransactionType, p EntryParams) (*EntryResult, error) {
	if err := checkAmount(p.Amount); err != nil {
		return nil, err
	}
	if p.Wallet == "" {
		p.Wallet = DefaultWallet
	}
	name, err := normalize(p.Wallet)
	if err != nil {
		return nil, ErrWalletNotFound
	}

	res := &EntryResult{WalletName: name}
	err = s.write(ctx, func(tx *gorm.DB) error {
		w, err := findWallet(tx, p.UserID, name)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWalletNotFound
		}
		if err != nil {
			return fmt.Errorf("find wallet: %w", err)
		}

		t := models.Transaction{
			UserID:      p.UserID,
			WalletName:  name,
			Type:        typ,
			Amount:      p.Amount,
			Category:    optional(p.Category),
			Description: p.Description,
			CreatedAt:   s.stamp(p.Date),
		}
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		delta := t.Signed()
		if err := moveBalance(tx, w, delta); err != nil {
			return err
		}
		total, err := bumpCache(tx, p.UserID, delta)
		if err != nil {
			return err
		}

		res.TransactionID = t.ID
		res.WalletBalance = w.Balance
		res.TotalBalance = total
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Transfer moves money between two wallets of the same user. The source
// must hold at least amount. Two transactions are written with one
// timestamp: an expense on the source and an income on the destination.
func (s *Service) Transfer(ctx context.Context, p TransferParams) (*TransferResult, error) {
	if err := checkAmount(p.Amount); err != nil {
		return nil, err
	}
	from, err := normalize(p.From)
	if err != nil {
		return nil, ErrFromWalletNotFound
	}
	to, err := normalize(p.To)
	if err != nil {
		return nil, ErrToWalletNotFound
	}
	if from == to {
		return nil, ErrSameWallet
	}
	desc := p.Description
	if desc == "" {
		desc = "Transfer antar kantong"
	}

	res := &TransferResult{Amount: p.Amount, FromWallet: from, ToWallet: to}
	err = s.write(ctx, func(tx *gorm.DB) error {
		src, err := findWallet(tx, p.UserID, from)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFromWalletNotFound
		}
		if err != nil {
			return fmt.Errorf("find source wallet: %w", err)
		}
		dst, err := findWallet(tx, p.UserID, to)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrToWalletNotFound
		}
		if err != nil {
			return fmt.Errorf("find destination wallet: %w", err)
		}
		if src.Balance.LessThan(p.Amount) {
			return ErrInsufficientBalance
		}

		at := s.stamp(p.Date)
		category := CategoryTransfer
		legs := []models.Transaction{
			{
				UserID:      p.UserID,
				WalletName:  from,
				Type:        models.TypeExpense,
				Amount:      p.Amount,
				Category:    &category,
				Description: fmt.Sprintf("Transfer ke %s: %s", to, desc),
				CreatedAt:   at,
			},
			{
				UserID:      p.UserID,
				WalletName:  to,
				Type:        models.TypeIncome,
				Amount:      p.Amount,
				Category:    &category,
				Description: fmt.Sprintf("Transfer dari %s: %s", from, desc),
				CreatedAt:   at,
			},
		}
		if err := tx.Create(&legs).Error; err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}
		if err := moveBalance(tx, src, p.Amount.Neg()); err != nil {
			return err
		}
		if err := moveBalance(tx, dst, p.Amount); err != nil {
			return err
		}

		res.FromBalance = src.Balance
		res.ToBalance = dst.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// AdjustBalance appends one compensating transaction so the wallet moves by
// RealBalance - CurrentBalance. A zero difference writes nothing.
func (s *Service) AdjustBalance(ctx context.Context, p AdjustParams) (*AdjustResult, error) {
	if err := util.ValidatePrice(p.RealBalance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if p.CurrentBalance != nil {
		if err := util.ValidatePrice(*p.CurrentBalance); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
	}
	name, err := normalize(p.Wallet)
	if err != nil {
		return nil, ErrWalletNotFound
	}

	res := &AdjustResult{Wallet: name}
	err = s.write(ctx, func(tx *gorm.DB) error {
		w, err := findWallet(tx, p.UserID, name)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWalletNotFound
		}
		if err != nil {
			return fmt.Errorf("find wallet: %w", err)
		}

		current := w.Balance
		if p.CurrentBalance != nil {
			current = *p.CurrentBalance
		}
		diff := p.RealBalance.Sub(current)
		res.Difference = diff
		if diff.IsZero() {
			res.NewBalance = w.Balance
			return nil
		}

		typ := models.TypeIncome
		if diff.IsNegative() {
			typ = models.TypeExpense
		}
		desc := p.Description
		if desc == "" {
			desc = fmt.Sprintf("Penyesuaian saldo: %s → %s", current.String(), p.RealBalance.String())
		}
		category := CategoryAdjustment
		t := models.Transaction{
			UserID:      p.UserID,
			WalletName:  name,
			Type:        typ,
			Amount:      diff.Abs(),
			Category:    &category,
			Description: desc,
			CreatedAt:   s.stamp(nil),
		}
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("insert adjustment: %w", err)
		}
		if err := moveBalance(tx, w, diff); err != nil {
			return err
		}
		if _, err := bumpCache(tx, p.UserID, diff); err != nil {
			return err
		}

		res.Type = typ
		res.Amount = t.Amount
		res.NewBalance = w.Balance
		res.TransactionID = t.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// checkAmount accepts positive amounts that a money column stores exactly.
func checkAmount(d decimal.Decimal) error {
	if err := util.ValidateAmount(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return nil
}

// moveBalance adds delta to w and persists it; w is updated in place.
func moveBalance(tx *gorm.DB, w *models.Wallet, delta decimal.Decimal) error {
	next := w.Balance.Add(delta)
	if !util.InMoneyRange(next) {
		return ErrBalanceOutOfRange
	}
	w.Balance = next
	if err := tx.Model(w).Update("balance", w.Balance).Error; err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	return nil
}

// bumpCache adds delta to the user's running total and returns the new value.
func bumpCache(tx *gorm.DB, userID string, delta decimal.Decimal) (decimal.Decimal, error) {
	var cache models.BalanceCache
	err := tx.Where("user_id = ?", userID).First(&cache).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, fmt.Errorf("load balance cache: %w", err)
	}
	cache.UserID = userID
	cache.Balance = cache.Balance.Add(delta)
	if !util.InMoneyRange(cache.Balance) {
		return decimal.Zero, ErrBalanceOutOfRange
	}
	cache.UpdatedAt = time.Now().UTC()

	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
	}).Create(&cache).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("update balance cache: %w", err)
	}
	return cache.Balance, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
