package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"kantong/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddIncomeExpense(t *testing.T) {
	s, db := newTestService(t, time.Now())
	ctx := context.Background()
	mustWallet(t, s, "cash", models.WalletRegular, true)

	res, err := s.AddIncome(ctx, EntryParams{UserID: user, Amount: dec("100000"), Description: "gaji", Wallet: "Cash"})
	require.NoError(t, err)
	assert.NotZero(t, res.TransactionID)
	assert.Equal(t, "cash", res.WalletName)
	assert.True(t, res.WalletBalance.Equal(dec("100000")))
	assert.True(t, res.TotalBalance.Equal(dec("100000")))

	res, err = s.AddExpense(ctx, EntryParams{UserID: user, Amount: dec("30000"), Description: "makan"})
	require.NoError(t, err)
	assert.True(t, res.WalletBalance.Equal(dec("70000")))

	var tx models.Transaction
	require.NoError(t, db.First(&tx, res.TransactionID).Error)
	assert.Equal(t, models.TypeExpense, tx.Type)
	assert.Equal(t, DefaultExpenseCategory, tx.CategoryName())

	var income models.Transaction
	require.NoError(t, db.Where("type = ?", models.TypeIncome).First(&income).Error)
	assert.Nil(t, income.Category)
}

func TestAddEntry_Errors(t *testing.T) {
	s, db := newTestService(t, time.Now())
	ctx := context.Background()

	_, err := s.AddIncome(ctx, EntryParams{UserID: user, Amount: dec("1000"), Wallet: "ghost"})
	assert.ErrorIs(t, err, ErrWalletNotFound)
	_, err = s.AddExpense(ctx, EntryParams{UserID: user, Amount: dec("1000")})
	assert.ErrorIs(t, err, ErrWalletNotFound)

	mustWallet(t, s, "cash", models.WalletRegular, true)
	for _, amt := range []string{"0", "-5000"} {
		_, err = s.AddIncome(ctx, EntryParams{UserID: user, Amount: dec(amt)})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}

	var n int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestAddExpense_CanGoNegative(t *testing.T) {
	s, _ := newTestService(t, time.Now())
	ctx := context.Background()
	mustWallet(t, s, "cash", models.WalletRegular, true)

	res, err := s.AddExpense(ctx, EntryParams{UserID: user, Amount: dec("15000"), Category: "makan"})
	require.NoError(t, err)
	assert.True(t, res.WalletBalance.Equal(dec("-15000")))
}

func TestAddIncome_Backdated(t *testing.T) {
	s, db := newTestService(t, time.Date(2025, 3, 10, 12, 0, 0, 0, jakarta))
	ctx := context.Background()
	mustWallet(t, s, "rekening", models.WalletRegular, true)

	res, err := s.AddIncome(ctx, EntryParams{UserID: user, Amount: dec("1000000"), Wallet: "rekening", Date: at(2024, 11, 25, 0)})
	require.NoError(t, err)

	var tx models.Transaction
	require.NoError(t, db.First(&tx, res.TransactionID).Error)
	assert.True(t, tx.CreatedAt.Equal(*at(2024, 11, 25, 0)))
}

func TestTransfer(t *testing.T) {
	s, db := newTestService(t, time.Now())
	ctx := context.Background()
	mustWallet(t, s, "rekening", models.WalletRegular, true)
	mustWallet(t, s, "tabungan", models.WalletSavings, false)
	_, err := s.AddIncome(ctx, EntryParams{UserID: user, Amount: dec("1000000"), Wallet: "rekening"})
	require.NoError(t, err)

	res, err := s.Transfer(ctx, TransferParams{UserID: user, Amount: dec("650000"), From: "Rekening", To: "tabungan", Description: "simpan"})
	require.NoError(t, err)
	assert.Equal(t, "rekening", res.FromWallet)
	assert.Equal(t, "tabungan", res.ToWallet)
	assert.True(t, res.FromBalance.Equal(dec("350000")))
	assert.True(t, res.ToBalance.Equal(dec("650000")))
	assert.True(t, res.FromBalance.Add(res.ToBalance).Equal(dec("1000000")), "transfer conserves money")

	var legs []models.Transaction
	require.NoError(t, db.Where("category = ?", CategoryTransfer).Order("id").Find(&legs).Error)
	require.Len(t, legs, 2)
	assert.Equal(t, models.TypeExpense, legs[0].Type)
	assert.Equal(t, "rekening", legs[0].WalletName)
	assert.Equal(t, "Transfer ke tabungan: simpan", legs[0].Description)
	assert.Equal(t, models.TypeIncome, legs[1].Type)
	assert.Equal(t, "tabungan", legs[1].WalletName)
	assert.Equal(t, "Transfer dari rekening: simpan", legs[1].Description)
	assert.True(t, legs[0].CreatedAt.Equal(legs[1].CreatedAt))

	// the running total over all wallets is untouched by a transfer
	total, err := s.TotalBalance(ctx, user)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("1000000")))
}

func TestTransfer_Errors(t *testing.T) {
	s, _ := newTestService(t, time.Now())
	ctx := context.Background()
	mustWallet(t, s, "cash", models.WalletRegular, true)
	mustWallet(t, s, "tabungan", models.WalletSavings, false)
	_, err := s.AddIncome(ctx, EntryParams{UserID: user, Amount: dec("70000")})
	require.NoError(t, err)

	_, err = s.Transfer(ctx, TransferParams{UserID: user, Amount: dec("1"), From: "ghost", To: "cash"})
	assert.ErrorIs(t, err, ErrFromWalletNotFound)
	_, err = s.Transfer(ctx, TransferParams{UserID: user, Amount: dec("1"), From: "cash", To: "ghost"})
	assert.ErrorIs(t, err, ErrToWalletNotFound)
	_, err = s.Transfer(ctx, TransferParams{UserID: user, Amount: dec("1"), From: "cash", To: "CASH"})
	assert.ErrorIs(t, err, ErrSameWallet)
	_, err = s.Transfer(ctx, TransferParams{UserID: user, Amount: dec("0"), From: "cash", To: "tabungan"})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = s.Transfer(ctx, TransferParams{UserID: user, Amount: dec("70000.01"), From: "cash", To: "tabungan"})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	cash, err := s.GetWallet(ctx, user, "cash")
	require.NoError(t, err)
	tab, err := s.GetWallet(ctx, user, "tabungan")
	require.NoError(t, err)
	assert.True(t, cash.Balance.Equal(dec("70000")))
	assert.True(t, tab.Balance.IsZero())

	// the whole balance may move
	_, err = s.Transfer(ctx, TransferParams{UserID: user, Amount: dec("70000"), From: "cash", To: "tabungan"})
	assert.NoError(t, err)
}

func TestAdjustBalance(t *testing.T) {
	s, db := newTestService(t, time.Now())
	ctx := context.Background()
	mustWallet(t, s, "tabungan", models.WalletSavings, false)
	mustWallet(t, s, "cash", models.WalletRegular, true)
	_, err := s.AddIncome(ctx, EntryParams{UserID: user, Amount: dec("50000"), Wallet: "tabungan"})
	require.NoError(t, err)

	cur := dec("50000")
	res, err := s.AdjustBalance(ctx, AdjustParams{UserID: user, Wallet: "tabungan", CurrentBalance: &cur, RealBalance: dec("150000")})
	require.NoError(t, err)
	assert.True(t, res.Difference.Equal(dec("100000")))
	assert.Equal(t, models.TypeIncome, res.Type)
	assert.True(t, res.Amount.Equal(dec("100000")))
	assert.True(t, res.NewBalance.Equal(dec("150000")))

	var tx models.Transaction
	require.NoError(t, db.First(&tx, res.TransactionID).Error)
	assert.Equal(t, CategoryAdjustment, tx.CategoryName())

	// downward, using the stored balance
	res, err = s.AdjustBalance(ctx, AdjustParams{UserID: user, Wallet: "tabungan", RealBalance: dec("120000"), Description: "cek atm"})
	require.NoError(t, err)
	assert.True(t, res.Difference.Equal(dec("-30000")))
	assert.Equal(t, models.TypeExpense, res.Type)
	assert.True(t, res.NewBalance.Equal(dec("120000")))
	assert.True(t, signedSum(t, db, "tabungan").Equal(dec("120000")))

	total, err := s.TotalBalance(ctx, user)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("120000")))
}

func TestAdjustBalance_NoOp(t *testing.T) {
	s, db := newTestService(t, time.Now())
	ctx := context.Background()
	mustWallet(t, s, "cash", models.WalletRegular, true)
	_, err := s.AddIncome(ctx, EntryParams{UserID: user, Amount: dec("20000")})
	require.NoError(t, err)

	res, err := s.AdjustBalance(ctx, AdjustParams{UserID: user, Wallet: "cash", RealBalance: dec("20000")})
	require.NoError(t, err)
	assert.True(t, res.Difference.IsZero())
	assert.Zero(t, res.TransactionID)
	assert.True(t, res.NewBalance.Equal(dec("20000")))

	var n int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	_, err = s.AdjustBalance(ctx, AdjustParams{UserID: user, Wallet: "ghost", RealBalance: dec("1")})
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

// The walkthrough from the product docs: income, expense, savings wallet
// excluded from the total, transfer, then reconciliation.
func TestScenario_CashAndSavings(t *testing.T) {
	s, db := newTestService(t, time.Now())
	ctx := context.Background()

	mustWallet(t, s, "cash", models.WalletRegular, true)
	_, err := s.AddIncome(ctx, EntryParams{UserID: user, Amount: dec("100000"), Description: "gaji", Wallet: "cash"})
	require.NoError(t, err)
	bal, err := s.GetBalance(ctx, user)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("100000")))

	_, err = s.AddExpense(ctx, EntryParams{UserID: user, Amount: dec("30000"), Description: "makan", Wallet: "cash"})
	require.NoError(t, err)
	bal, err = s.GetBalance(ctx, user)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("70000")))

	mustWallet(t, s, "tabungan", models.WalletSavings, false)
	_, err = s.Transfer(ctx, TransferParams{UserID: user, Amount: dec("50000"), From: "cash", To: "tabungan"})
	require.NoError(t, err)

	cash, _ := s.GetWallet(ctx, user, "cash")
	tab, _ := s.GetWallet(ctx, user, "tabungan")
	assert.True(t, cash.Balance.Equal(dec("20000")))
	assert.True(t, tab.Balance.Equal(dec("50000")))
	bal, err = s.GetBalance(ctx, user)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("20000")), "savings excluded from headline total")

	cur := dec("50000")
	_, err = s.AdjustBalance(ctx, AdjustParams{UserID: user, Wallet: "tabungan", CurrentBalance: &cur, RealBalance: dec("150000")})
	require.NoError(t, err)
	tab, _ = s.GetWallet(ctx, user, "tabungan")
	assert.True(t, tab.Balance.Equal(dec("150000")))

	// flipping include_in_total changes only the headline
	include := true
	_, err = s.UpdateWallet(ctx, user, "tabungan", WalletUpdate{IncludeInTotal: &include})
	require.NoError(t, err)
	bal, err = s.GetBalance(ctx, user)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("170000")))
	tab, _ = s.GetWallet(ctx, user, "tabungan")
	assert.True(t, tab.Balance.Equal(dec("150000")))

	for _, name := range []string{"cash", "tabungan"} {
		w, err := s.GetWallet(ctx, user, name)
		require.NoError(t, err)
		assert.True(t, w.Balance.Equal(signedSum(t, db, name)), "%s balance equals its log", name)
	}
}

func TestConcurrentTransfers_NeverOverdraw(t *testing.T) {
	s, db := newTestService(t, time.Now())
	ctx := context.Background()
	mustWallet(t, s, "cash", models.WalletRegular, true)
	mustWallet(t, s, "tabungan", models.WalletSavings, true)
	_, err := s.AddIncome(ctx, EntryParams{UserID: user, Amount: dec("100000")})
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Transfer(ctx, TransferParams{UserID: user, Amount: dec("30000"), From: "cash", To: "tabungan"})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	cash, _ := s.GetWallet(ctx, user, "cash")
	assert.True(t, cash.Balance.Equal(dec("10000")))
	assert.True(t, cash.Balance.Equal(signedSum(t, db, "cash")))
	assert.True(t, decimal.Zero.LessThanOrEqual(cash.Balance))
}

func TestMoneyPrecision_BalanceMatchesLog(t *testing.T) {
	s, db := newTestService(t, time.Now())
	ctx := context.Background()
	mustWallet(t, s, "cash", models.WalletRegular, true)
	mustWallet(t, s, "tabungan", models.WalletSavings, false)

	expected := decimal.Zero
	for _, amt := range []string{"1234567890123.45", "0.1", "0.2", "987654321098.76", "0.01"} {
		_, err := s.AddIncome(ctx, EntryParams{UserID: user, Amount: dec(amt), Wallet: "cash"})
		require.NoError(t, err, amt)
		expected = expected.Add(dec(amt))
	}
	_, err := s.AddExpense(ctx, EntryParams{UserID: user, Amount: dec("0.07"), Wallet: "cash"})
	require.NoError(t, err)
	expected = expected.Sub(dec("0.07"))
	_, err = s.Transfer(ctx, TransferParams{UserID: user, Amount: dec("0.33"), From: "cash", To: "tabungan"})
	require.NoError(t, err)
	expected = expected.Sub(dec("0.33"))

	for _, amt := range []string{"123456789012345.67", "10000000000000", "0.001", "12.345"} {
		_, err := s.AddIncome(ctx, EntryParams{UserID: user, Amount: dec(amt), Wallet: "cash"})
		assert.ErrorIs(t, err, ErrInvalidAmount, amt)
		_, err = s.Transfer(ctx, TransferParams{UserID: user, Amount: dec(amt), From: "cash", To: "tabungan"})
		assert.ErrorIs(t, err, ErrInvalidAmount, amt)
	}

	cash, err := s.GetWallet(ctx, user, "cash")
	require.NoError(t, err)
	assert.True(t, cash.Balance.Equal(expected), "stored %s, want %s", cash.Balance, expected)
	assert.True(t, cash.Balance.Equal(signedSum(t, db, "cash")))

	tab, err := s.GetWallet(ctx, user, "tabungan")
	require.NoError(t, err)
	assert.True(t, tab.Balance.Equal(dec("0.33")))
	assert.True(t, tab.Balance.Equal(signedSum(t, db, "tabungan")))
}

func TestBalanceOutOfRange_RollsBack(t *testing.T) {
	s, db := newTestService(t, time.Now())
	ctx := context.Background()
	mustWallet(t, s, "cash", models.WalletRegular, true)

	top := dec("9999999999999.99")
	_, err := s.AddIncome(ctx, EntryParams{UserID: user, Amount: top, Wallet: "cash"})
	require.NoError(t, err)

	_, err = s.AddIncome(ctx, EntryParams{UserID: user, Amount: dec("0.01"), Wallet: "cash"})
	assert.ErrorIs(t, err, ErrBalanceOutOfRange)

	cash, err := s.GetWallet(ctx, user, "cash")
	require.NoError(t, err)
	assert.True(t, cash.Balance.Equal(top))
	assert.True(t, cash.Balance.Equal(signedSum(t, db, "cash")))

	var n int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestAdjustBalance_RejectsInvalidFigures(t *testing.T) {
	s, _ := newTestService(t, time.Now())
	ctx := context.Background()
	mustWallet(t, s, "cash", models.WalletRegular, true)

	for _, v := range []string{"-1", "0.005", "10000000000000"} {
		_, err := s.AdjustBalance(ctx, AdjustParams{UserID: user, Wallet: "cash", RealBalance: dec(v)})
		assert.ErrorIs(t, err, ErrInvalidAmount, v)
	}

	res, err := s.AdjustBalance(ctx, AdjustParams{UserID: user, Wallet: "cash", RealBalance: dec("2500.50")})
	require.NoError(t, err)
	assert.True(t, res.NewBalance.Equal(dec("2500.5")))
}
