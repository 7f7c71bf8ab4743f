package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"kantong/internal/models"

	"github.com/shopspring/decimal"
)

// TypeStats holds income and expense totals for a period.
type TypeStats struct {
	Income       decimal.Decimal
	Expense      decimal.Decimal
	IncomeCount  int
	ExpenseCount int
}

func (s TypeStats) Net() decimal.Decimal {
	return s.Income.Sub(s.Expense)
}

// CategoryStat is the expense total of one category.
type CategoryStat struct {
	Category string
	Total    decimal.Decimal
	Count    int
}

// MonthTrend is one month ("2025-01") of income and expense.
type MonthTrend struct {
	Month   string
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// GetBalance sums the wallets included in the headline total.
func (s *Service) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var wallets []models.Wallet
	err := s.read(ctx).
		Where("user_id = ? AND include_in_total = ?", userID, true).
		Find(&wallets).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum balances: %w", err)
	}
	total := decimal.Zero
	for _, w := range wallets {
		total = total.Add(w.Balance)
	}
	return total, nil
}

// GetHistory returns the latest transactions, newest first.
func (s *Service) GetHistory(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.history(ctx, userID, Range{}, limit)
}

// GetHistoryByPeriod returns the period's transactions, newest first.
func (s *Service) GetHistoryByPeriod(ctx context.Context, userID string, period Period, yearMonth string, limit int) ([]models.Transaction, error) {
	r, err := PeriodRange(period, yearMonth, s.now(), s.loc)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPeriodLimit
	}
	return s.history(ctx, userID, r, limit)
}

func (s *Service) history(ctx context.Context, userID string, r Range, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	q := r.scope(s.read(ctx).Where("user_id = ?", userID))
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return txs, nil
}

// transactions loads every transaction of the range for in-memory grouping,
// which keeps decimal sums exact.
func (s *Service) transactions(ctx context.Context, userID string, r Range, typ models.TransactionType) ([]models.Transaction, error) {
	var txs []models.Transaction
	q := r.scope(s.read(ctx).Where("user_id = ?", userID))
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	if err := q.Order("created_at").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return txs, nil
}

// GetTransactions returns every transaction of the period, oldest first,
// optionally restricted to one type.
func (s *Service) GetTransactions(ctx context.Context, userID string, period Period, yearMonth string, typ models.TransactionType) ([]models.Transaction, error) {
	r, err := PeriodRange(period, yearMonth, s.now(), s.loc)
	if err != nil {
		return nil, err
	}
	return s.transactions(ctx, userID, r, typ)
}

// GetStats totals income and expense for the period.
func (s *Service) GetStats(ctx context.Context, userID string, period Period, yearMonth string) (TypeStats, error) {
	stats := TypeStats{Income: decimal.Zero, Expense: decimal.Zero}
	r, err := PeriodRange(period, yearMonth, s.now(), s.loc)
	if err != nil {
		return stats, err
	}
	txs, err := s.transactions(ctx, userID, r, "")
	if err != nil {
		return stats, err
	}
	for _, t := range txs {
		switch t.Type {
		case models.TypeIncome:
			stats.Income = stats.Income.Add(t.Amount)
			stats.IncomeCount++
		case models.TypeExpense:
			stats.Expense = stats.Expense.Add(t.Amount)
			stats.ExpenseCount++
		}
	}
	return stats, nil
}

// GetCategoryStats groups the period's expenses by category, largest total
// first. Uncategorized expenses count as "lainnya".
func (s *Service) GetCategoryStats(ctx context.Context, userID string, period Period, yearMonth string) ([]CategoryStat, error) {
	r, err := PeriodRange(period, yearMonth, s.now(), s.loc)
	if err != nil {
		return nil, err
	}
	txs, err := s.transactions(ctx, userID, r, models.TypeExpense)
	if err != nil {
		return nil, err
	}

	byCat := map[string]*CategoryStat{}
	for _, t := range txs {
		name := t.CategoryName()
		if name == "" {
			name = DefaultExpenseCategory
		}
		cs, ok := byCat[name]
		if !ok {
			cs = &CategoryStat{Category: name, Total: decimal.Zero}
			byCat[name] = cs
		}
		cs.Total = cs.Total.Add(t.Amount)
		cs.Count++
	}

	out := make([]CategoryStat, 0, len(byCat))
	for _, cs := range byCat {
		out = append(out, *cs)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// GetMonthlyTrends returns per-month income and expense over all time,
// oldest month first.
func (s *Service) GetMonthlyTrends(ctx context.Context, userID string) ([]MonthTrend, error) {
	txs, err := s.transactions(ctx, userID, Range{}, "")
	if err != nil {
		return nil, err
	}

	byMonth := map[string]*MonthTrend{}
	var months []string
	for _, t := range txs {
		key := t.CreatedAt.In(s.loc).Format("2006-01")
		mt, ok := byMonth[key]
		if !ok {
			mt = &MonthTrend{Month: key, Income: decimal.Zero, Expense: decimal.Zero}
			byMonth[key] = mt
			months = append(months, key)
		}
		if t.Type == models.TypeIncome {
			mt.Income = mt.Income.Add(t.Amount)
		} else {
			mt.Expense = mt.Expense.Add(t.Amount)
		}
	}

	sort.Strings(months)
	out := make([]MonthTrend, 0, len(months))
	for _, m := range months {
		out = append(out, *byMonth[m])
	}
	return out, nil
}

// GetFirstTransactionDate returns nil when the user has no transactions.
func (s *Service) GetFirstTransactionDate(ctx context.Context, userID string) (*time.Time, error) {
	var txs []models.Transaction
	err := s.read(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Limit(1).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("first transaction: %w", err)
	}
	if len(txs) == 0 {
		return nil, nil
	}
	first := txs[0].CreatedAt.In(s.loc)
	return &first, nil
}

// TotalBalance returns the running total across every wallet of the user.
func (s *Service) TotalBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var caches []models.BalanceCache
	if err := s.read(ctx).Where("user_id = ?", userID).Limit(1).Find(&caches).Error; err != nil {
		return decimal.Zero, fmt.Errorf("load balance cache: %w", err)
	}
	if len(caches) == 0 {
		return decimal.Zero, nil
	}
	return caches[0].Balance, nil
}
