package ledger

import (
	"context"
	"testing"
	"time"

	"kantong/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedReport fills a ledger whose clock reads 2025-02-15 10:00 WIB.
func seedReport(t *testing.T) *Service {
	t.Helper()
	s, _ := newTestService(t, time.Date(2025, 2, 15, 10, 0, 0, 0, jakarta))
	ctx := context.Background()
	mustWallet(t, s, "rekening", models.WalletRegular, true)

	entries := []struct {
		typ  models.TransactionType
		amt  string
		cat  string
		desc string
		when *time.Time
	}{
		{models.TypeExpense, "5000", "zakat", "zakat", at(2024, 12, 10, 9)},
		{models.TypeExpense, "5000", "buku", "buku tulis", at(2024, 12, 11, 9)},
		{models.TypeIncome, "500000", "", "gaji", at(2025, 1, 5, 9)},
		{models.TypeExpense, "50000", "makan", "makan siang", at(2025, 1, 20, 12)},
		{models.TypeExpense, "20000", "transport", "ojek", at(2025, 1, 31, 23)},
		// early morning in WIB is February although UTC still says January
		{models.TypeExpense, "10000", "makan", "sarapan", at(2025, 2, 1, 6)},
		{models.TypeIncome, "100000", "", "bonus", at(2025, 2, 15, 8)},
	}
	for _, e := range entries {
		p := EntryParams{UserID: user, Amount: dec(e.amt), Wallet: "rekening", Category: e.cat, Description: e.desc, Date: e.when}
		var err error
		if e.typ == models.TypeIncome {
			_, err = s.AddIncome(ctx, p)
		} else {
			_, err = s.AddExpense(ctx, p)
		}
		require.NoError(t, err)
	}
	return s
}

func TestPeriodRange(t *testing.T) {
	now := time.Date(2025, 3, 31, 22, 30, 0, 0, jakarta)

	r, err := PeriodRange(PeriodToday, "", now, jakarta)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, jakarta), r.Start)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, jakarta), r.End)

	r, err = PeriodRange(PeriodThisMonth, "", now, jakarta)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, jakarta), r.Start)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, jakarta), r.End)

	r, err = PeriodRange(PeriodLastMonth, "", now, jakarta)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, jakarta), r.Start)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, jakarta), r.End)

	r, err = PeriodRange(PeriodSpecificMonth, "2024-12", now, jakarta)
	require.NoError(t, err)
	assert.True(t, r.Contains(time.Date(2024, 12, 31, 23, 59, 0, 0, jakarta)))
	assert.False(t, r.Contains(time.Date(2025, 1, 1, 0, 0, 0, 0, jakarta)))

	for _, p := range []Period{PeriodAllTime, ""} {
		r, err = PeriodRange(p, "", now, jakarta)
		require.NoError(t, err)
		assert.False(t, r.Bounded())
	}

	r, err = PeriodRange(PeriodSpecificMonth, "", now, jakarta)
	require.NoError(t, err)
	assert.False(t, r.Bounded(), "missing month means no filter")

	_, err = PeriodRange(PeriodSpecificMonth, "2024-13", now, jakarta)
	assert.ErrorIs(t, err, ErrInvalidMonth)
	_, err = PeriodRange(Period("weekly"), "", now, jakarta)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestGetHistoryByPeriod_SpecificMonth(t *testing.T) {
	s := seedReport(t)
	ctx := context.Background()

	txs, err := s.GetHistoryByPeriod(ctx, user, PeriodSpecificMonth, "2025-01", 0)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "ojek", txs[0].Description)
	assert.Equal(t, "makan siang", txs[1].Description)
	assert.Equal(t, "gaji", txs[2].Description)

	txs, err = s.GetHistoryByPeriod(ctx, user, PeriodSpecificMonth, "2025-01", 2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "ojek", txs[0].Description)

	txs, err = s.GetHistoryByPeriod(ctx, user, PeriodSpecificMonth, "", 100)
	require.NoError(t, err)
	assert.Len(t, txs, 7)

	_, err = s.GetHistoryByPeriod(ctx, user, PeriodSpecificMonth, "januari", 10)
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestGetHistory(t *testing.T) {
	s := seedReport(t)
	ctx := context.Background()

	txs, err := s.GetHistory(ctx, user, 0)
	require.NoError(t, err)
	require.Len(t, txs, 7)
	assert.Equal(t, "bonus", txs[0].Description)
	assert.Equal(t, "zakat", txs[6].Description)

	txs, err = s.GetHistoryByPeriod(ctx, user, PeriodToday, "", 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "bonus", txs[0].Description)

	txs, err = s.GetHistory(ctx, "stranger@c.us", 5)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestGetStats(t *testing.T) {
	s := seedReport(t)
	ctx := context.Background()

	cases := []struct {
		period          Period
		month           string
		income, expense string
		inN, outN       int
	}{
		{PeriodToday, "", "100000", "0", 1, 0},
		{PeriodThisMonth, "", "100000", "10000", 1, 1},
		{PeriodLastMonth, "", "500000", "70000", 1, 2},
		{PeriodSpecificMonth, "2024-12", "0", "10000", 0, 2},
		{PeriodAllTime, "", "600000", "90000", 2, 5},
	}
	for _, c := range cases {
		st, err := s.GetStats(ctx, user, c.period, c.month)
		require.NoError(t, err, c.period)
		assert.True(t, st.Income.Equal(dec(c.income)), "%s income %s", c.period, st.Income)
		assert.True(t, st.Expense.Equal(dec(c.expense)), "%s expense %s", c.period, st.Expense)
		assert.Equal(t, c.inN, st.IncomeCount, c.period)
		assert.Equal(t, c.outN, st.ExpenseCount, c.period)
	}

	st, err := s.GetStats(ctx, user, PeriodLastMonth, "")
	require.NoError(t, err)
	assert.True(t, st.Net().Equal(dec("430000")))
}

func TestGetCategoryStats(t *testing.T) {
	s := seedReport(t)
	ctx := context.Background()

	cats, err := s.GetCategoryStats(ctx, user, PeriodLastMonth, "")
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "makan", cats[0].Category)
	assert.True(t, cats[0].Total.Equal(dec("50000")))
	assert.Equal(t, "transport", cats[1].Category)

	// equal totals fall back to name order
	cats, err = s.GetCategoryStats(ctx, user, PeriodSpecificMonth, "2024-12")
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "buku", cats[0].Category)
	assert.Equal(t, "zakat", cats[1].Category)

	cats, err = s.GetCategoryStats(ctx, user, PeriodAllTime, "")
	require.NoError(t, err)
	require.NotEmpty(t, cats)
	assert.Equal(t, "makan", cats[0].Category)
	assert.True(t, cats[0].Total.Equal(dec("60000")))
	assert.Equal(t, 2, cats[0].Count)
}

func TestGetMonthlyTrends(t *testing.T) {
	s := seedReport(t)

	trends, err := s.GetMonthlyTrends(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, trends, 3)

	assert.Equal(t, "2024-12", trends[0].Month)
	assert.True(t, trends[0].Income.IsZero())
	assert.True(t, trends[0].Expense.Equal(dec("10000")))

	assert.Equal(t, "2025-01", trends[1].Month)
	assert.True(t, trends[1].Income.Equal(dec("500000")))
	assert.True(t, trends[1].Expense.Equal(dec("70000")))

	assert.Equal(t, "2025-02", trends[2].Month)
	assert.True(t, trends[2].Expense.Equal(dec("10000")))
}

func TestGetFirstTransactionDate(t *testing.T) {
	s := seedReport(t)
	ctx := context.Background()

	first, err := s.GetFirstTransactionDate(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, first.Equal(*at(2024, 12, 10, 9)))

	none, err := s.GetFirstTransactionDate(ctx, "stranger@c.us")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestGetTransactions(t *testing.T) {
	s := seedReport(t)
	ctx := context.Background()

	txs, err := s.GetTransactions(ctx, user, PeriodThisMonth, "", "")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "sarapan", txs[0].Description)
	assert.Equal(t, "bonus", txs[1].Description)

	txs, err = s.GetTransactions(ctx, user, PeriodLastMonth, "", models.TypeIncome)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "gaji", txs[0].Description)

	_, err = s.GetTransactions(ctx, user, PeriodSpecificMonth, "2025-13", "")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}
