package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kantong/internal/decision"
	"kantong/internal/export"
	"kantong/internal/ledger"
	"kantong/internal/models"

	"github.com/shopspring/decimal"
)

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

func monthName(m time.Month) string {
	return monthNames[m-1]
}

// periodLabel names a period for titles; month names are written out for
// the stats screen.
func (b *Bot) periodLabel(p ledger.Period, month string, longMonth bool) string {
	now := b.ledger.Now()
	switch p {
	case ledger.PeriodToday:
		return "Hari Ini"
	case ledger.PeriodThisMonth:
		if longMonth {
			return fmt.Sprintf("%s %d", monthName(now.Month()), now.Year())
		}
		return "Bulan Ini"
	case ledger.PeriodLastMonth:
		if longMonth {
			last := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
			return fmt.Sprintf("%s %d", monthName(last.Month()), last.Year())
		}
		return "Bulan Lalu"
	case ledger.PeriodSpecificMonth:
		if t, err := time.Parse("2006-01", month); err == nil && longMonth {
			return fmt.Sprintf("%s %d", monthName(t.Month()), t.Year())
		}
		return month
	case ledger.PeriodAllTime:
		return "Semua"
	}
	return string(p)
}

func (b *Bot) history(ctx context.Context, user string, c decision.ShowHistory) (Reply, error) {
	limit := c.Limit
	if limit <= 0 {
		limit = b.historyLimit
	}
	txs, err := b.ledger.GetHistoryByPeriod(ctx, user, c.Period, c.Month, limit)
	if err != nil {
		return Reply{}, err
	}

	label := b.periodLabel(c.Period, c.Month, false)
	if c.Period == ledger.PeriodAllTime {
		label = fmt.Sprintf("Semua (%d transaksi)", len(txs))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 *Riwayat Transaksi %s*\n\n", label)
	if len(txs) == 0 {
		sb.WriteString("Belum ada transaksi.")
	}
	loc := b.ledger.Location()
	for i, t := range txs {
		icon, kind, sign := "📈", "Pemasukan", "+"
		if t.Type == models.TypeExpense {
			icon, kind, sign = "📉", "Pengeluaran", "-"
		}
		fmt.Fprintf(&sb, "%d. %s *%s*\n   %s%s\n", i+1, icon, kind, sign, rp(t.Amount))
		if t.Description != "" {
			fmt.Fprintf(&sb, "   📝 %s\n", t.Description)
		}
		if cat := t.CategoryName(); cat != "" {
			fmt.Fprintf(&sb, "   🏷️ %s\n", cat)
		}
		fmt.Fprintf(&sb, "   💼 %s\n", t.WalletName)
		fmt.Fprintf(&sb, "   🕐 %s\n\n", t.CreatedAt.In(loc).Format("02/01/2006 15:04"))
	}

	total, err := b.ledger.GetBalance(ctx, user)
	if err != nil {
		return Reply{}, err
	}
	fmt.Fprintf(&sb, "\n💰 *Saldo Saat Ini*: %s", rp(total))
	return Reply{Text: strings.TrimSpace(sb.String())}, nil
}

func percent(part, whole decimal.Decimal) string {
	if whole.IsZero() {
		return "0.0%"
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

func (b *Bot) stats(ctx context.Context, user string, c decision.ShowStats) (Reply, error) {
	st, err := b.ledger.GetStats(ctx, user, c.Period, c.Month)
	if err != nil {
		return Reply{}, err
	}
	cats, err := b.ledger.GetCategoryStats(ctx, user, c.Period, c.Month)
	if err != nil {
		return Reply{}, err
	}
	balance, err := b.ledger.GetBalance(ctx, user)
	if err != nil {
		return Reply{}, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Statistik %s*\n\n", b.periodLabel(c.Period, c.Month, true))
	fmt.Fprintf(&sb, "📈 Pemasukan: %s (%d transaksi)\n", rp(st.Income), st.IncomeCount)
	fmt.Fprintf(&sb, "📉 Pengeluaran: %s (%d transaksi)\n\n", rp(st.Expense), st.ExpenseCount)

	if len(cats) == 0 {
		sb.WriteString("_Belum ada pengeluaran di periode ini_\n")
	} else {
		sb.WriteString("🏷️ *Pengeluaran per Kategori:*\n")
		for _, cs := range cats {
			fmt.Fprintf(&sb, "• %s: %s (%s)\n", cs.Category, rp(cs.Total), percent(cs.Total, st.Expense))
		}
	}

	if c.Period == ledger.PeriodAllTime {
		if err := b.writeTrends(ctx, &sb, user); err != nil {
			return Reply{}, err
		}
	}

	fmt.Fprintf(&sb, "\n💰 Saldo: %s\n", rp(balance))
	fmt.Fprintf(&sb, "📊 Net: %s", rp(st.Net()))
	return Reply{Text: sb.String()}, nil
}

func (b *Bot) writeTrends(ctx context.Context, sb *strings.Builder, user string) error {
	trends, err := b.ledger.GetMonthlyTrends(ctx, user)
	if err != nil {
		return err
	}
	if len(trends) == 0 {
		return nil
	}
	first, err := b.ledger.GetFirstTransactionDate(ctx, user)
	if err != nil {
		return err
	}
	sb.WriteString("\n📅 *Tren Bulanan:*\n")
	if first != nil {
		fmt.Fprintf(sb, "_Sejak %s_\n", first.In(b.ledger.Location()).Format("02/01/2006"))
	}
	for _, t := range trends {
		label := t.Month
		if m, err := time.Parse("2006-01", t.Month); err == nil {
			label = fmt.Sprintf("%s %d", monthName(m.Month())[:3], m.Year())
		}
		fmt.Fprintf(sb, "• %s: +%s / -%s\n", label, rp(t.Income), rp(t.Expense))
	}
	return nil
}

func (b *Bot) wallets(ctx context.Context, user string) (Reply, error) {
	wallets, err := b.ledger.ListWallets(ctx, user)
	if err != nil {
		return Reply{}, err
	}
	if len(wallets) == 0 {
		return Reply{Text: "🏦 *Belum ada kantong*\n\nBuat kantong baru, contoh: \"buat kantong tabungan\""}, nil
	}
	total, err := b.ledger.GetBalance(ctx, user)
	if err != nil {
		return Reply{}, err
	}

	var sb strings.Builder
	sb.WriteString("🏦 *Daftar Kantong*\n\n")
	for _, w := range wallets {
		fmt.Fprintf(&sb, "%s *%s*", walletIcon(w), w.Name)
		if !w.IncludeInTotal {
			sb.WriteString(" (tidak dihitung)")
		}
		fmt.Fprintf(&sb, "\n   Saldo: %s\n   Tipe: %s\n\n", rp(w.Balance), w.Type)
	}
	fmt.Fprintf(&sb, "💰 *Total Saldo*: %s", rp(total))
	return Reply{Text: sb.String()}, nil
}

var exportNouns = map[decision.ExportType]string{
	decision.ExportAll:     "transaksi",
	decision.ExportIncome:  "pemasukan",
	decision.ExportExpense: "pengeluaran",
}

var exportTitles = map[decision.ExportType]string{
	decision.ExportAll:     "Semua Transaksi",
	decision.ExportIncome:  "Pemasukan",
	decision.ExportExpense: "Pengeluaran",
}

func (b *Bot) exportExcel(ctx context.Context, user string, c decision.ExportExcel) (Reply, error) {
	if b.exporter == nil {
		return Reply{}, errExportDisabled
	}
	var typ models.TransactionType
	switch c.Type {
	case decision.ExportIncome:
		typ = models.TypeIncome
	case decision.ExportExpense:
		typ = models.TypeExpense
	}
	txs, err := b.ledger.GetTransactions(ctx, user, c.Period, c.Month, typ)
	if err != nil {
		return Reply{}, err
	}
	label := strings.ToLower(b.periodLabel(c.Period, c.Month, true))
	if len(txs) == 0 {
		return Reply{Text: fmt.Sprintf("📊 Tidak ada %s %s", exportNouns[c.Type], label)}, nil
	}
	wallets, err := b.ledger.ListWallets(ctx, user)
	if err != nil {
		return Reply{}, err
	}

	res, err := b.exporter.ExportTransactions(export.Request{
		UserID:       user,
		Filter:       export.Filter(c.Type),
		Wallets:      wallets,
		Transactions: txs,
	})
	if err != nil {
		return Reply{}, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Export %s*\nPeriode: %s\n\n", exportTitles[c.Type], label)
	fmt.Fprintf(&sb, "Jumlah transaksi: %d\n", res.Count)
	if c.Type != decision.ExportExpense {
		fmt.Fprintf(&sb, "Total Pemasukan: %s\n", rp(res.TotalIncome))
	}
	if c.Type != decision.ExportIncome {
		fmt.Fprintf(&sb, "Total Pengeluaran: %s\n", rp(res.TotalExpense))
	}
	if c.Type == decision.ExportAll {
		fmt.Fprintf(&sb, "Net: %s\n", rp(res.Net()))
	}
	return Reply{
		Text:        strings.TrimSpace(sb.String()),
		Attachments: []Attachment{{Path: res.FilePath, FileName: res.FileName, MIME: mimeXLSX}},
	}, nil
}

func (b *Bot) backup(ctx context.Context) (Reply, error) {
	if b.backups == nil {
		return Reply{}, errBackupDisabled
	}
	if _, err := b.backups.SendToOwner(ctx); err != nil {
		return Reply{Text: fmt.Sprintf("❌ Gagal backup database: %v", err)}, nil
	}
	return Reply{Text: "✅ Backup database berhasil dikirim ke owner!"}, nil
}
