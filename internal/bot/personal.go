package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kantong/internal/decision"
	"kantong/internal/ledger"
	"kantong/internal/models"
	"kantong/internal/util"
)

var rp = util.FormatRupiah

func walletIcon(w models.Wallet) string {
	if w.Type == models.WalletSavings {
		return "🐷"
	}
	return "💼"
}

// atClock puts a date-only value on the current wall clock in loc so
// back-dated entries still sort by entry time within the day.
func (b *Bot) atClock(date *time.Time) *time.Time {
	if date == nil {
		return nil
	}
	loc := b.ledger.Location()
	now := b.ledger.Now()
	t := time.Date(date.Year(), date.Month(), date.Day(),
		now.Hour(), now.Minute(), now.Second(), 0, loc)
	return &t
}

func (b *Bot) dateLabel(date *time.Time) string {
	if date == nil {
		return "hari ini"
	}
	return date.Format("2006-01-02")
}

func (b *Bot) checkBalance(ctx context.Context, user string, c decision.CheckBalance) (Reply, error) {
	if c.Wallet != "" {
		return b.checkWalletBalance(ctx, user, c.Wallet)
	}
	total, err := b.ledger.GetBalance(ctx, user)
	if err != nil {
		return Reply{}, err
	}
	wallets, err := b.ledger.ListWallets(ctx, user)
	if err != nil {
		return Reply{}, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 *Saldo Total*\n%s", rp(total))
	if len(wallets) > 0 {
		sb.WriteString("\n\n📊 *Per Kantong:*")
		for _, w := range wallets {
			fmt.Fprintf(&sb, "\n%s %s: %s", walletIcon(w), w.Name, rp(w.Balance))
			if !w.IncludeInTotal {
				sb.WriteString(" _(tidak dihitung)_")
			}
		}
	}
	return Reply{Text: sb.String()}, nil
}

func (b *Bot) checkWalletBalance(ctx context.Context, user, name string) (Reply, error) {
	w, err := b.ledger.GetWallet(ctx, user, name)
	if errors.Is(err, ledger.ErrNotFound) {
		return Reply{Text: fmt.Sprintf("❌ Kantong *%s* tidak ditemukan.", name)}, nil
	}
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("💰 Saldo *%s*: %s", w.Name, rp(w.Balance))}, nil
}

func (b *Bot) adjust(ctx context.Context, user string, c decision.Adjustment) (Reply, error) {
	wallet := c.Wallet
	if wallet == "" {
		wallet = b.defaultWallet
	}
	res, err := b.ledger.AdjustBalance(ctx, ledger.AdjustParams{
		UserID:      user,
		Wallet:      wallet,
		RealBalance: c.RealBalance,
		Description: c.Description,
	})
	if err != nil {
		return Reply{}, err
	}
	if res.Difference.IsZero() {
		return Reply{Text: fmt.Sprintf("ℹ️ Saldo %s sudah sesuai (%s)", res.Wallet, rp(res.NewBalance))}, nil
	}

	recorded := c.RealBalance.Sub(res.Difference)
	sign := "+"
	if res.Difference.IsNegative() {
		sign = "-"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Adjustment %s: %s%s\n\n", res.Wallet, sign, rp(res.Amount))
	fmt.Fprintf(&sb, "Kantong: %s\n", res.Wallet)
	fmt.Fprintf(&sb, "Saldo tercatat: %s\n", rp(recorded))
	fmt.Fprintf(&sb, "Saldo sebenarnya: %s\n", rp(c.RealBalance))
	fmt.Fprintf(&sb, "Selisih: %s%s\n\n", sign, rp(res.Amount))
	fmt.Fprintf(&sb, "💰 Saldo baru: %s", rp(res.NewBalance))
	return Reply{Text: sb.String()}, nil
}

func (b *Bot) entry(ctx context.Context, user string, typ models.TransactionType, e decision.Entry) (Reply, error) {
	wallet := e.Wallet
	if wallet == "" {
		w, err := b.ledger.GetOrCreateWallet(ctx, user, b.defaultWallet)
		if err != nil {
			return Reply{}, err
		}
		wallet = w.Name
	}
	p := ledger.EntryParams{
		UserID:      user,
		Amount:      e.Amount,
		Description: e.Description,
		Wallet:      wallet,
		Category:    e.Category,
		Date:        b.atClock(e.Date),
	}

	var (
		res *ledger.EntryResult
		err error
	)
	if typ == models.TypeIncome {
		res, err = b.ledger.AddIncome(ctx, p)
	} else {
		res, err = b.ledger.AddExpense(ctx, p)
	}
	if err != nil {
		return Reply{}, err
	}

	if typ == models.TypeIncome {
		return Reply{Text: fmt.Sprintf("✅ Pemasukan %s ke %s (%s)\n💰 Saldo %s: %s",
			rp(e.Amount), res.WalletName, b.dateLabel(e.Date), res.WalletName, rp(res.WalletBalance))}, nil
	}
	return Reply{Text: fmt.Sprintf("✅ Pengeluaran %s dari %s (%s)\n💰 Saldo %s: %s",
		rp(e.Amount), res.WalletName, b.dateLabel(e.Date), res.WalletName, rp(res.WalletBalance))}, nil
}

func (b *Bot) transfer(ctx context.Context, user string, c decision.Transfer) (Reply, error) {
	res, err := b.ledger.Transfer(ctx, ledger.TransferParams{
		UserID:      user,
		Amount:      c.Amount,
		From:        c.From,
		To:          c.To,
		Description: c.Description,
		Date:        b.atClock(c.Date),
	})
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("✅ Transfer %s: %s → %s\n%s: %s\n%s: %s",
		rp(res.Amount), res.FromWallet, res.ToWallet,
		res.FromWallet, rp(res.FromBalance), res.ToWallet, rp(res.ToBalance))}, nil
}

func (b *Bot) createWallet(ctx context.Context, user string, c decision.CreateWallet) (Reply, error) {
	w, err := b.ledger.CreateWallet(ctx, user, c.Name, c.Type, c.IncludeInTotal)
	if err != nil {
		return Reply{}, err
	}
	text := fmt.Sprintf("✅ Kantong *%s* berhasil dibuat\nTipe: %s\n%s",
		w.Name, w.Type, includeLine(w.IncludeInTotal))
	return Reply{Text: text}, nil
}

func (b *Bot) updateWallet(ctx context.Context, user string, c decision.UpdateWallet) (Reply, error) {
	w, err := b.ledger.UpdateWallet(ctx, user, c.Name, ledger.WalletUpdate{
		Type:           c.Type,
		IncludeInTotal: c.IncludeInTotal,
	})
	if err != nil {
		return Reply{}, err
	}
	text := fmt.Sprintf("✅ Kantong *%s* berhasil diupdate\nTipe: %s\n%s",
		w.Name, w.Type, includeLine(w.IncludeInTotal))
	return Reply{Text: text}, nil
}

func (b *Bot) deleteWallet(ctx context.Context, user string, c decision.DeleteWallet) (Reply, error) {
	if err := b.ledger.DeleteWallet(ctx, user, c.Name); err != nil {
		return Reply{}, err
	}
	return Reply{Text: fmt.Sprintf("🗑️ Kantong *%s* berhasil dihapus", strings.ToLower(strings.TrimSpace(c.Name)))}, nil
}

func includeLine(include bool) string {
	if include {
		return "✓ Dihitung dalam total saldo"
	}
	return "✗ Tidak dihitung dalam total saldo"
}
