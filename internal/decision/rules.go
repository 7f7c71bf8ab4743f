package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"kantong/internal/ledger"
	"kantong/internal/models"
	"kantong/internal/util"
)

// RuleDecider is the offline fallback: keyword and regex matching over the
// common phrasings. Anything it cannot place becomes "other".
type RuleDecider struct{}

const amountPattern = `(\d+(?:[.,]\d+)*\s*(?:k|rb|ribu|jt|juta|m))\b`

var (
	helpRe         = regexp.MustCompile(`^(?:help|bantuan|menu|\?)$`)
	backupRe       = regexp.MustCompile(`\bbackup\b|\bkirim database\b`)
	exportRe       = regexp.MustCompile(`\b(?:export|ekspor|excel)\b`)
	historyRe      = regexp.MustCompile(`\b(?:riwayat|history|transaksi|mutasi)\b`)
	statsRe        = regexp.MustCompile(`\b(?:statistik|stats|laporan)\b`)
	createWalletRe = regexp.MustCompile(`^(?:buat|buatkan|tambah)\s+(?:kantong|dompet|wallet)\s+(\w+)`)
	listWalletsRe  = regexp.MustCompile(`^(?:daftar\s+)?(?:kantong|dompet|wallet)$`)
	balanceRe      = regexp.MustCompile(`\bsaldo\b(?:\s+(\w+))?`)
	exitRe         = regexp.MustCompile(`^(?:exit|keluar)(?:\s+bisnis)?$`)
	monthNumRe     = regexp.MustCompile(`\bbulan\s+(\d{1,2})\b`)
	excludeRe      = regexp.MustCompile(`\b(?:jangan|tidak|tanpa)\b`)

	incomeRes = []*regexp.Regexp{
		regexp.MustCompile(`(?:dapat|terima|dikirim|gaji|bonus|transfer masuk|jual)\s+(?:uang\s+)?` + amountPattern),
		regexp.MustCompile(amountPattern + `\s+(?:masuk|diterima|dari)\b`),
	}
	expenseRe      = regexp.MustCompile(`(?:beli|bayar|buat|untuk|transfer|kirim)\s+(.+?)\s+` + amountPattern)
	expenseTrailRe = regexp.MustCompile(amountPattern + `\s+(?:buat|untuk)\s+(.+)`)
)

var monthNames = map[string]time.Month{
	"januari": time.January, "februari": time.February, "maret": time.March,
	"april": time.April, "mei": time.May, "juni": time.June, "juli": time.July,
	"agustus": time.August, "september": time.September, "oktober": time.October,
	"november": time.November, "desember": time.December,
}

func (RuleDecider) Decide(_ context.Context, req Request) (Decision, error) {
	text := strings.ToLower(strings.TrimSpace(req.Message))
	today := req.Today
	if today.IsZero() {
		today = time.Now()
	}

	switch {
	case helpRe.MatchString(text):
		return decide(ActionHelp, nil)
	case exitRe.MatchString(text):
		return decide(ActionExitBusiness, nil)
	case backupRe.MatchString(text):
		return decide(ActionBackupDatabase, nil)
	case exportRe.MatchString(text):
		period, month := periodOf(text, today, ledger.PeriodThisMonth)
		typ := ExportAll
		switch {
		case strings.Contains(text, "pemasukan"):
			typ = ExportIncome
		case strings.Contains(text, "pengeluaran"):
			typ = ExportExpense
		}
		return decide(ActionExportExcel, map[string]any{"type": typ, "period": period, "month": month})
	case statsRe.MatchString(text):
		period, month := periodOf(text, today, ledger.PeriodToday)
		return decide(ActionShowStats, map[string]any{"period": period, "month": month})
	case historyRe.MatchString(text):
		period, month := periodOf(text, today, ledger.PeriodToday)
		return decide(ActionShowHistory, map[string]any{"period": period, "month": month, "limit": historyLimit(period)})
	}

	if m := createWalletRe.FindStringSubmatch(text); m != nil {
		typ := models.WalletRegular
		if m[1] == "tabungan" || strings.Contains(text, "tabungan") || strings.Contains(text, "saving") {
			typ = models.WalletSavings
		}
		include := !excludeRe.MatchString(text)
		return decide(ActionCreateWallet, map[string]any{"name": m[1], "type": typ, "includeInTotal": include})
	}
	if listWalletsRe.MatchString(text) {
		return decide(ActionShowWallets, nil)
	}
	if m := balanceRe.FindStringSubmatch(text); m != nil {
		if w := knownWallet(m[1], req.Wallets); w != "" {
			return decide(ActionCheckWalletBalance, map[string]any{"wallet": w})
		}
		return decide(ActionCheckBalance, nil)
	}

	for _, re := range incomeRes {
		if m := re.FindStringSubmatch(text); m != nil {
			amt, err := util.ParseAmount(m[1])
			if err != nil {
				continue
			}
			return decide(ActionIncome, map[string]any{
				"amount":      amt,
				"wallet":      mentionedWallet(text, req.Wallets),
				"description": truncate(text, 50),
			})
		}
	}
	if m := expenseRe.FindStringSubmatch(text); m != nil {
		if amt, err := util.ParseAmount(m[2]); err == nil {
			return decide(ActionExpense, map[string]any{
				"amount":      amt,
				"wallet":      mentionedWallet(text, req.Wallets),
				"description": strings.TrimSpace(m[1]),
			})
		}
	}
	if m := expenseTrailRe.FindStringSubmatch(text); m != nil {
		if amt, err := util.ParseAmount(m[1]); err == nil {
			return decide(ActionExpense, map[string]any{
				"amount":      amt,
				"wallet":      mentionedWallet(text, req.Wallets),
				"description": strings.TrimSpace(m[2]),
			})
		}
	}

	return decide(ActionOther, nil)
}

func decide(action Action, params map[string]any) (Decision, error) {
	d := Decision{Action: action, Reasoning: "rule"}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return Decision{}, fmt.Errorf("encode params: %w", err)
		}
		d.Params = raw
	}
	return d, nil
}

// periodOf reads a period phrase out of text. Month names resolve to the
// current year.
func periodOf(text string, today time.Time, fallback ledger.Period) (ledger.Period, string) {
	switch {
	case strings.Contains(text, "hari ini"):
		return ledger.PeriodToday, ""
	case strings.Contains(text, "bulan ini"):
		return ledger.PeriodThisMonth, ""
	case strings.Contains(text, "bulan lalu"):
		return ledger.PeriodLastMonth, ""
	case strings.Contains(text, "semua") || strings.Contains(text, "selama ini"):
		return ledger.PeriodAllTime, ""
	}
	for _, word := range strings.Fields(text) {
		if m, ok := monthNames[word]; ok {
			return ledger.PeriodSpecificMonth, fmt.Sprintf("%04d-%02d", today.Year(), int(m))
		}
	}
	if m := monthNumRe.FindStringSubmatch(text); m != nil {
		if n, _ := strconv.Atoi(m[1]); n >= 1 && n <= 12 {
			return ledger.PeriodSpecificMonth, fmt.Sprintf("%04d-%02d", today.Year(), n)
		}
	}
	return fallback, ""
}

func historyLimit(p ledger.Period) int {
	switch p {
	case ledger.PeriodAllTime:
		return 50
	case ledger.PeriodThisMonth, ledger.PeriodLastMonth, ledger.PeriodSpecificMonth:
		return 20
	}
	return 10
}

func knownWallet(name string, wallets []models.Wallet) string {
	for _, w := range wallets {
		if w.Name == name {
			return w.Name
		}
	}
	return ""
}

func mentionedWallet(text string, wallets []models.Wallet) string {
	for _, word := range strings.Fields(text) {
		if w := knownWallet(word, wallets); w != "" {
			return w
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
