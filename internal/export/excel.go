// Package export writes transaction spreadsheets.
package export

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kantong/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Transaksi"

// Filter selects which transactions go into a sheet.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterIncome  Filter = "income"
	FilterExpense Filter = "expense"
)

var ErrInvalidFilter = errors.New("invalid export filter")

func (f Filter) label() string {
	switch f {
	case FilterIncome:
		return "Pemasukan"
	case FilterExpense:
		return "Pengeluaran"
	}
	return "Semua_Transaksi"
}

func (f Filter) keep(t models.Transaction) bool {
	switch f {
	case FilterIncome:
		return t.Type == models.TypeIncome
	case FilterExpense:
		return t.Type == models.TypeExpense
	}
	return true
}

type Request struct {
	UserID       string
	Filter       Filter
	Wallets      []models.Wallet
	Transactions []models.Transaction
}

type Result struct {
	FileName     string
	FilePath     string
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Count        int
}

// Net is income minus expense.
func (r Result) Net() decimal.Decimal {
	return r.TotalIncome.Sub(r.TotalExpense)
}

type Exporter struct {
	dir string
	loc *time.Location
	now func() time.Time
}

func NewExporter(dir string, loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.Local
	}
	return &Exporter{dir: dir, loc: loc, now: time.Now}
}

// ExportTransactions writes the workbook under the export dir.
func (e *Exporter) ExportTransactions(req Request) (*Result, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s_%s.xlsx", req.Filter.label(),
		e.now().In(e.loc).Format("20060102_150405"), uuid.NewString()[:8])
	path := filepath.Join(e.dir, name)

	f, res, err := e.build(req)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("save workbook: %w", err)
	}
	res.FileName = name
	res.FilePath = path
	log.Printf("[export] %s: %d transactions -> %s", req.UserID, res.Count, name)
	return res, nil
}

// Write streams the workbook to w.
func (e *Exporter) Write(w io.Writer, req Request) (*Result, error) {
	f, res, err := e.build(req)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return res, nil
}

// Clean removes exported files older than maxAge.
func (e *Exporter) Clean(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := e.now().Add(-maxAge)
	removed := 0
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".xlsx") {
			continue
		}
		info, err := de.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(e.dir, de.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

type styles struct {
	walletTitle, header, txTitle, total, amount, income, expense int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.walletTitle, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}, Fill: solid("70AD47")}},
		{&s.header, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}, Fill: solid("D9E1F2"),
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"}}},
		{&s.txTitle, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}, Fill: solid("4472C4")}},
		{&s.total, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}, Fill: solid("FFFF00"), NumFmt: 3}},
		{&s.amount, &excelize.Style{NumFmt: 3, Alignment: &excelize.Alignment{Horizontal: "right"}}},
		{&s.income, &excelize.Style{Fill: solid("C6EFCE")}},
		{&s.expense, &excelize.Style{Fill: solid("FFC7CE")}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, err
		}
		*d.dst = id
	}
	return s, nil
}

func solid(color string) excelize.Fill {
	return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func (e *Exporter) build(req Request) (*excelize.File, *Result, error) {
	switch req.Filter {
	case "":
		req.Filter = FilterAll
	case FilterAll, FilterIncome, FilterExpense:
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidFilter, req.Filter)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, nil, err
	}
	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("create styles: %w", err)
	}

	row := 1
	if len(req.Wallets) > 0 {
		row = e.walletSection(f, st, req.Wallets, row)
		row++
	}

	f.SetCellValue(sheetName, cell("A", row), "TRANSAKSI")
	f.MergeCell(sheetName, cell("A", row), cell("G", row))
	f.SetCellStyle(sheetName, cell("A", row), cell("G", row), st.txTitle)
	row++

	headers := []string{"No", "Tanggal", "Tipe", "Jumlah", "Kategori", "Deskripsi", "Kantong"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(string(rune('A'+i)), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell("G", row), st.header)
	row++

	res := &Result{TotalIncome: decimal.Zero, TotalExpense: decimal.Zero}
	for _, t := range req.Transactions {
		if !req.Filter.keep(t) {
			continue
		}
		res.Count++
		typeText, typeStyle := "Pengeluaran", st.expense
		if t.Type == models.TypeIncome {
			typeText, typeStyle = "Pemasukan", st.income
			res.TotalIncome = res.TotalIncome.Add(t.Amount)
		} else {
			res.TotalExpense = res.TotalExpense.Add(t.Amount)
		}
		f.SetCellValue(sheetName, cell("A", row), res.Count)
		f.SetCellValue(sheetName, cell("B", row), t.CreatedAt.In(e.loc).Format("02 Jan 2006 15:04"))
		f.SetCellValue(sheetName, cell("C", row), typeText)
		f.SetCellStyle(sheetName, cell("C", row), cell("C", row), typeStyle)
		f.SetCellValue(sheetName, cell("D", row), t.Amount.InexactFloat64())
		f.SetCellStyle(sheetName, cell("D", row), cell("D", row), st.amount)
		f.SetCellValue(sheetName, cell("E", row), orDash(t.CategoryName()))
		f.SetCellValue(sheetName, cell("F", row), orDash(t.Description))
		f.SetCellValue(sheetName, cell("G", row), orDash(t.WalletName))
		row++
	}

	row++
	f.SetCellValue(sheetName, cell("C", row), "RINGKASAN")
	row++
	if req.Filter != FilterExpense {
		f.SetCellValue(sheetName, cell("C", row), "Total Pemasukan")
		f.SetCellValue(sheetName, cell("D", row), res.TotalIncome.InexactFloat64())
		f.SetCellStyle(sheetName, cell("D", row), cell("D", row), st.amount)
		row++
	}
	if req.Filter != FilterIncome {
		f.SetCellValue(sheetName, cell("C", row), "Total Pengeluaran")
		f.SetCellValue(sheetName, cell("D", row), res.TotalExpense.InexactFloat64())
		f.SetCellStyle(sheetName, cell("D", row), cell("D", row), st.amount)
		row++
	}
	if req.Filter == FilterAll {
		f.SetCellValue(sheetName, cell("C", row), "Net")
		f.SetCellValue(sheetName, cell("D", row), res.Net().InexactFloat64())
		f.SetCellStyle(sheetName, cell("D", row), cell("D", row), st.amount)
	}

	for col, width := range map[string]float64{"A": 8, "B": 20, "C": 15, "D": 18, "E": 15, "F": 30, "G": 15} {
		f.SetColWidth(sheetName, col, col, width)
	}
	return f, res, nil
}

// walletSection writes the balances block and returns the next free row.
func (e *Exporter) walletSection(f *excelize.File, st styles, wallets []models.Wallet, row int) int {
	f.SetCellValue(sheetName, cell("A", row), "SALDO KANTONG")
	f.MergeCell(sheetName, cell("A", row), cell("G", row))
	f.SetCellStyle(sheetName, cell("A", row), cell("G", row), st.walletTitle)
	row++

	for i, h := range []string{"Nama Kantong", "Tipe", "Saldo", "Dihitung Total"} {
		f.SetCellValue(sheetName, cell(string(rune('A'+i)), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell("D", row), st.header)
	row++

	total := decimal.Zero
	for _, w := range wallets {
		typ, included := "Regular", "Tidak"
		if w.Type == models.WalletSavings {
			typ = "Tabungan"
		}
		if w.IncludeInTotal {
			included = "Ya"
			total = total.Add(w.Balance)
		}
		f.SetCellValue(sheetName, cell("A", row), w.Name)
		f.SetCellValue(sheetName, cell("B", row), typ)
		f.SetCellValue(sheetName, cell("C", row), w.Balance.InexactFloat64())
		f.SetCellStyle(sheetName, cell("C", row), cell("C", row), st.amount)
		f.SetCellValue(sheetName, cell("D", row), included)
		row++
	}

	f.SetCellValue(sheetName, cell("A", row), "TOTAL SALDO")
	f.SetCellValue(sheetName, cell("C", row), total.InexactFloat64())
	f.SetCellStyle(sheetName, cell("C", row), cell("C", row), st.total)
	return row + 1
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
