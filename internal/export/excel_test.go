package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kantong/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var raw = excelize.Options{RawCellValue: true}

func sample() Request {
	food := "makanan"
	when := time.Date(2025, 3, 1, 5, 0, 0, 0, time.UTC)
	return Request{
		UserID: "62811@c.us",
		Filter: FilterAll,
		Wallets: []models.Wallet{
			{Name: "cash", Type: models.WalletRegular, IncludeInTotal: true, Balance: decimal.NewFromInt(75000)},
			{Name: "tabungan", Type: models.WalletSavings, IncludeInTotal: false, Balance: decimal.NewFromInt(1_000_000)},
		},
		Transactions: []models.Transaction{
			{WalletName: "cash", Type: models.TypeIncome, Amount: decimal.NewFromInt(100000), Description: "gaji", CreatedAt: when},
			{WalletName: "cash", Type: models.TypeExpense, Amount: decimal.NewFromInt(25000), Category: &food, Description: "makan", CreatedAt: when.Add(time.Hour)},
		},
	}
}

func cellValue(t *testing.T, f *excelize.File, axis string) string {
	t.Helper()
	v, err := f.GetCellValue(sheetName, axis, raw)
	require.NoError(t, err)
	return v
}

func TestExportTransactions(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, time.FixedZone("WIB", 7*3600))

	res, err := e.ExportTransactions(sample())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.True(t, res.TotalIncome.Equal(decimal.NewFromInt(100000)))
	assert.True(t, res.TotalExpense.Equal(decimal.NewFromInt(25000)))
	assert.True(t, res.Net().Equal(decimal.NewFromInt(75000)))
	assert.True(t, strings.HasPrefix(res.FileName, "Semua_Transaksi_"))
	assert.Equal(t, filepath.Join(dir, res.FileName), res.FilePath)

	f, err := excelize.OpenFile(res.FilePath)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "SALDO KANTONG", cellValue(t, f, "A1"))
	assert.Equal(t, "cash", cellValue(t, f, "A3"))
	assert.Equal(t, "Ya", cellValue(t, f, "D3"))
	assert.Equal(t, "Tabungan", cellValue(t, f, "B4"))
	assert.Equal(t, "Tidak", cellValue(t, f, "D4"))
	// only included wallets count toward the total
	assert.Equal(t, "TOTAL SALDO", cellValue(t, f, "A5"))
	assert.Equal(t, "75000", cellValue(t, f, "C5"))

	assert.Equal(t, "TRANSAKSI", cellValue(t, f, "A7"))
	assert.Equal(t, "Tanggal", cellValue(t, f, "B8"))
	assert.Equal(t, "01 Mar 2025 12:00", cellValue(t, f, "B9"))
	assert.Equal(t, "Pemasukan", cellValue(t, f, "C9"))
	assert.Equal(t, "-", cellValue(t, f, "E9"))
	assert.Equal(t, "Pengeluaran", cellValue(t, f, "C10"))
	assert.Equal(t, "25000", cellValue(t, f, "D10"))
	assert.Equal(t, "makanan", cellValue(t, f, "E10"))

	assert.Equal(t, "Net", cellValue(t, f, "C15"))
	assert.Equal(t, "75000", cellValue(t, f, "D15"))
}

func TestExportTransactions_Filter(t *testing.T) {
	e := NewExporter(t.TempDir(), time.UTC)
	req := sample()
	req.Filter = FilterExpense
	req.Wallets = nil

	res, err := e.ExportTransactions(req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.True(t, res.TotalIncome.IsZero())
	assert.True(t, strings.HasPrefix(res.FileName, "Pengeluaran_"))

	f, err := excelize.OpenFile(res.FilePath)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "TRANSAKSI", cellValue(t, f, "A1"))
	assert.Equal(t, "makan", cellValue(t, f, "F3"))
	assert.Equal(t, "Total Pengeluaran", cellValue(t, f, "C6"))
	assert.Empty(t, cellValue(t, f, "C7"))

	req.Filter = "weird"
	_, err = e.ExportTransactions(req)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	res, err := NewExporter(t.TempDir(), time.UTC).Write(&buf, sample())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "gaji", cellValue(t, f, "F9"))
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, time.UTC)
	old := filepath.Join(dir, "old.xlsx")
	fresh := filepath.Join(dir, "fresh.xlsx")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	n, err := e.Clean(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)

	n, err = NewExporter(filepath.Join(dir, "missing"), time.UTC).Clean(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}
