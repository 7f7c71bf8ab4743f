package bot

import (
	"errors"
	"fmt"
	"log"

	"kantong/internal/business"
	"kantong/internal/decision"
	"kantong/internal/ledger"
)

const (
	msgNotUnderstood  = "❓ Maaf, saya kurang paham. Ketik \"help\" untuk melihat panduan."
	msgCannotProcess  = "❌ Maaf, saya tidak bisa memproses pesan Anda. Ketik \"help\" untuk bantuan."
	msgGeneric        = "❌ Terjadi kesalahan. Ketik \"help\" untuk bantuan."
	msgInvalidCommand = "❌ Perintah tidak valid."
)

var (
	errExportDisabled = errors.New("export is not configured")
	errBackupDisabled = errors.New("backup is not configured")
)

var errorReplies = []struct {
	err  error
	text string
}{
	{ledger.ErrAlreadyExists, "⚠️ Kantong sudah ada."},
	{ledger.ErrNotFound, "❌ Kantong tidak ditemukan."},
	{ledger.ErrWalletNotFound, "❌ Kantong tidak ditemukan."},
	{ledger.ErrFromWalletNotFound, "❌ Kantong asal tidak ditemukan."},
	{ledger.ErrToWalletNotFound, "❌ Kantong tujuan tidak ditemukan."},
	{ledger.ErrSameWallet, "❌ Kantong asal dan tujuan sama."},
	{ledger.ErrInsufficientBalance, "❌ Saldo tidak cukup."},
	{ledger.ErrNotEmpty, "❌ Kantong masih ada saldonya. Kosongkan dulu sebelum dihapus."},
	{ledger.ErrNoUpdates, "❌ Tidak ada yang diubah."},
	{ledger.ErrInvalidWalletType, "❌ Tipe kantong harus regular atau savings."},
	{ledger.ErrInvalidWalletName, "❌ Nama kantong tidak valid."},
	{ledger.ErrInvalidAmount, "❌ Jumlah tidak valid. Harus lebih dari 0 dan paling banyak 2 angka desimal."},
	{ledger.ErrBalanceOutOfRange, "❌ Saldo melebihi batas yang bisa dicatat."},
	{ledger.ErrInvalidPeriod, "❌ Periode tidak dikenal."},
	{ledger.ErrInvalidMonth, "❌ Format bulan harus YYYY-MM."},

	{business.ErrNoActiveSession, "🔒 Belum masuk ke bisnis. Ketik \"login bisnis <nama>\" dulu."},
	{business.ErrBusinessAlreadyExists, "⚠️ Bisnis sudah ada."},
	{business.ErrBusinessNotFound, "❌ Bisnis tidak ditemukan."},
	{business.ErrInvalidCredentials, "❌ Username atau password salah."},
	{business.ErrMaterialAlreadyExists, "⚠️ Bahan sudah ada."},
	{business.ErrMaterialNotFound, "❌ Bahan tidak ditemukan."},
	{business.ErrPriceAlreadyExists, "⚠️ Harga jual sudah ada."},
	{business.ErrCatalogNotFound, "❌ Katalog tidak ditemukan."},
	{business.ErrEmptyBouquetAlreadyExists, "⚠️ Ukuran buket sudah ada."},
	{business.ErrEmptyBouquetNotFound, "❌ Ukuran buket tidak ditemukan."},
	{business.ErrInvalidName, "❌ Nama tidak valid."},
	{business.ErrInvalidPrice, "❌ Harga tidak valid."},
	{business.ErrInvalidAmount, "❌ Jumlah harus lebih dari 0."},

	{decision.ErrUnknownAction, msgNotUnderstood},
	{errExportDisabled, "❌ Export belum diaktifkan."},
	{errBackupDisabled, "❌ Backup belum diaktifkan."},
}

// errorText renders a command failure. cmd may be nil.
func errorText(cmd decision.Command, err error) string {
	if c, ok := cmd.(decision.CreateWallet); ok && errors.Is(err, ledger.ErrAlreadyExists) {
		return fmt.Sprintf("⚠️ Kantong *%s* sudah ada.", c.Name)
	}
	var pe *decision.ParseError
	if errors.As(err, &pe) && errors.Is(err, decision.ErrInvalidParams) {
		if pe.Detail != "" {
			return fmt.Sprintf("❌ Data tidak lengkap: %s", pe.Detail)
		}
		return msgInvalidCommand
	}
	for _, r := range errorReplies {
		if errors.Is(err, r.err) {
			return r.text
		}
	}
	log.Printf("[bot] unexpected error: %v", err)
	return msgGeneric
}
