package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"kantong/internal/config"
	"kantong/internal/database"
	"kantong/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const user = "6281234567890@c.us"

var jakarta = time.FixedZone("WIB", 7*3600)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// newTestService returns a service whose clock is fixed at now.
func newTestService(t *testing.T, now time.Time) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(db, jakarta, WithClock(func() time.Time { return now })), db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func at(y int, m time.Month, d, hh int) *time.Time {
	t := time.Date(y, m, d, hh, 0, 0, 0, jakarta)
	return &t
}

func mustWallet(t *testing.T, s *Service, name string, typ models.WalletType, include bool) {
	t.Helper()
	_, err := s.CreateWallet(context.Background(), user, name, typ, include)
	require.NoError(t, err)
}

// signedSum recomputes a wallet balance from the transaction log.
func signedSum(t *testing.T, db *gorm.DB, wallet string) decimal.Decimal {
	t.Helper()
	var txs []models.Transaction
	require.NoError(t, db.Where("user_id = ? AND wallet_name = ?", user, wallet).Find(&txs).Error)
	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(tx.Signed())
	}
	return sum
}
