package backup

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kantong/internal/config"
	"kantong/internal/database"
	"kantong/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var jakarta = time.FixedZone("WIB", 7*3600)

var sqliteHeader = []byte("SQLite format 3\x00")

type fakeSender struct {
	to, path, caption string
	err               error
}

func (f *fakeSender) SendFile(_ context.Context, to, path, caption string) error {
	f.to, f.path, f.caption = to, path, caption
	return f.err
}

func setup(t *testing.T, cfg config.BackupConfig, sender Sender) (*Manager, *gorm.DB) {
	t.Helper()
	dir := t.TempDir()
	db, err := database.Init(config.DatabaseConfig{Path: filepath.Join(dir, "finance.db")})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, db.Create(&models.Wallet{UserID: "u", Name: "cash", Type: models.WalletRegular, IncludeInTotal: true, Balance: decimal.NewFromInt(1000)}).Error)

	if cfg.Dir == "" {
		cfg.Dir = filepath.Join(dir, "backups")
	}
	return NewManager(db, cfg, "backup-key", jakarta, sender), db
}

func TestCreate(t *testing.T) {
	m, db := setup(t, config.BackupConfig{}, nil)
	b, err := m.Create(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(b.FileName, filePrefix))
	assert.True(t, strings.HasSuffix(b.FileName, ".db"))
	assert.False(t, b.Encrypted)
	assert.Positive(t, b.Size)

	raw, err := os.ReadFile(b.FilePath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, sqliteHeader))

	// the snapshot is a usable database
	snap, err := database.Init(config.DatabaseConfig{Path: b.FilePath})
	require.NoError(t, err)
	defer database.Close(snap)
	var w models.Wallet
	require.NoError(t, snap.Where("name = ?", "cash").First(&w).Error)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(1000)))

	var count int64
	require.NoError(t, db.Model(&models.Backup{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreate_Encrypted(t *testing.T) {
	m, _ := setup(t, config.BackupConfig{Encrypt: true}, nil)
	b, err := m.Create(context.Background())
	require.NoError(t, err)
	assert.True(t, b.Encrypted)
	assert.True(t, strings.HasSuffix(b.FileName, ".db.enc"))
	assert.NoFileExists(t, strings.TrimSuffix(b.FilePath, ".enc"))

	sealed, err := os.ReadFile(b.FilePath)
	require.NoError(t, err)
	assert.False(t, bytes.HasPrefix(sealed, sqliteHeader))

	plain, err := m.Decrypt(b.FilePath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(plain, sqliteHeader))

	m.key = ""
	_, err = m.Create(context.Background())
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestSendToOwner(t *testing.T) {
	sender := &fakeSender{}
	m, db := setup(t, config.BackupConfig{OwnerID: "6281234", KeepDays: 7}, sender)

	b, err := m.SendToOwner(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "6281234@c.us", sender.to)
	assert.Equal(t, b.FilePath, sender.path)
	assert.Contains(t, sender.caption, b.FileName)

	var stored models.Backup
	require.NoError(t, db.First(&stored, b.ID).Error)
	assert.Equal(t, "6281234@c.us", stored.SentTo)
}

func TestSendToOwner_NotConfigured(t *testing.T) {
	m, _ := setup(t, config.BackupConfig{}, &fakeSender{})
	_, err := m.SendToOwner(context.Background())
	assert.ErrorIs(t, err, ErrNoOwner)

	m, _ = setup(t, config.BackupConfig{OwnerID: "owner@c.us"}, nil)
	_, err = m.SendToOwner(context.Background())
	assert.ErrorIs(t, err, ErrNoSender)
}

func TestCleanAndList(t *testing.T) {
	m, _ := setup(t, config.BackupConfig{}, nil)
	ctx := context.Background()

	old, err := m.Create(ctx)
	require.NoError(t, err)
	fresh, err := m.Create(ctx)
	require.NoError(t, err)
	past := time.Now().Add(-10 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(old.FilePath, past, past))
	// unrelated files in the dir are left alone
	other := filepath.Join(filepath.Dir(old.FilePath), "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(other, past, past))

	n, err := m.Clean(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, old.FilePath)
	assert.FileExists(t, fresh.FilePath)
	assert.FileExists(t, other)

	list, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, fresh.ID, list[0].ID)

	n, err = m.Clean(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNextRun(t *testing.T) {
	now := time.Date(2025, 3, 10, 23, 59, 0, 0, jakarta)
	next, err := NextRun(now, "00:00", jakarta)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, jakarta), next)

	next, err = NextRun(now.Add(-12*time.Hour), "23:59", jakarta)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 23, 59, 0, 0, jakarta), next)

	// 17:30 UTC is already 00:30 the next day in WIB
	next, err = NextRun(time.Date(2025, 3, 10, 17, 30, 0, 0, time.UTC), "00:00", jakarta)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, jakarta), next)

	_, err = NextRun(now, "25:00", jakarta)
	assert.ErrorIs(t, err, ErrInvalidAtTime)
}

func TestSchedule_DisabledAndCancel(t *testing.T) {
	m, _ := setup(t, config.BackupConfig{Enabled: false}, nil)
	require.NoError(t, m.Schedule(context.Background()))

	m, _ = setup(t, config.BackupConfig{Enabled: true, At: "bad"}, nil)
	assert.ErrorIs(t, m.Schedule(context.Background()), ErrInvalidAtTime)

	m, _ = setup(t, config.BackupConfig{Enabled: true, At: "00:00"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, m.Schedule(ctx))
}
