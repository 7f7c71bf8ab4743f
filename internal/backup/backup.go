// Package backup snapshots the sqlite store, keeps a bounded history of
// snapshot files and delivers them to the owner on a daily schedule.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kantong/internal/config"
	"kantong/internal/models"
	"kantong/internal/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const filePrefix = "finance_backup_"

var (
	ErrNoOwner       = errors.New("backup owner is not configured")
	ErrNoSender      = errors.New("backup sender is not configured")
	ErrNoKey         = errors.New("backup encryption key is empty")
	ErrInvalidAtTime = errors.New("invalid backup time")
)

// Sender delivers a file to a chat handle.
type Sender interface {
	SendFile(ctx context.Context, to, path, caption string) error
}

type Manager struct {
	db     *gorm.DB
	cfg    config.BackupConfig
	key    string
	loc    *time.Location
	sender Sender
	now    func() time.Time
}

// NewManager builds a manager. key is only used when cfg.Encrypt is set.
func NewManager(db *gorm.DB, cfg config.BackupConfig, key string, loc *time.Location, sender Sender) *Manager {
	if loc == nil {
		loc = time.Local
	}
	return &Manager{db: db, cfg: cfg, key: key, loc: loc, sender: sender, now: time.Now}
}

// Owner returns the chat id scheduled backups go to.
func (m *Manager) Owner() string {
	owner := strings.TrimSpace(m.cfg.OwnerID)
	if owner == "" || strings.Contains(owner, "@") {
		return owner
	}
	return owner + "@c.us"
}

// Create writes a consistent snapshot with VACUUM INTO and records it.
func (m *Manager) Create(ctx context.Context) (*models.Backup, error) {
	if m.cfg.Encrypt && m.key == "" {
		return nil, ErrNoKey
	}
	if err := os.MkdirAll(m.cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("%s%s_%s.db", filePrefix, m.now().In(m.loc).Format("20060102_150405"), uuid.NewString()[:8])
	path := filepath.Join(m.cfg.Dir, name)
	quoted := strings.ReplaceAll(path, "'", "''")
	if err := m.db.WithContext(ctx).Exec("VACUUM INTO '" + quoted + "'").Error; err != nil {
		return nil, fmt.Errorf("vacuum into: %w", err)
	}

	if m.cfg.Encrypt {
		enc, err := m.encrypt(path)
		if err != nil {
			_ = os.Remove(path)
			return nil, err
		}
		name, path = filepath.Base(enc), enc
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	b := models.Backup{
		FileName:  name,
		FilePath:  path,
		Size:      info.Size(),
		Encrypted: m.cfg.Encrypt,
	}
	if err := m.db.WithContext(ctx).Create(&b).Error; err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("save backup record: %w", err)
	}
	log.Printf("[backup] created %s (%d bytes)", name, b.Size)
	return &b, nil
}

// encrypt replaces the snapshot with an AES-GCM sealed copy and returns
// the new path.
func (m *Manager) encrypt(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	enc, err := util.EncryptAES(m.key, raw)
	if err != nil {
		return "", fmt.Errorf("encrypt backup: %w", err)
	}
	out := path + ".enc"
	if err := os.WriteFile(out, enc, 0o600); err != nil {
		return "", err
	}
	if err := os.Remove(path); err != nil {
		return "", err
	}
	return out, nil
}

// Decrypt returns the sqlite bytes of an encrypted snapshot.
func (m *Manager) Decrypt(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return util.DecryptAES(m.key, data)
}

// List returns recorded backups, newest first.
func (m *Manager) List(ctx context.Context) ([]models.Backup, error) {
	var list []models.Backup
	if err := m.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	return list, nil
}

// Clean deletes snapshot files older than keepDays and their records.
func (m *Manager) Clean(ctx context.Context, keepDays int) (int, error) {
	if keepDays <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := m.now().Add(-time.Duration(keepDays) * 24 * time.Hour)
	removed := 0
	for _, de := range entries {
		if de.IsDir() || !strings.HasPrefix(de.Name(), filePrefix) {
			continue
		}
		info, err := de.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.cfg.Dir, de.Name())); err != nil {
			log.Printf("[backup] remove %s: %v", de.Name(), err)
			continue
		}
		if err := m.db.WithContext(ctx).Where("file_name = ?", de.Name()).Delete(&models.Backup{}).Error; err != nil {
			return removed, fmt.Errorf("delete backup record: %w", err)
		}
		removed++
	}
	if removed > 0 {
		log.Printf("[backup] cleaned %d old backup(s)", removed)
	}
	return removed, nil
}

// SendToOwner creates a snapshot, sends it to the owner and prunes old
// snapshots.
func (m *Manager) SendToOwner(ctx context.Context) (*models.Backup, error) {
	owner := m.Owner()
	if owner == "" {
		return nil, ErrNoOwner
	}
	if m.sender == nil {
		return nil, ErrNoSender
	}
	b, err := m.Create(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.sender.SendFile(ctx, owner, b.FilePath, m.caption(b)); err != nil {
		return b, fmt.Errorf("send backup: %w", err)
	}
	b.SentTo = owner
	if err := m.db.WithContext(ctx).Model(b).Update("sent_to", owner).Error; err != nil {
		return b, fmt.Errorf("mark backup sent: %w", err)
	}
	log.Printf("[backup] sent %s to %s", b.FileName, owner)
	if _, err := m.Clean(ctx, m.cfg.KeepDays); err != nil {
		log.Printf("[backup] clean: %v", err)
	}
	return b, nil
}

func (m *Manager) caption(b *models.Backup) string {
	return fmt.Sprintf("*Database Backup*\n\nTanggal: %s\nFile: %s\nSize: %.2f KB",
		b.CreatedAt.In(m.loc).Format("02/01/2006 15:04"), b.FileName, float64(b.Size)/1024)
}

// NextRun returns the first time at or after now whose wall clock in loc
// reads at ("HH:MM").
func NextRun(now time.Time, at string, loc *time.Location) (time.Time, error) {
	clock, err := time.Parse("15:04", strings.TrimSpace(at))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidAtTime, at)
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
	if next.Before(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, clock.Hour(), clock.Minute(), 0, 0, loc)
	}
	return next, nil
}

// Schedule sends a backup to the owner every day at cfg.At until ctx is
// done.
func (m *Manager) Schedule(ctx context.Context) error {
	if !m.cfg.Enabled {
		return nil
	}
	if _, err := NextRun(m.now(), m.cfg.At, m.loc); err != nil {
		return err
	}
	log.Printf("[backup] scheduled daily at %s %s", m.cfg.At, m.loc)
	for {
		next, _ := NextRun(m.now(), m.cfg.At, m.loc)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		log.Printf("[backup] running scheduled backup")
		if _, err := m.SendToOwner(ctx); err != nil {
			log.Printf("[backup] scheduled backup failed: %v", err)
		}
		// step past the minute so the same slot is not picked twice
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Minute):
		}
	}
}
