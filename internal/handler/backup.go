package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"kantong/internal/backup"
	"kantong/internal/models"
	"kantong/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BackupHandler manages database snapshots over HTTP.
type BackupHandler struct {
	DB      *gorm.DB
	Manager *backup.Manager
}

func NewBackupHandler(db *gorm.DB, m *backup.Manager) *BackupHandler {
	return &BackupHandler{DB: db, Manager: m}
}

type backupResp struct {
	ID        uint   `json:"id"`
	FileName  string `json:"file_name"`
	Size      int64  `json:"size"`
	Encrypted bool   `json:"encrypted"`
	SentTo    string `json:"sent_to,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toBackupResp(b *models.Backup) backupResp {
	return backupResp{
		ID:        b.ID,
		FileName:  b.FileName,
		Size:      b.Size,
		Encrypted: b.Encrypted,
		SentTo:    b.SentTo,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
}

// CreateBackup snapshots the database. With ?send=1 the snapshot also goes
// to the owner.
func (h *BackupHandler) CreateBackup(c *gin.Context) {
	var (
		b   *models.Backup
		err error
	)
	if c.Query("send") == "1" {
		b, err = h.Manager.SendToOwner(c.Request.Context())
	} else {
		b, err = h.Manager.Create(c.Request.Context())
	}
	if errors.Is(err, backup.ErrNoOwner) || errors.Is(err, backup.ErrNoSender) || errors.Is(err, backup.ErrNoKey) {
		util.Error(c, http.StatusConflict, util.CodeConflict, err.Error())
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	util.Success(c, util.Response{"backup": toBackupResp(b)})
}

func (h *BackupHandler) ListBackups(c *gin.Context) {
	list, err := h.Manager.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	items := make([]backupResp, 0, len(list))
	for i := range list {
		items = append(items, toBackupResp(&list[i]))
	}
	util.Success(c, util.Response{"items": items})
}

func (h *BackupHandler) find(c *gin.Context) (*models.Backup, bool) {
	var b models.Backup
	err := h.DB.WithContext(c.Request.Context()).First(&b, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "backup not found")
		return nil, false
	}
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return &b, true
}

// DownloadBackup sends the snapshot file as stored (encrypted or not).
func (h *BackupHandler) DownloadBackup(c *gin.Context) {
	b, ok := h.find(c)
	if !ok {
		return
	}
	if _, err := os.Stat(b.FilePath); err != nil {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "backup file is gone")
		return
	}
	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", b.FileName))
	c.File(b.FilePath)
}

// DeleteBackup removes the file first, then the record.
func (h *BackupHandler) DeleteBackup(c *gin.Context) {
	b, ok := h.find(c)
	if !ok {
		return
	}
	if err := os.Remove(b.FilePath); err != nil && !os.IsNotExist(err) {
		fail(c, err)
		return
	}
	if err := h.DB.WithContext(c.Request.Context()).Delete(b).Error; err != nil {
		fail(c, err)
		return
	}
	util.Success(c, util.Response{"deleted": b.ID})
}
