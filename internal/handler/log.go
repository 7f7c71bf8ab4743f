package handler

import (
	"net/http"
	"strconv"
	"time"

	"kantong/internal/models"
	"kantong/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LogHandler lists audit records.
type LogHandler struct {
	DB         *gorm.DB
	EncryptKey string
	PageSize   int
}

func NewLogHandler(db *gorm.DB, encryptKey string, pageSize int) *LogHandler {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &LogHandler{DB: db, EncryptKey: encryptKey, PageSize: pageSize}
}

// open returns the plaintext, or the stored value when it cannot be
// decrypted (no key configured, or written before a key was set).
func (h *LogHandler) open(stored string) string {
	if stored == "" || h.EncryptKey == "" {
		return stored
	}
	plain, err := util.DecryptString(h.EncryptKey, stored)
	if err != nil {
		return stored
	}
	return plain
}

type logResp struct {
	ID        uint      `json:"id"`
	Gateway   string    `json:"gateway"`
	ChatUser  string    `json:"chat_user,omitempty"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Action    string    `json:"action"`
	Status    int       `json:"status"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// ListLogs pages through audit records, newest first. Filters: start/end
// (YYYY-MM-DD, end inclusive), user, gateway.
func (h *LogHandler) ListLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.Query("page_size"))
	if size <= 0 || size > 100 {
		size = h.PageSize
	}

	base := h.DB.WithContext(c.Request.Context()).Model(&models.AuditLog{})
	if s := c.Query("start"); s != "" {
		start, err := time.Parse("2006-01-02", s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "start must be YYYY-MM-DD")
			return
		}
		base = base.Where("created_at >= ?", start)
	}
	if s := c.Query("end"); s != "" {
		end, err := time.Parse("2006-01-02", s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "end must be YYYY-MM-DD")
			return
		}
		base = base.Where("created_at < ?", end.Add(24*time.Hour))
	}
	if u := c.Query("user"); u != "" {
		base = base.Where("chat_user = ?", u)
	}
	if g := c.Query("gateway"); g != "" {
		base = base.Where("gateway = ?", g)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		fail(c, err)
		return
	}
	var logs []models.AuditLog
	err := base.Order("created_at DESC, id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&logs).Error
	if err != nil {
		fail(c, err)
		return
	}

	items := make([]logResp, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		items = append(items, logResp{
			ID:        l.ID,
			Gateway:   l.Gateway,
			ChatUser:  l.ChatUser,
			Method:    l.Method,
			Path:      h.open(l.PathEnc),
			Action:    h.open(l.ActionEnc),
			Status:    l.Status,
			IP:        l.IP,
			UserAgent: l.UserAgent,
			CreatedAt: l.CreatedAt,
		})
	}
	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}
