package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"

	"kantong/internal/models"
	"kantong/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxAuditBody = 1 << 20

// AuditMiddleware records every authenticated call. Path and action are
// stored encrypted when encryptKey is set; the body itself is never kept,
// only its digest.
func AuditMiddleware(db *gorm.DB, encryptKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBody))
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		c.Next()

		path := c.Request.URL.Path
		action := c.Request.Method + " " + path
		if len(body) > 0 {
			sum := sha256.Sum256(body)
			action += " sha256=" + hex.EncodeToString(sum[:])
		}

		entry := models.AuditLog{
			Gateway:   c.GetString(GatewayKey),
			ChatUser:  chatUser(c),
			Method:    c.Request.Method,
			PathEnc:   seal(encryptKey, path),
			ActionEnc: seal(encryptKey, action),
			Status:    c.Writer.Status(),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if err := db.WithContext(c.Request.Context()).Create(&entry).Error; err != nil {
			log.Printf("[audit] save: %v", err)
		}
	}
}

func chatUser(c *gin.Context) string {
	if u := c.GetString(ChatUserKey); u != "" {
		return u
	}
	return c.Param("user")
}

func seal(key, plain string) string {
	if key == "" || plain == "" {
		return plain
	}
	enc, err := util.EncryptString(key, plain)
	if err != nil {
		log.Printf("[audit] encrypt: %v", err)
		return ""
	}
	return enc
}
