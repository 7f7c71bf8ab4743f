package router

import (
	"net/http"

	"kantong/internal/backup"
	"kantong/internal/bot"
	"kantong/internal/config"
	"kantong/internal/export"
	"kantong/internal/handler"
	"kantong/internal/ledger"
	"kantong/internal/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the services the HTTP API serves.
type Deps struct {
	DB       *gorm.DB
	Bot      *bot.Bot
	Ledger   *ledger.Service
	Exporter *export.Exporter
	Backups  *backup.Manager
}

// SetupRouter configures the gin engine.
func SetupRouter(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		if sqlDB, err := d.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(
		middleware.AuthMiddleware(cfg.Auth.Secret, cfg.Auth.Issuer),
		middleware.AuditMiddleware(d.DB, cfg.Security.EncryptionKey),
	)

	messageHandler := handler.NewMessageHandler(d.Bot)
	api.POST("/messages", messageHandler.PostMessage)

	reportHandler := handler.NewReportHandler(d.Ledger, d.Exporter, cfg.App.HistoryLimit)
	users := api.Group("/users/:user")
	users.GET("/wallets", reportHandler.ListWallets)
	users.GET("/balance", reportHandler.GetBalance)
	users.GET("/history", reportHandler.GetHistory)
	users.GET("/stats", reportHandler.GetStats)
	users.GET("/export.xlsx", reportHandler.ExportXLSX)

	backupHandler := handler.NewBackupHandler(d.DB, d.Backups)
	api.POST("/backups", backupHandler.CreateBackup)
	api.GET("/backups", backupHandler.ListBackups)
	api.GET("/backups/:id/download", backupHandler.DownloadBackup)
	api.DELETE("/backups/:id", backupHandler.DeleteBackup)

	logHandler := handler.NewLogHandler(d.DB, cfg.Security.EncryptionKey, cfg.App.PageSize)
	api.GET("/logs", logHandler.ListLogs)

	return r
}
