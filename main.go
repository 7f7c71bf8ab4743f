package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"kantong/internal/backup"
	"kantong/internal/bot"
	"kantong/internal/business"
	"kantong/internal/config"
	"kantong/internal/database"
	"kantong/internal/decision"
	"kantong/internal/export"
	"kantong/internal/ledger"
	"kantong/internal/session"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "kantong",
		Short: "Chat-driven personal and small-business finance ledger",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml)")

	rootCmd.AddCommand(
		newServeCommand(&configPath),
		newChatCommand(&configPath),
		newBackupCommand(&configPath),
		newTokenCommand(&configPath),
		newMigrateCommand(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the wired services shared by the subcommands.
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	ledger   *ledger.Service
	business *business.Service
	sessions *session.Store
	exporter *export.Exporter
	backups  *backup.Manager
	bot      *bot.Bot
	logFile  io.Closer
}

// openApp loads config, opens and migrates the database and wires every
// service. sender receives files addressed to the owner.
func openApp(configPath string, sender backup.Sender) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}
	if a.logFile, err = setupLog(cfg.Log); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{cfg.Backup.Dir, cfg.Export.Dir} {
		if err := ensureDir(dir); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	if a.db, err = database.Init(cfg.Database); err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(a.db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	a.ledger = ledger.NewService(a.db, loc)
	a.business = business.NewService(a.db)
	a.sessions = session.New(cfg.Session.IdleTimeout(), cfg.Session.MaxTurns)
	a.exporter = export.NewExporter(cfg.Export.Dir, loc)
	a.backups = backup.NewManager(a.db, cfg.Backup, cfg.Security.EncryptionKey, loc, sender)

	var decider decision.Decider = decision.RuleDecider{}
	var fallback decision.Decider
	if cfg.LLM.APIKey != "" {
		g, err := decision.NewGeminiDecider(cfg.LLM, cfg.Session.ContextTurns)
		if err != nil {
			return nil, err
		}
		decider, fallback = g, decision.RuleDecider{}
		log.Printf("[main] using gemini model %s", cfg.LLM.Model)
	} else {
		log.Printf("[main] llm.api_key not set, using rule-based decider")
	}

	a.bot = bot.New(bot.Deps{
		Ledger:        a.ledger,
		Business:      a.business,
		Sessions:      a.sessions,
		Decider:       decider,
		Fallback:      fallback,
		Exporter:      a.exporter,
		Backups:       a.backups,
		DefaultWallet: cfg.App.DefaultWallet,
		ContextTurns:  cfg.Session.ContextTurns,
		HistoryLimit:  cfg.App.HistoryLimit,
	})
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			log.Printf("[main] close database: %v", err)
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// setupLog tees the standard logger into cfg.File when set.
func setupLog(cfg config.LogConfig) (io.Closer, error) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if cfg.File == "" {
		return nil, nil
	}
	if err := ensureDir(filepath.Dir(cfg.File)); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// exportMaxAge bounds how long generated spreadsheets stay on disk.
const exportMaxAge = 24 * time.Hour
