package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type LogConfig struct {
	File string `mapstructure:"file"`
}

type BackupConfig struct {
	Dir      string `mapstructure:"dir"`
	KeepDays int    `mapstructure:"keep_days"`
	// At is the daily run time, "HH:MM" in App.Timezone.
	At      string `mapstructure:"at"`
	Enabled bool   `mapstructure:"enabled"`
	Encrypt bool   `mapstructure:"encrypt"`
	// OwnerID is the chat handle that receives scheduled backups.
	OwnerID string `mapstructure:"owner_id"`
}

type LLMConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type SessionConfig struct {
	IdleMinutes  int `mapstructure:"idle_minutes"`
	MaxTurns     int `mapstructure:"max_turns"`
	SweepSeconds int `mapstructure:"sweep_seconds"`
	ContextTurns int `mapstructure:"context_turns"`
}

type AuthConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type SecurityConfig struct {
	EncryptionKey string `mapstructure:"encryption_key"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

type AppSubConfig struct {
	Timezone      string `mapstructure:"timezone"`
	DefaultWallet string `mapstructure:"default_wallet"`
	HistoryLimit  int    `mapstructure:"history_limit"`
	PageSize      int    `mapstructure:"page_size"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Export   ExportConfig   `mapstructure:"export"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Session  SessionConfig  `mapstructure:"session"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Security SecurityConfig `mapstructure:"security"`
	App      AppSubConfig   `mapstructure:"app"`
}

var (
	appConfig *Config
	once      sync.Once
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.path", "data/finance.db")
	v.SetDefault("database.log_mode", false)

	v.SetDefault("log.file", "")

	v.SetDefault("backup.dir", "backups")
	v.SetDefault("backup.keep_days", 7)
	v.SetDefault("backup.at", "00:00")
	v.SetDefault("backup.enabled", true)
	v.SetDefault("backup.encrypt", false)
	v.SetDefault("backup.owner_id", "")

	v.SetDefault("export.dir", "exports")

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("llm.timeout_seconds", 30)

	v.SetDefault("session.idle_minutes", 30)
	v.SetDefault("session.max_turns", 10)
	v.SetDefault("session.sweep_seconds", 60)
	v.SetDefault("session.context_turns", 5)

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "kantong")
	v.SetDefault("auth.expire_hours", 24*365)

	v.SetDefault("security.encryption_key", "")

	v.SetDefault("app.timezone", "Asia/Jakarta")
	v.SetDefault("app.default_wallet", "cash")
	v.SetDefault("app.history_limit", 10)
	v.SetDefault("app.page_size", 20)
}

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it looks for "config.yaml" in the working directory and
// falls back to defaults plus environment when none exists.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		appConfig, err = load(path)
	})
	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

func load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	// environment overrides, e.g. KANTONG_LLM_API_KEY=...
	v.SetEnvPrefix("KANTONG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}

// Location resolves App.Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

func (c LLMConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleMinutes) * time.Minute
}

func (c SessionConfig) SweepInterval() time.Duration {
	if c.SweepSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.SweepSeconds) * time.Second
}
