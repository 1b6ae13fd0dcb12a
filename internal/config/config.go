// Package config loads the Tickler service configuration from TOML files and
// TICKLER_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/tickler/pkg/auth"
	"github.com/JaimeStill/tickler/pkg/database"
	"github.com/JaimeStill/tickler/pkg/mail"
	"github.com/JaimeStill/tickler/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvTicklerEnv             = "TICKLER_ENV"
	EnvTicklerConfigDir       = "TICKLER_CONFIG_DIR"
	EnvTicklerShutdownTimeout = "TICKLER_SHUTDOWN_TIMEOUT"
	EnvTicklerVersion         = "TICKLER_VERSION"
	EnvTicklerLogLevel        = "TICKLER_LOG_LEVEL"
)

var databaseEnv = &database.Env{
	Host:            "TICKLER_DB_HOST",
	Port:            "TICKLER_DB_PORT",
	Name:            "TICKLER_DB_NAME",
	User:            "TICKLER_DB_USER",
	Password:        "TICKLER_DB_PASSWORD",
	SSLMode:         "TICKLER_DB_SSL_MODE",
	MaxConns:        "TICKLER_DB_MAX_CONNS",
	MinConns:        "TICKLER_DB_MIN_CONNS",
	ConnMaxLifetime: "TICKLER_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "TICKLER_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "TICKLER_STORAGE_CONTAINER_NAME",
	ConnectionString: "TICKLER_STORAGE_CONNECTION_STRING",
	AccountURL:       "TICKLER_STORAGE_ACCOUNT_URL",
}

var mailEnv = &mail.Env{
	Driver:    "TICKLER_MAIL_DRIVER",
	Host:      "TICKLER_MAIL_HOST",
	Port:      "TICKLER_MAIL_PORT",
	Username:  "TICKLER_MAIL_USERNAME",
	Password:  "TICKLER_MAIL_PASSWORD",
	From:      "TICKLER_MAIL_FROM",
	TLSPolicy: "TICKLER_MAIL_TLS_POLICY",
	Timeout:   "TICKLER_MAIL_TIMEOUT",
}

var authEnv = &auth.Env{
	Enabled:   "TICKLER_AUTH_ENABLED",
	IssuerURL: "TICKLER_AUTH_ISSUER_URL",
	Audience:  "TICKLER_AUTH_AUDIENCE",
}

// Config is the root configuration for the Tickler service.
type Config struct {
	Server          ServerConfig        `toml:"server"`
	Database        database.Config     `toml:"database"`
	Storage         storage.Config      `toml:"storage"`
	Mail            mail.Config         `toml:"mail"`
	Auth            auth.Config         `toml:"auth"`
	API             APIConfig           `toml:"api"`
	Users           UsersConfig         `toml:"users"`
	Notifications   NotificationsConfig `toml:"notifications"`
	LogLevel        string              `toml:"log_level"`
	ShutdownTimeout string              `toml:"shutdown_timeout"`
	Version         string              `toml:"version"`
}

// Env returns the TICKLER_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvTicklerEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// SlogLevel returns LogLevel as a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	level.UnmarshalText([]byte(c.LogLevel))
	return level
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. Files are resolved relative to TICKLER_CONFIG_DIR
// when set. If no config.toml exists, defaults and environment variables
// provide all configuration.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// LoadDatabase reads the same sources as Load but finalizes only the database
// section, for tools that need no other service configuration.
func LoadDatabase() (*database.Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if err := cfg.Database.Finalize(databaseEnv); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	return &cfg.Database, nil
}

func read() (*Config, error) {
	cfg := &Config{}

	base := configPath(BaseConfigFile)
	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Mail.Merge(&overlay.Mail)
	c.Auth.Merge(&overlay.Auth)
	c.API.Merge(&overlay.API)
	c.Users.Merge(&overlay.Users)
	c.Notifications.Merge(&overlay.Notifications)
}

// Finalize applies defaults, environment overrides, and validation to the
// root config and every section.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Mail.Finalize(mailEnv); err != nil {
		return fmt.Errorf("mail: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Users.Finalize(); err != nil {
		return fmt.Errorf("users: %w", err)
	}
	if err := c.Notifications.Finalize(); err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvTicklerLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvTicklerShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvTicklerVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func configPath(name string) string {
	if dir := os.Getenv(EnvTicklerConfigDir); dir != "" {
		return dir + string(os.PathSeparator) + name
	}
	return name
}

func overlayPath() string {
	if env := os.Getenv(EnvTicklerEnv); env != "" {
		path := configPath(fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
