package config

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/JaimeStill/tickler/pkg/middleware"
	"github.com/JaimeStill/tickler/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "TICKLER_CORS_ENABLED",
	Origins:          "TICKLER_CORS_ORIGINS",
	AllowedMethods:   "TICKLER_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "TICKLER_CORS_ALLOWED_HEADERS",
	AllowCredentials: "TICKLER_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "TICKLER_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "TICKLER_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "TICKLER_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, upload limits, CORS, and pagination settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`

	maxUploadBytes int64
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes. Valid after Finalize.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	return c.maxUploadBytes
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("TICKLER_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("TICKLER_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
}

func (c *APIConfig) validate() error {
	size, err := humanize.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size == 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	c.maxUploadBytes = int64(size)
	return nil
}
