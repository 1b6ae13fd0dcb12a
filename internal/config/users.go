package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvUsersCacheSize = "TICKLER_USERS_CACHE_SIZE"
	EnvUsersCacheTTL  = "TICKLER_USERS_CACHE_TTL"
)

// UsersConfig holds settings for the owner email lookup cache.
type UsersConfig struct {
	CacheSize int    `toml:"cache_size"`
	CacheTTL  string `toml:"cache_ttl"`
}

// CacheTTLDuration returns CacheTTL as a time.Duration.
func (c *UsersConfig) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *UsersConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *UsersConfig) Merge(overlay *UsersConfig) {
	if overlay.CacheSize != 0 {
		c.CacheSize = overlay.CacheSize
	}
	if overlay.CacheTTL != "" {
		c.CacheTTL = overlay.CacheTTL
	}
}

func (c *UsersConfig) loadDefaults() {
	if c.CacheSize == 0 {
		c.CacheSize = 1024
	}
	if c.CacheTTL == "" {
		c.CacheTTL = "5m"
	}
}

func (c *UsersConfig) loadEnv() {
	if v := os.Getenv(EnvUsersCacheSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CacheSize = n
		}
	}
	if v := os.Getenv(EnvUsersCacheTTL); v != "" {
		c.CacheTTL = v
	}
}

func (c *UsersConfig) validate() error {
	if c.CacheSize < 1 {
		return fmt.Errorf("cache_size must be positive: %d", c.CacheSize)
	}
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return fmt.Errorf("invalid cache_ttl: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("cache_ttl must be positive")
	}
	return nil
}
