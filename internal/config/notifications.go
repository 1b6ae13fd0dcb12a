package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvNotifyHorizonDays    = "TICKLER_NOTIFY_HORIZON_DAYS"
	EnvNotifyTimeZone       = "TICKLER_NOTIFY_TIME_ZONE"
	EnvNotifySchedule       = "TICKLER_NOTIFY_SCHEDULE"
	EnvNotifyPersistTimeout = "TICKLER_NOTIFY_PERSIST_TIMEOUT"

	DefaultHorizonDays = 30
)

// NotificationsConfig holds expiry scan settings. HorizonDays is a pointer so
// an explicit 0 (today only) is distinguishable from unset. An empty Schedule
// disables the in-process scan schedule.
type NotificationsConfig struct {
	HorizonDays    *int   `toml:"horizon_days"`
	TimeZone       string `toml:"time_zone"`
	Schedule       string `toml:"schedule"`
	PersistTimeout string `toml:"persist_timeout"`

	location *time.Location
}

// Horizon returns the configured horizon in days.
func (c *NotificationsConfig) Horizon() int {
	if c.HorizonDays == nil {
		return DefaultHorizonDays
	}
	return *c.HorizonDays
}

// Location returns the loaded TimeZone. Valid after Finalize.
func (c *NotificationsConfig) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// ScheduleInterval returns Schedule as a time.Duration, zero when disabled.
func (c *NotificationsConfig) ScheduleInterval() time.Duration {
	d, _ := time.ParseDuration(c.Schedule)
	return d
}

// PersistTimeoutDuration returns PersistTimeout as a time.Duration.
func (c *NotificationsConfig) PersistTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.PersistTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *NotificationsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites set fields from overlay.
func (c *NotificationsConfig) Merge(overlay *NotificationsConfig) {
	if overlay.HorizonDays != nil {
		days := *overlay.HorizonDays
		c.HorizonDays = &days
	}
	if overlay.TimeZone != "" {
		c.TimeZone = overlay.TimeZone
	}
	if overlay.Schedule != "" {
		c.Schedule = overlay.Schedule
	}
	if overlay.PersistTimeout != "" {
		c.PersistTimeout = overlay.PersistTimeout
	}
}

func (c *NotificationsConfig) loadDefaults() {
	if c.HorizonDays == nil {
		days := DefaultHorizonDays
		c.HorizonDays = &days
	}
	if c.TimeZone == "" {
		c.TimeZone = "UTC"
	}
	if c.PersistTimeout == "" {
		c.PersistTimeout = "10s"
	}
}

func (c *NotificationsConfig) loadEnv() {
	if v := os.Getenv(EnvNotifyHorizonDays); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HorizonDays = &n
		}
	}
	if v := os.Getenv(EnvNotifyTimeZone); v != "" {
		c.TimeZone = v
	}
	if v := os.Getenv(EnvNotifySchedule); v != "" {
		c.Schedule = v
	}
	if v := os.Getenv(EnvNotifyPersistTimeout); v != "" {
		c.PersistTimeout = v
	}
}

func (c *NotificationsConfig) validate() error {
	if c.Horizon() < 0 {
		return fmt.Errorf("horizon_days must not be negative: %d", c.Horizon())
	}

	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid time_zone: %w", err)
	}
	c.location = loc

	if c.Schedule != "" {
		d, err := time.ParseDuration(c.Schedule)
		if err != nil {
			return fmt.Errorf("invalid schedule: %w", err)
		}
		if d < time.Minute {
			return fmt.Errorf("schedule must be at least 1m: %s", c.Schedule)
		}
	}

	d, err := time.ParseDuration(c.PersistTimeout)
	if err != nil {
		return fmt.Errorf("invalid persist_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("persist_timeout must be positive")
	}
	return nil
}
