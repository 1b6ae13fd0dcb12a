package mail

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Drivers supported by New.
const (
	DriverSMTP = "smtp"
	DriverLog  = "log"
)

// TLS policies accepted by Config.TLSPolicy.
const (
	TLSMandatory     = "mandatory"
	TLSOpportunistic = "opportunistic"
	TLSNone          = "none"
)

// Config holds outbound mail settings.
type Config struct {
	Driver    string `toml:"driver"`
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	From      string `toml:"from"`
	TLSPolicy string `toml:"tls_policy"`
	Timeout   string `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Driver    string
	Host      string
	Port      string
	Username  string
	Password  string
	From      string
	TLSPolicy string
	Timeout   string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Driver != "" {
		c.Driver = overlay.Driver
	}
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	if overlay.Username != "" {
		c.Username = overlay.Username
	}
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.From != "" {
		c.From = overlay.From
	}
	if overlay.TLSPolicy != "" {
		c.TLSPolicy = overlay.TLSPolicy
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if c.Driver == "" {
		c.Driver = DriverSMTP
	}
	if c.Port == 0 {
		c.Port = 587
	}
	if c.TLSPolicy == "" {
		c.TLSPolicy = TLSMandatory
	}
	if c.Timeout == "" {
		c.Timeout = "15s"
	}
}

func (c *Config) loadEnv(env *Env) {
	setString := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	setString(env.Driver, &c.Driver)
	setString(env.Host, &c.Host)
	setString(env.Username, &c.Username)
	setString(env.Password, &c.Password)
	setString(env.From, &c.From)
	setString(env.TLSPolicy, &c.TLSPolicy)
	setString(env.Timeout, &c.Timeout)

	if env.Port != "" {
		if v := os.Getenv(env.Port); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				c.Port = port
			}
		}
	}
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverLog:
		return nil
	case DriverSMTP:
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}

	if c.Host == "" {
		return fmt.Errorf("host required")
	}
	if c.From == "" {
		return fmt.Errorf("from required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.TLSPolicy {
	case TLSMandatory, TLSOpportunistic, TLSNone:
	default:
		return fmt.Errorf("unsupported tls_policy %q", c.TLSPolicy)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
