package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultUserAgent mimics the mobile web view the portal expects.
const DefaultUserAgent = "Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36 PortalConnect/1.0"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Portal    PortalConfig
	Sandbox   SandboxConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// PortalConfig controls how portal pages are fetched.
type PortalConfig struct {
	UserAgent    string        `envconfig:"PORTAL_USER_AGENT" default:"Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36 PortalConnect/1.0"`
	FetchTimeout time.Duration `envconfig:"PORTAL_FETCH_TIMEOUT" default:"15s"`
	MaxBodyBytes int64         `envconfig:"PORTAL_MAX_BODY_BYTES" default:"2097152"`
}

// SandboxConfig controls the script runtimes backing the web view.
type SandboxConfig struct {
	Timeout   time.Duration `envconfig:"SANDBOX_TIMEOUT" default:"5s"`
	PoolSize  int           `envconfig:"SANDBOX_POOL_SIZE" default:"4"`
	MaxTimers int           `envconfig:"SANDBOX_MAX_TIMERS" default:"64"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration. The per-client limit
// applies when Enabled; the global limit applies whenever GlobalRPS > 0.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	GlobalRPS         int  `envconfig:"RATE_LIMIT_GLOBAL_RPS" default:"0"`
	GlobalBurst       int  `envconfig:"RATE_LIMIT_GLOBAL_BURST" default:"0"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Sandbox.Timeout <= 0 {
		return fmt.Errorf("invalid config: SANDBOX_TIMEOUT must be positive, got %s", c.Sandbox.Timeout)
	}
	if c.Sandbox.PoolSize <= 0 {
		return fmt.Errorf("invalid config: SANDBOX_POOL_SIZE must be positive, got %d", c.Sandbox.PoolSize)
	}
	if c.RateLimit.GlobalRPS < 0 || c.RateLimit.GlobalBurst < 0 {
		return fmt.Errorf("invalid config: RATE_LIMIT_GLOBAL_RPS and RATE_LIMIT_GLOBAL_BURST must not be negative")
	}
	if c.Portal.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid config: PORTAL_MAX_BODY_BYTES must be positive, got %d", c.Portal.MaxBodyBytes)
	}
	return nil
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Portal: PortalConfig{
			UserAgent:    DefaultUserAgent,
			FetchTimeout: 15 * time.Second,
			MaxBodyBytes: 2 << 20,
		},
		Sandbox: SandboxConfig{
			Timeout:   5 * time.Second,
			PoolSize:  4,
			MaxTimers: 64,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
