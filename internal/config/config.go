// Package config manages application configuration
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration
type Config struct {
	Environment string `env:"ENV, default=development"` // "development" or "production"

	// Database
	DatabaseURL string `env:"DATABASE_URL, default=orders.db"`

	// Security
	SecretKey        string        `env:"SECRET_KEY, default=dev-secret-key-change-in-production"` // signs remember tokens
	RememberDuration time.Duration `env:"REMEMBER_DURATION, default=720h"`
	BcryptCost       int           `env:"BCRYPT_COST, default=10"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`
}

// Prefix is prepended to every environment variable name.
const Prefix = "ORDERS_"

// Load reads configuration from ORDERS_* environment variables with sensible defaults
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from an explicit set of ORDERS_* keys.
func LoadFrom(ctx context.Context, env map[string]string) (*Config, error) {
	return load(ctx, envconfig.MapLookuper(env))
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(Prefix, l),
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: %sDATABASE_URL must not be empty", Prefix)
	}
	if c.SecretKey == "" {
		return fmt.Errorf("config: %sSECRET_KEY must not be empty", Prefix)
	}
	if c.RememberDuration <= 0 {
		return fmt.Errorf("config: %sREMEMBER_DURATION must be positive", Prefix)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("config: %sBCRYPT_COST must be between 4 and 31", Prefix)
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
