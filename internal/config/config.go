// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config holds all runtime configuration for the simulated exchange.
// Decimal fields are parsed from their textual form, so values like
// "0.005" survive without float rounding.
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	ProductName     string          `envconfig:"PRODUCT_NAME" default:"BTC-USD"`
	Currency        string          `envconfig:"CURRENCY" default:"USD"`
	AccountBalance  decimal.Decimal `envconfig:"ACCOUNT_BALANCE" default:"1000"`
	Fee             decimal.Decimal `envconfig:"FEE" default:"0"`
	ProductQuantity decimal.Decimal `envconfig:"PRODUCT_QUANTITY" default:"0"`

	ExpirationInterval time.Duration `envconfig:"EXPIRATION_INTERVAL" default:"1s"`
	WebhookTimeout     time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"5s"`
	VWAPWindow         time.Duration `envconfig:"VWAP_WINDOW" default:"5m"`
	ReadTimeout        time.Duration `envconfig:"READ_TIMEOUT" default:"5s"`
	WriteTimeout       time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	IdleTimeout        time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	if !isValidLogLevel(cfg.LogLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", cfg.LogLevel)
	}
	if cfg.ProductName == "" {
		return nil, fmt.Errorf("PRODUCT_NAME must not be empty")
	}
	if cfg.Currency == "" {
		return nil, fmt.Errorf("CURRENCY must not be empty")
	}
	if cfg.AccountBalance.IsNegative() {
		return nil, fmt.Errorf("ACCOUNT_BALANCE must not be negative")
	}
	if cfg.ProductQuantity.IsNegative() {
		return nil, fmt.Errorf("PRODUCT_QUANTITY must not be negative")
	}
	if cfg.Fee.IsNegative() || cfg.Fee.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("FEE must be a percentage between 0 and 100")
	}
	if cfg.ExpirationInterval <= 0 {
		return nil, fmt.Errorf("EXPIRATION_INTERVAL must be positive")
	}

	return &cfg, nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
