package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %s, want info", cfg.LogLevel)
	}
	if cfg.ProductName != "BTC-USD" || cfg.Currency != "USD" {
		t.Errorf("product/currency = %s/%s", cfg.ProductName, cfg.Currency)
	}
	if !cfg.AccountBalance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("account balance = %s, want 1000", cfg.AccountBalance)
	}
	if !cfg.Fee.IsZero() || !cfg.ProductQuantity.IsZero() {
		t.Errorf("fee/quantity = %s/%s, want 0/0", cfg.Fee, cfg.ProductQuantity)
	}
	if cfg.ExpirationInterval != time.Second {
		t.Errorf("expiration interval = %v, want 1s", cfg.ExpirationInterval)
	}
	if cfg.VWAPWindow != 5*time.Minute {
		t.Errorf("vwap window = %v, want 5m", cfg.VWAPWindow)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ACCOUNT_BALANCE", "2500.50")
	t.Setenv("FEE", "0.25")
	t.Setenv("PRODUCT_NAME", "ETH-EUR")
	t.Setenv("CURRENCY", "EUR")
	t.Setenv("EXPIRATION_INTERVAL", "500ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Port)
	}
	if !cfg.AccountBalance.Equal(decimal.RequireFromString("2500.50")) {
		t.Errorf("account balance = %s, want 2500.50", cfg.AccountBalance)
	}
	if !cfg.Fee.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("fee = %s, want 0.25", cfg.Fee)
	}
	if cfg.ProductName != "ETH-EUR" || cfg.Currency != "EUR" {
		t.Errorf("product/currency = %s/%s", cfg.ProductName, cfg.Currency)
	}
	if cfg.ExpirationInterval != 500*time.Millisecond {
		t.Errorf("expiration interval = %v, want 500ms", cfg.ExpirationInterval)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "PORT", "not-a-port"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad balance", "ACCOUNT_BALANCE", "lots"},
		{"negative balance", "ACCOUNT_BALANCE", "-1"},
		{"fee above 100", "FEE", "101"},
		{"negative fee", "FEE", "-0.1"},
		{"negative quantity", "PRODUCT_QUANTITY", "-2"},
		{"empty product", "PRODUCT_NAME", ""},
		{"bad interval", "EXPIRATION_INTERVAL", "soon"},
		{"zero interval", "EXPIRATION_INTERVAL", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
