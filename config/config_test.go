package config

import (
	"errors"
	"os"
	"testing"
	"time"
)

func setEnvWithCleanup(t *testing.T, key, value string) {
	t.Helper()
	t.Setenv(key, value)
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, had := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			os.Setenv(key, prev)
		}
	})
}

func setSecrets(t *testing.T) {
	t.Helper()
	setEnvWithCleanup(t, "SESSION_SECRET", "0123456789abcdef0123456789abcdef")
	setEnvWithCleanup(t, "QUOTE_SIGNING_SECRET", "quote-secret")
}

func TestLoadDefaults(t *testing.T) {
	setSecrets(t)
	for _, key := range []string{"SELLER_STATE_CODE", "OTP_TIMEOUT", "SERVERPE_PAYMENT_TIMEOUT", "PUBLIC_ROUTES", "DB_NAME"} {
		unsetEnvWithCleanup(t, key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Checkout.SellerStateCode != "29" {
		t.Fatalf("expected seller state 29, got %q", cfg.Checkout.SellerStateCode)
	}
	if cfg.Auth.OTPTimeout != 15*time.Second {
		t.Fatalf("expected 15s OTP timeout, got %v", cfg.Auth.OTPTimeout)
	}
	if cfg.Backend.PaymentTimeout != 10*time.Second {
		t.Fatalf("expected 10s payment timeout, got %v", cfg.Backend.PaymentTimeout)
	}
	if len(cfg.Auth.PublicRoutes) == 0 || cfg.Auth.PublicRoutes[0] != "/" {
		t.Fatalf("expected default public routes, got %v", cfg.Auth.PublicRoutes)
	}
	if cfg.Database.DBName != "serverpe_gateway" {
		t.Fatalf("expected default database name, got %q", cfg.Database.DBName)
	}
}

func TestLoadOverrides(t *testing.T) {
	setSecrets(t)
	setEnvWithCleanup(t, "SELLER_STATE_CODE", "27")
	setEnvWithCleanup(t, "SERVERPE_BASE_URL", "https://api.serverpe.in/api")
	setEnvWithCleanup(t, "PUBLIC_ROUTES", "/,/projects/*")
	setEnvWithCleanup(t, "DB_HOST", "db:3306")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Checkout.SellerStateCode != "27" {
		t.Fatalf("expected seller state override, got %q", cfg.Checkout.SellerStateCode)
	}
	if cfg.Backend.BaseURL != "https://api.serverpe.in/api" {
		t.Fatalf("expected backend URL override, got %q", cfg.Backend.BaseURL)
	}
	if len(cfg.Auth.PublicRoutes) != 2 || cfg.Auth.PublicRoutes[1] != "/projects/*" {
		t.Fatalf("expected two public routes, got %v", cfg.Auth.PublicRoutes)
	}
	if cfg.Database.Host != "db:3306" {
		t.Fatalf("expected DB_HOST override, got %q", cfg.Database.Host)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	tests := []struct {
		name string
		keep string
	}{
		{name: "no session secret", keep: "QUOTE_SIGNING_SECRET"},
		{name: "no quote secret", keep: "SESSION_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetEnvWithCleanup(t, "SESSION_SECRET")
			unsetEnvWithCleanup(t, "QUOTE_SIGNING_SECRET")
			setEnvWithCleanup(t, tt.keep, "secret")

			if _, err := Load(); !errors.Is(err, ErrMissingSecret) {
				t.Fatalf("expected ErrMissingSecret, got %v", err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "localhost:3306", User: "app", Password: "pw", DBName: "serverpe_gateway"}
	want := "app:pw@tcp(localhost:3306)/serverpe_gateway?parseTime=true"
	if got := cfg.DSN(); got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
}
