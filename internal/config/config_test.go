package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.GatewayTimeout != 10*time.Second {
		t.Fatalf("expected default gateway timeout 10s, got %v", cfg.GatewayTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MUSIPAY_PORT", "9090")
	t.Setenv("MUSIPAY_ENV", "production")
	t.Setenv("MUSIPAY_GATEWAY_SECRET", "sk_live_x")
	t.Setenv("MUSIPAY_GATEWAY_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.Env != "production" || cfg.GatewaySecret != "sk_live_x" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.GatewayTimeout != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %v", cfg.GatewayTimeout)
	}
}
