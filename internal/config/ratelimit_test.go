package config

import (
	"testing"
	"time"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	cfg := LoadRateLimitConfig()
	if !cfg.Enabled {
		t.Error("limiter should default to enabled")
	}
	if cfg.Capacity != 60 || cfg.RefillTokens != 1 {
		t.Errorf("unexpected defaults: capacity=%d refill=%d", cfg.Capacity, cfg.RefillTokens)
	}
	if cfg.KeyStrategy != "ip_user_route" {
		t.Errorf("key strategy = %q", cfg.KeyStrategy)
	}
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "-5")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s") // below 5x refill interval
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Errorf("capacity not clamped: %d", cfg.Capacity)
	}
	if cfg.TTL != 10*time.Second {
		t.Errorf("TTL not raised to 5x interval: %v", cfg.TTL)
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("FLAG_X", "on")
	if !envBool("FLAG_X", false) {
		t.Error("\"on\" should parse as true")
	}
	t.Setenv("FLAG_X", "garbage")
	if envBool("FLAG_X", false) {
		t.Error("garbage should fall back to the default")
	}
}
