package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "DB_PATH", "DB_DEBUG", "REDIS_ADDR", "CACHE_TTL", "RATE_LIMIT_REQUESTS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.HTTPAddr != ":3000" {
		t.Errorf("expected HTTPAddr ':3000', got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "status_point.db" {
		t.Errorf("expected DBPath 'status_point.db', got %q", cfg.DBPath)
	}
	if cfg.DBDebug {
		t.Error("expected DBDebug false by default")
	}
	if cfg.RedisEnabled() {
		t.Error("expected Redis disabled without REDIS_ADDR")
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("expected CacheTTL 5m, got %s", cfg.CacheTTL)
	}
	if cfg.RateLimitRequests != 100 {
		t.Errorf("expected RateLimitRequests 100, got %d", cfg.RateLimitRequests)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("DB_DEBUG", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("JWT_ACCESS_TTL", "1h")

	cfg := Load()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected HTTPAddr ':8080', got %q", cfg.HTTPAddr)
	}
	if !cfg.DBDebug {
		t.Error("expected DBDebug true")
	}
	if !cfg.RedisEnabled() || cfg.RedisDB != 2 {
		t.Errorf("unexpected redis settings: %q db=%d", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("expected CacheTTL 30s, got %s", cfg.CacheTTL)
	}
	if cfg.JWTAccessTTL != time.Hour {
		t.Errorf("expected JWTAccessTTL 1h, got %s", cfg.JWTAccessTTL)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("CACHE_TTL", "soon")
	t.Setenv("DB_DEBUG", "maybe")

	cfg := Load()

	if cfg.RedisDB != 0 {
		t.Errorf("expected RedisDB fallback 0, got %d", cfg.RedisDB)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("expected CacheTTL fallback 5m, got %s", cfg.CacheTTL)
	}
	if cfg.DBDebug {
		t.Error("expected DBDebug fallback false")
	}
}
