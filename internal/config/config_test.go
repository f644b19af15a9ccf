package config

import (
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads, so tests see only what they set
// themselves rather than the ambient process environment or a stray .env.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LISTEN_ADDR",
		"EVICT_INTERVAL", "EVICT_IDLE_TTL", "EVICT_HIGH_WATERMARK",
		"STATS_ENABLED", "STATS_REDIS_ADDR", "STATS_REDIS_PASSWORD",
		"STATS_REDIS_DB", "STATS_PREFIX", "STATS_TTL", "STATS_BUCKET",
		"STATS_TRACK_KEYS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Fatalf("expected default listen addr, got %q", cfg.Server.ListenAddr)
	}
	if cfg.Evict.Interval != 5*time.Minute {
		t.Fatalf("expected default evict interval 5m, got %s", cfg.Evict.Interval)
	}
	if cfg.Evict.IdleTTL != time.Hour {
		t.Fatalf("expected default idle TTL 1h, got %s", cfg.Evict.IdleTTL)
	}
	if cfg.Evict.HighWatermark != 10000 {
		t.Fatalf("expected default high watermark 10000, got %d", cfg.Evict.HighWatermark)
	}
	if cfg.Stats.Enabled {
		t.Fatalf("expected stats disabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("EVICT_INTERVAL", "30s")
	t.Setenv("EVICT_IDLE_TTL", "10m")
	t.Setenv("EVICT_HIGH_WATERMARK", "500")
	t.Setenv("STATS_ENABLED", "true")
	t.Setenv("STATS_REDIS_ADDR", "localhost:6379")
	t.Setenv("STATS_TRACK_KEYS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":9999" {
		t.Fatalf("expected :9999, got %q", cfg.Server.ListenAddr)
	}
	if cfg.Evict.Interval != 30*time.Second {
		t.Fatalf("expected 30s interval, got %s", cfg.Evict.Interval)
	}
	if cfg.Evict.IdleTTL != 10*time.Minute {
		t.Fatalf("expected 10m TTL, got %s", cfg.Evict.IdleTTL)
	}
	if cfg.Evict.HighWatermark != 500 {
		t.Fatalf("expected 500, got %d", cfg.Evict.HighWatermark)
	}
	if !cfg.Stats.Enabled || cfg.Stats.RedisAddr != "localhost:6379" || !cfg.Stats.TrackKeys {
		t.Fatalf("expected stats config applied, got %+v", cfg.Stats)
	}
}

func TestLoad_StatsRequiresRedisAddr(t *testing.T) {
	clearEnv(t)
	t.Setenv("STATS_ENABLED", "true")
	t.Setenv("STATS_REDIS_ADDR", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when stats enabled without redis addr")
	}
}

func TestLoad_RejectsIdleTTLNearQuotaWindow(t *testing.T) {
	clearEnv(t)

	// A TTL equal to the 60s quota windows is not enough idle evidence to
	// evict; the horizon must sit materially above them.
	for _, ttl := range []string{"10s", "60s", "1m"} {
		t.Setenv("EVICT_IDLE_TTL", ttl)
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for idle TTL %s", ttl)
		}
	}

	t.Setenv("EVICT_IDLE_TTL", "5m")
	if _, err := Load(); err != nil {
		t.Fatalf("expected 5m TTL to be accepted, got %v", err)
	}
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("EVICT_INTERVAL", "not-a-duration")
	t.Setenv("EVICT_HIGH_WATERMARK", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Evict.Interval != 5*time.Minute {
		t.Fatalf("expected fallback interval, got %s", cfg.Evict.Interval)
	}
	if cfg.Evict.HighWatermark != 10000 {
		t.Fatalf("expected fallback high watermark, got %d", cfg.Evict.HighWatermark)
	}
}
