// Package config centralizes application configuration loading from the
// environment (with optional .env support).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Evict  EvictConfig
	Stats  StatsConfig
}

type ServerConfig struct {
	ListenAddr string
}

// EvictConfig tunes the background janitor of every gate.
type EvictConfig struct {
	// Interval between sweeps.
	Interval time.Duration
	// IdleTTL is how long a client may stay silent before its limiter is
	// evicted. Must be longer than any quota window.
	IdleTTL time.Duration
	// HighWatermark is the tracked-client count above which sweeps warn.
	HighWatermark int
}

// minIdleTTL keeps the staleness horizon well above the 60s quota windows:
// a TTL at or near a window would evict slow-but-recurring clients
// mid-session.
const minIdleTTL = 5 * time.Minute

type StatsConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
	TTL           time.Duration
	Bucket        string
	TrackKeys     bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Server: ServerConfig{
			ListenAddr: getenvDefault("LISTEN_ADDR", ":8080"),
		},
		Evict: EvictConfig{
			Interval:      getenvDurationDefault("EVICT_INTERVAL", 5*time.Minute),
			IdleTTL:       getenvDurationDefault("EVICT_IDLE_TTL", time.Hour),
			HighWatermark: getenvIntDefault("EVICT_HIGH_WATERMARK", 10000),
		},
		Stats: StatsConfig{
			Enabled:       getenvBoolDefault("STATS_ENABLED", false),
			RedisAddr:     os.Getenv("STATS_REDIS_ADDR"),
			RedisPassword: os.Getenv("STATS_REDIS_PASSWORD"),
			RedisDB:       getenvIntDefault("STATS_REDIS_DB", 0),
			Prefix:        getenvDefault("STATS_PREFIX", "ratelimit:stats"),
			TTL:           getenvDurationDefault("STATS_TTL", 24*time.Hour),
			Bucket:        getenvDefault("STATS_BUCKET", "minute"),
			TrackKeys:     getenvBoolDefault("STATS_TRACK_KEYS", false),
		},
	}

	if cfg.Evict.Interval <= 0 {
		return Config{}, errors.New("EVICT_INTERVAL must be > 0")
	}
	if cfg.Evict.IdleTTL < minIdleTTL {
		return Config{}, fmt.Errorf("EVICT_IDLE_TTL must be at least %s, got %s", minIdleTTL, cfg.Evict.IdleTTL)
	}
	if cfg.Stats.Enabled && strings.TrimSpace(cfg.Stats.RedisAddr) == "" {
		return Config{}, errors.New("STATS_REDIS_ADDR is required when STATS_ENABLED=true")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
