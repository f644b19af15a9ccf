package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okakura/multi-blog/internal/config"
	"github.com/okakura/multi-blog/middleware/ratelimit"
	"github.com/okakura/multi-blog/middleware/ratelimit/domain"
	"github.com/okakura/multi-blog/middleware/ratelimit/infra"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config error", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var stats domain.StatsStore
	if cfg.Stats.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Stats.RedisAddr,
			Password: cfg.Stats.RedisPassword,
			DB:       cfg.Stats.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancelPing()
		if err != nil {
			log.Error("redis stats ping error", "addr", cfg.Stats.RedisAddr, "err", err)
			os.Exit(1)
		}

		stats = infra.NewRedisStatsStore(rdb,
			infra.WithStatsPrefix(cfg.Stats.Prefix),
			infra.WithStatsTTL(cfg.Stats.TTL),
			infra.WithStatsBucket(cfg.Stats.Bucket),
			infra.WithStatsTrackKeys(cfg.Stats.TrackKeys),
		)
	}

	gates, err := buildGates(cfg, stats, log)
	if err != nil {
		log.Error("gate setup error", "err", err)
		os.Exit(1)
	}
	for _, g := range gates {
		g.StartEvictor(ctx)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Each route group sits behind its own named gate, so a client's budget
	// against one group is independent of its budget against another.
	r.Route("/auth", func(r chi.Router) {
		r.Use(gates[domain.ConfigAuth].Middleware)
		r.Post("/login", placeholder("login"))
		r.Post("/register", placeholder("register"))
	})
	r.Route("/admin", func(r chi.Router) {
		r.Use(gates[domain.ConfigAdmin].Middleware)
		r.Post("/posts", placeholder("create post"))
		r.Put("/posts/{id}", placeholder("update post"))
		r.Delete("/posts/{id}", placeholder("delete post"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(gates[domain.ConfigDefault].Middleware)
		r.Get("/posts", placeholder("list posts"))
		r.Get("/posts/{id}", placeholder("get post"))
		r.Post("/comments", placeholder("create comment"))
	})
	r.Route("/public", func(r chi.Router) {
		r.Use(gates[domain.ConfigReadOnly].Middleware)
		r.Get("/feed", placeholder("public feed"))
		r.Get("/posts/{slug}", placeholder("public post"))
	})
	r.Route("/account", func(r chi.Router) {
		r.Use(gates[domain.ConfigStrict].Middleware)
		r.Delete("/", placeholder("delete account"))
		r.Post("/export", placeholder("export data"))
	})

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("api listening",
		"addr", cfg.Server.ListenAddr,
		"stats_enabled", cfg.Stats.Enabled,
		"evict_interval", cfg.Evict.Interval.String(),
		"evict_idle_ttl", cfg.Evict.IdleTTL.String(),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "err", err)
		os.Exit(1)
	}
}

func buildGates(cfg config.Config, stats domain.StatsStore, log *slog.Logger) (map[string]*ratelimit.Gate, error) {
	names := []string{
		domain.ConfigAuth,
		domain.ConfigAdmin,
		domain.ConfigDefault,
		domain.ConfigReadOnly,
		domain.ConfigStrict,
	}

	gates := make(map[string]*ratelimit.Gate, len(names))
	for _, name := range names {
		opts := []ratelimit.GateOption{
			ratelimit.WithGateLogger(log),
			ratelimit.WithRegistryOptions(
				infra.WithSweepEvery(cfg.Evict.Interval),
				infra.WithIdleTTL(cfg.Evict.IdleTTL),
				infra.WithHighWatermark(cfg.Evict.HighWatermark),
			),
		}
		if stats != nil {
			opts = append(opts, ratelimit.WithStats(stats))
		}
		g, err := ratelimit.NewNamedGate(name, opts...)
		if err != nil {
			return nil, err
		}
		gates[name] = g
	}
	return gates, nil
}

// placeholder stands in for the CRUD handlers, which live outside this
// subsystem.
func placeholder(what string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","handler":"` + what + `"}`))
	}
}
