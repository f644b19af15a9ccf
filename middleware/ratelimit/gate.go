package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/okakura/multi-blog/middleware/ratelimit/application"
	"github.com/okakura/multi-blog/middleware/ratelimit/domain"
	"github.com/okakura/multi-blog/middleware/ratelimit/infra"
)

// Gate is one named admission point: a quota, its own registry of per-client
// buckets, and the HTTP middleware that enforces it.
type Gate struct {
	name  string
	quota domain.Quota
	reg   *infra.Registry
	svc   application.Service
	stats domain.StatsStore
	log   *slog.Logger

	addHeaders bool

	total        atomic.Int64
	allowed      atomic.Int64
	rejected     atomic.Int64
	unresolved   atomic.Int64
	recordErrors atomic.Int64
}

// GateCounters is a point-in-time snapshot of a gate's counters.
type GateCounters struct {
	Total      int64
	Allowed    int64
	Rejected   int64
	Unresolved int64
	// RecordErrors counts failed stats-sink writes. The writes are
	// asynchronous, so this can lag the requests that caused them.
	RecordErrors int64
}

type GateOption func(*gateConfig)

type gateConfig struct {
	stats      domain.StatsStore
	log        *slog.Logger
	addHeaders bool
	regOpts    []infra.RegistryOption
}

// WithStats attaches a best-effort statistics sink to the gate.
func WithStats(stats domain.StatsStore) GateOption {
	return func(c *gateConfig) { c.stats = stats }
}

func WithGateLogger(log *slog.Logger) GateOption {
	return func(c *gateConfig) { c.log = log }
}

// WithRateLimitHeaders advertises the gate's quota on every response via
// X-RateLimit-Limit / X-RateLimit-Window headers. Off by default.
func WithRateLimitHeaders(add bool) GateOption {
	return func(c *gateConfig) { c.addHeaders = add }
}

// WithRegistryOptions forwards options to the gate's registry (janitor
// interval, idle TTL, high watermark).
func WithRegistryOptions(opts ...infra.RegistryOption) GateOption {
	return func(c *gateConfig) { c.regOpts = append(c.regOpts, opts...) }
}

// NewGate builds a named gate with its own registry seeded from q.
func NewGate(name string, q domain.Quota, opts ...GateOption) (*Gate, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	cfg := gateConfig{log: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	regOpts := append([]infra.RegistryOption{
		infra.WithName(name),
		infra.WithLogger(cfg.log),
	}, cfg.regOpts...)
	reg := infra.NewRegistry(q, regOpts...)

	return &Gate{
		name:  name,
		quota: q,
		reg:   reg,
		svc: application.Service{
			Store:      reg,
			RetryAfter: q.PerTokenInterval(),
		},
		stats:      cfg.stats,
		log:        cfg.log,
		addHeaders: cfg.addHeaders,
	}, nil
}

// NewNamedGate builds a gate for one of the recognized presets (auth, admin,
// default, read_only, strict).
func NewNamedGate(name string, opts ...GateOption) (*Gate, error) {
	q, ok := domain.QuotaByName(name)
	if !ok {
		return nil, fmt.Errorf("ratelimit: unknown configuration %q", name)
	}
	return NewGate(name, q, opts...)
}

func (g *Gate) Name() string        { return g.name }
func (g *Gate) Quota() domain.Quota { return g.quota }

// TrackedClients reports how many client keys the gate currently holds.
func (g *Gate) TrackedClients() int { return g.reg.Len() }

// StartEvictor launches the gate's background janitor; it stops when ctx is
// cancelled.
func (g *Gate) StartEvictor(ctx context.Context) { g.reg.StartJanitor(ctx) }

// Counters returns a snapshot of the gate's request counters.
func (g *Gate) Counters() GateCounters {
	return GateCounters{
		Total:        g.total.Load(),
		Allowed:      g.allowed.Load(),
		Rejected:     g.rejected.Load(),
		Unresolved:   g.unresolved.Load(),
		RecordErrors: g.recordErrors.Load(),
	}
}

// Middleware enforces the gate in front of next.
//
// Requests whose client IP cannot be resolved are refused with 500: without
// an identity the quota cannot be enforced, and silently lumping such
// clients under one shared key would let any of them exhaust it for all.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.total.Add(1)

		ip, err := ClientIP(r)
		if err != nil {
			g.unresolved.Add(1)
			g.log.Error("could not resolve client ip, refusing request",
				"config", g.name,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		key := domain.Key(ip.String())

		if g.addHeaders {
			w.Header().Set("X-RateLimit-Limit", formatInt(g.quota.MaxRequests))
			w.Header().Set("X-RateLimit-Window", formatFloat(g.quota.Window.Seconds()))
		}

		dec := g.svc.Decide(key)
		g.record(r, key, dec.Allowed)

		if !dec.Allowed {
			g.rejected.Add(1)
			g.log.Warn("rate limit exceeded",
				"config", g.name,
				"ip", ip.String(),
				"max_requests", g.quota.MaxRequests,
				"window_seconds", int(g.quota.Window.Seconds()),
				"path", r.URL.Path,
			)
			w.Header().Set("Retry-After", formatInt(retryAfterSeconds(dec.RetryAfter)))
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		g.allowed.Add(1)
		next.ServeHTTP(w, r)
	})
}

// statsRecordTimeout bounds how long a background stats write may take.
const statsRecordTimeout = 2 * time.Second

func (g *Gate) record(r *http.Request, key domain.Key, allowed bool) {
	if g.stats == nil {
		return
	}
	ev := domain.StatsEvent{
		Config:  g.name,
		Key:     key,
		Allowed: allowed,
		Method:  r.Method,
		Path:    r.URL.Path,
		At:      time.Now(),
	}
	// Fire and forget: the sink may do network I/O and must never delay or
	// fail the request being decided. The write outlives the request, so it
	// gets its own context rather than r.Context().
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), statsRecordTimeout)
		defer cancel()
		if err := g.stats.Record(ctx, ev); err != nil {
			g.recordErrors.Add(1)
		}
	}()
}

// retryAfterSeconds rounds up so we never tell a client to come back sooner
// than a token can actually exist.
func retryAfterSeconds(d time.Duration) int {
	s := int(d / time.Second)
	if d%time.Second != 0 {
		s++
	}
	if s < 1 {
		s = 1
	}
	return s
}
