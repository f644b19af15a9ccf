package infra

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okakura/multi-blog/middleware/ratelimit/domain"

	"golang.org/x/time/rate"
)

const shardCount = 64

// Registry implements domain.LimiterStore: a sharded map from client key to
// token bucket plus last-access time.
//
// Unrelated keys hash to different shards, so the steady-state lookup path
// never serializes the whole collection behind one mutex. Within a shard,
// repeat lookups take only the read lock; last-access is touched atomically.
type Registry struct {
	shards [shardCount]shard

	limit rate.Limit
	burst int

	idleTTL       time.Duration
	sweepEvery    time.Duration
	highWatermark int

	log       *slog.Logger
	name      string
	evictHook func(removed, remaining int)
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	lim *rate.Limiter
	// lastSeen is unix nanoseconds, written on every real lookup and read by
	// the janitor without taking the write lock.
	lastSeen atomic.Int64
}

// touch advances lastSeen to now. Last-access never moves backwards, even
// when two touches of the same key race with different clock reads.
func (e *entry) touch(now int64) {
	for {
		prev := e.lastSeen.Load()
		if prev >= now || e.lastSeen.CompareAndSwap(prev, now) {
			return
		}
	}
}

type RegistryOption func(*Registry)

// WithIdleTTL sets how long a key may go untouched before the janitor may
// evict it. Must be materially longer than the quota window; a window's
// worth of silence is not evidence of abandonment.
func WithIdleTTL(d time.Duration) RegistryOption {
	return func(r *Registry) { r.idleTTL = d }
}

// WithSweepEvery sets the janitor interval. Zero disables the janitor.
func WithSweepEvery(d time.Duration) RegistryOption {
	return func(r *Registry) { r.sweepEvery = d }
}

// WithHighWatermark sets the remaining-entry count above which a sweep logs
// a warning: either legitimately high client cardinality or a spoofing/DoS
// pattern worth investigating.
func WithHighWatermark(n int) RegistryOption {
	return func(r *Registry) { r.highWatermark = n }
}

func WithLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) { r.log = log }
}

// WithName labels the registry in janitor logs (usually the gate name).
func WithName(name string) RegistryOption {
	return func(r *Registry) { r.name = name }
}

// WithEvictHook installs a callback invoked after every sweep with the
// removed and remaining counts.
func WithEvictHook(fn func(removed, remaining int)) RegistryOption {
	return func(r *Registry) { r.evictHook = fn }
}

// NewRegistry builds a registry whose buckets are seeded from q: capacity
// q.MaxRequests, refilling one token every q.Window/q.MaxRequests.
func NewRegistry(q domain.Quota, opts ...RegistryOption) *Registry {
	r := &Registry{
		limit:         rate.Every(q.PerTokenInterval()),
		burst:         q.MaxRequests,
		idleTTL:       time.Hour,
		sweepEvery:    5 * time.Minute,
		highWatermark: 10000,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for i := range r.shards {
		r.shards[i].entries = make(map[string]*entry)
	}
	return r
}

// Get implements domain.LimiterStore. It returns the bucket tracking key,
// creating it on first sight and refreshing its last-access time otherwise.
// Racing first-seen lookups for the same key all observe the same bucket.
func (r *Registry) Get(key domain.Key) domain.Limiter {
	return r.bucket(string(key))
}

func (r *Registry) bucket(key string) *rate.Limiter {
	sh := &r.shards[shardIndex(key)]
	now := time.Now().UnixNano()

	sh.mu.RLock()
	ent, ok := sh.entries[key]
	sh.mu.RUnlock()
	if ok {
		ent.touch(now)
		return ent.lim
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	// Double-check: another request may have inserted while we waited.
	if ent, ok := sh.entries[key]; ok {
		ent.touch(now)
		return ent.lim
	}
	ent = &entry{lim: rate.NewLimiter(r.limit, r.burst)}
	ent.lastSeen.Store(now)
	sh.entries[key] = ent
	return ent.lim
}

// Len reports the number of tracked keys across all shards. Shards are read
// one at a time, so the total is approximate under concurrent mutation.
func (r *Registry) Len() int {
	n := 0
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// Sweep removes every entry idle longer than the configured TTL and returns
// the removed and remaining counts.
//
// Known race, accepted: the cutoff is snapshotted once, so a touch that
// lands while a shard is being swept can still lose its entry. The affected
// client merely gets a fresh (full) bucket on its next request.
func (r *Registry) Sweep() (removed, remaining int) {
	cutoff := time.Now().Add(-r.idleTTL).UnixNano()
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.Lock()
		for k, ent := range sh.entries {
			if ent.lastSeen.Load() < cutoff {
				delete(sh.entries, k)
				removed++
			}
		}
		remaining += len(sh.entries)
		sh.mu.Unlock()
	}
	return removed, remaining
}

// StartJanitor launches the background eviction loop. It runs until ctx is
// cancelled. A panic during a sweep (or in an evict hook) is logged and the
// loop keeps ticking; eviction bugs degrade memory growth, never request
// serving.
func (r *Registry) StartJanitor(ctx context.Context) {
	if r.sweepEvery <= 0 {
		return
	}

	t := time.NewTicker(r.sweepEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				r.runSweep()
			}
		}
	}()
}

func (r *Registry) runSweep() {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("limiter sweep panicked",
				"config", r.name,
				"panic", rec,
			)
		}
	}()

	removed, remaining := r.Sweep()
	if removed > 0 {
		r.log.Info("cleaned up idle rate limiters",
			"config", r.name,
			"removed", removed,
			"remaining", remaining,
		)
	}
	if remaining > r.highWatermark {
		r.log.Warn("large number of active rate limiters",
			"config", r.name,
			"remaining", remaining,
			"high_watermark", r.highWatermark,
		)
	}
	if r.evictHook != nil {
		r.evictHook(removed, remaining)
	}
}

func shardIndex(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shardCount
}
