package infra

import (
	"context"
	"sync"

	"github.com/okakura/multi-blog/middleware/ratelimit/domain"
)

type Counters struct {
	Allowed  int64
	Rejected int64
}

// MemoryStatsStore is a simple in-memory sink. Useful for tests and
// development.
//
// It never expires anything and is not meant for production.
type MemoryStatsStore struct {
	mu       sync.Mutex
	total    Counters
	byConfig map[string]Counters
	byRoute  map[string]Counters
	byKey    map[string]Counters

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

// WithTrackKeys also aggregates per client key. Unbounded cardinality, keep
// it off outside tests.
func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byConfig: make(map[string]Counters),
		byRoute:  make(map[string]Counters),
		byKey:    make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	bump := func(c Counters) Counters {
		if ev.Allowed {
			c.Allowed++
		} else {
			c.Rejected++
		}
		return c
	}

	s.total = bump(s.total)
	s.byConfig[ev.Config] = bump(s.byConfig[ev.Config])
	s.byRoute[route] = bump(s.byRoute[route])
	if s.trackKeys {
		s.byKey[string(ev.Key)] = bump(s.byKey[string(ev.Key)])
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByConfig() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounters(s.byConfig)
}

func (s *MemoryStatsStore) ByRoute() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounters(s.byRoute)
}

func (s *MemoryStatsStore) ByKey() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounters(s.byKey)
}

func copyCounters(in map[string]Counters) map[string]Counters {
	out := make(map[string]Counters, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
