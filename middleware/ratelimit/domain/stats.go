package domain

import (
	"context"
	"time"
)

// StatsEvent represents one admission decision.
//
// It is deliberately transport-agnostic: Method/Path are generic strings and
// work for web, gRPC, etc. Config names the gate that made the decision.
//
// Careful with cardinality: recording Key/Path without bounds can explode the
// number of series/keys in a store like Redis.
type StatsEvent struct {
	Config  string
	Key     Key
	Allowed bool

	Method string
	Path   string

	At time.Time
}

// StatsStore is the persistence strategy for admission statistics.
//
// Implementations may store in Redis, memory, etc. Gates treat Record as
// best-effort: an error never fails or delays the request being decided.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
