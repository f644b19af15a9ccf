package domain

import (
	"errors"
	"time"
)

// Key identifies the client a budget is tracked under. In practice it is the
// string form of the resolved client IP (v4 or v6).
//
// Equality is exact: an IPv4-mapped IPv6 address is a different key than the
// plain IPv4 form. Callers must be consistent about which form they resolve.
type Key string

// ErrNoClientIP is returned when no client IP could be derived from any of
// the request signals. Admission control cannot be enforced without an
// identity, so callers must treat this as a hard failure rather than fall
// back to a shared sentinel key.
var ErrNoClientIP = errors.New("ratelimit: could not resolve client ip")

// Limiter is something that can decide whether one action is allowed right
// now. Allow never blocks and never consumes a token on rejection.
type Limiter interface {
	Allow() bool
}

// LimiterStore returns the limiter tracking a given key, creating it on
// first sight. Lookups for a key already present refresh its last-access
// time. Implementations keep at most one limiter per key, also under
// concurrent first-seen lookups.
type LimiterStore interface {
	Get(Key) Limiter
	// Len reports how many keys are currently tracked.
	Len() int
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool
	// RetryAfter is the value to suggest in a Retry-After header when
	// rejecting. Zero means no recommendation.
	RetryAfter time.Duration
}
