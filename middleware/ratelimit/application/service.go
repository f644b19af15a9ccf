package application

import (
	"time"

	"github.com/okakura/multi-blog/middleware/ratelimit/domain"
)

// Service holds the admission rule for one named configuration.
//
// It knows nothing about HTTP (headers/status); it only returns a decision.
type Service struct {
	Store domain.LimiterStore
	// RetryAfter is suggested to rejected callers. Gates set it to the
	// quota's per-token interval: the soonest a drained bucket earns a token.
	RetryAfter time.Duration
}

// Decide looks up (or creates) the bucket for key and tries to consume one
// token. Admission is a debit, never refunded: if the downstream pipeline
// fails after an admit, the token stays spent.
func (s Service) Decide(key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}

	lim := s.Store.Get(key)
	if lim == nil {
		return domain.Decision{Allowed: true}
	}
	if lim.Allow() {
		return domain.Decision{Allowed: true}
	}
	return domain.Decision{Allowed: false, RetryAfter: s.RetryAfter}
}
