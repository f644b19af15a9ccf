package domain

import (
	"fmt"
	"time"
)

// Names of the recognized quota presets. Each maps to its own registry, so a
// client's budget against one route group is independent of the others.
const (
	ConfigAuth     = "auth"
	ConfigAdmin    = "admin"
	ConfigDefault  = "default"
	ConfigReadOnly = "read_only"
	ConfigStrict   = "strict"
)

// Quota is the immutable configuration of one named admission gate: up to
// MaxRequests admitted per rolling Window, with MaxRequests as the maximum
// burst. Tokens replenish continuously, one every Window/MaxRequests.
type Quota struct {
	MaxRequests int
	Window      time.Duration
}

// AuthQuota is for login/credential endpoints. 5 requests per minute.
func AuthQuota() Quota { return Quota{MaxRequests: 5, Window: time.Minute} }

// AdminQuota is for administrative mutation endpoints. 10 requests per minute.
func AdminQuota() Quota { return Quota{MaxRequests: 10, Window: time.Minute} }

// DefaultQuota covers general API traffic. 30 requests per minute.
func DefaultQuota() Quota { return Quota{MaxRequests: 30, Window: time.Minute} }

// ReadOnlyQuota is for public read endpoints. 100 requests per minute.
func ReadOnlyQuota() Quota { return Quota{MaxRequests: 100, Window: time.Minute} }

// StrictQuota is for highly sensitive one-off operations. 3 requests per minute.
func StrictQuota() Quota { return Quota{MaxRequests: 3, Window: time.Minute} }

// QuotaByName maps a preset name to its quota.
func QuotaByName(name string) (Quota, bool) {
	switch name {
	case ConfigAuth:
		return AuthQuota(), true
	case ConfigAdmin:
		return AdminQuota(), true
	case ConfigDefault:
		return DefaultQuota(), true
	case ConfigReadOnly:
		return ReadOnlyQuota(), true
	case ConfigStrict:
		return StrictQuota(), true
	}
	return Quota{}, false
}

func (q Quota) Validate() error {
	if q.MaxRequests < 1 {
		return fmt.Errorf("quota: max requests must be >= 1, got %d", q.MaxRequests)
	}
	if q.Window < time.Second {
		return fmt.Errorf("quota: window must be >= 1s, got %s", q.Window)
	}
	return nil
}

// PerTokenInterval is how long a fully drained bucket takes to earn one
// token back.
func (q Quota) PerTokenInterval() time.Duration {
	return q.Window / time.Duration(q.MaxRequests)
}
