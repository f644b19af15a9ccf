package ratelimit

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/okakura/multi-blog/middleware/ratelimit/domain"
)

// ClientIP resolves the client identity for a request. Precedence, first
// parseable wins:
//
//  1. first comma-separated value of X-Forwarded-For
//  2. X-Real-IP
//  3. the transport peer address (RemoteAddr)
//
// If none of the three yields an IP address it returns domain.ErrNoClientIP.
// There is deliberately no sentinel fallback: defaulting unidentifiable
// clients to a shared address would let them bypass (or exhaust) per-client
// quotas.
func ClientIP(r *http.Request) (netip.Addr, error) {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr, nil
		}
	}

	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		if addr, err := netip.ParseAddr(rip); err == nil {
			return addr, nil
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr, nil
	}

	return netip.Addr{}, domain.ErrNoClientIP
}
