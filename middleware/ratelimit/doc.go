// Package ratelimit provides the HTTP adapter for per-client request
// admission control.
//
// Overview (layers):
//
//   - domain: contracts and value types (quotas, keys, decisions)
//   - application: the admission use case, no net/http
//   - infra: sharded token-bucket registry, janitor, stats sinks
//   - ratelimit (this package): client-IP resolution + named gates wired as
//     net/http middleware, translating decisions into status/headers
//
// Flow per request:
//
//  1. Resolve the client IP (X-Forwarded-For, X-Real-IP, peer address)
//  2. Ask the application layer for a decision against this gate's registry
//  3. If rejected, respond 429 with Retry-After and never call downstream
//  4. If admitted, call the next handler unchanged
//
// Each named gate (auth, admin, default, read_only, strict) owns its own
// registry, so exhausting one group's budget leaves the others untouched.
package ratelimit
