// Package infra contains the concrete implementations for the contracts
// defined in package domain.
//
//   - Registry: sharded per-key token buckets using golang.org/x/time/rate,
//     with a background janitor bounding memory growth
//   - MemoryStatsStore / RedisStatsStore: admission statistics sinks
package infra
