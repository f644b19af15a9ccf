package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okakura/multi-blog/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore records admission decisions into Redis hashes, one set of
// counters per gate.
type RedisStatsStore struct {
	rdb *redis.Client

	prefix string
	// ttl applies only to the time-bucketed and per-key series. Totals are
	// cumulative and never expire.
	ttl time.Duration

	bucket string // "minute" (default) or "none"

	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "ratelimit:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := "rejected"
	if ev.Allowed {
		field = "allowed"
	}

	scope := s.prefix
	if ev.Config != "" {
		scope = s.prefix + ":" + ev.Config
	}

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, scope+":total", field, 1)

	if s.bucket == "minute" {
		bucketKey := fmt.Sprintf("%s:minute:%s", scope, at.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}

	if ev.Method != "" || ev.Path != "" {
		routeField := strings.TrimSpace(strings.TrimSpace(ev.Method) + " " + strings.TrimSpace(ev.Path))
		if routeField != "" {
			pipe.HIncrBy(ctx, scope+":route", routeField+":"+field, 1)
		}
	}

	if s.trackKeys {
		k := strings.TrimSpace(string(ev.Key))
		if k != "" {
			keyKey := scope + ":key:" + k
			pipe.HIncrBy(ctx, keyKey, field, 1)
			if s.ttl > 0 {
				pipe.Expire(ctx, keyKey, s.ttl)
			}
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}
