// Package redislimiter implements named fixed-window rate limits on Redis
// counters: INCR per hit, EXPIRE on the first hit of a window, key TTL as the
// retry-after hint.
package redislimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limit configures one named bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

type Limiter struct {
	rdb    redis.UniversalClient
	limits map[string]Limit
}

func New(rdb redis.UniversalClient, limits map[string]Limit) *Limiter {
	return &Limiter{rdb: rdb, limits: limits}
}

// AllowNamed counts one hit against the bucket's limit for key. When the
// limit is exceeded it returns false plus the remaining window TTL. Redis
// errors are returned so callers can decide to fail open.
func (l *Limiter) AllowNamed(ctx context.Context, bucket, key string) (bool, time.Duration, error) {
	lim, ok := l.limits[bucket]
	if !ok {
		lim, ok = l.limits["default"]
		if !ok {
			return true, 0, nil
		}
	}
	if lim.Limit <= 0 || lim.Window <= 0 {
		return true, 0, nil
	}

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limiter: %w", err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, lim.Window).Err(); err != nil {
			return false, 0, fmt.Errorf("rate limiter: %w", err)
		}
	}
	if count > int64(lim.Limit) {
		ttl, err := l.rdb.TTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = lim.Window
		}
		return false, ttl, nil
	}
	return true, 0, nil
}
