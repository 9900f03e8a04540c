// Package memorylimiter implements named fixed-window rate limits in process
// memory. Only suitable for single-instance deployments; multi-instance
// hosts should use the redis limiter.
package memorylimiter

import (
	"context"
	"sync"
	"time"
)

// Limit configures one named bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

type window struct {
	count int
	reset time.Time
}

type Limiter struct {
	mu     sync.Mutex
	limits map[string]Limit
	hits   map[string]window
}

func New(limits map[string]Limit) *Limiter {
	return &Limiter{
		limits: limits,
		hits:   make(map[string]window),
	}
}

// AllowNamed counts one hit against the bucket's limit for key. When the
// limit is exceeded it returns false plus the time until the window resets.
// Buckets without a configured limit fall back to "default"; with neither
// configured the call is allowed.
func (l *Limiter) AllowNamed(ctx context.Context, bucket, key string) (bool, time.Duration, error) {
	_ = ctx
	l.mu.Lock()
	defer l.mu.Unlock()

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

	now := time.Now()
	w, ok := l.hits[key]
	if !ok || now.After(w.reset) {
		l.hits[key] = window{count: 1, reset: now.Add(lim.Window)}
		return true, 0, nil
	}
	w.count++
	l.hits[key] = w
	if w.count > lim.Limit {
		return false, time.Until(w.reset), nil
	}
	return true, 0, nil
}
