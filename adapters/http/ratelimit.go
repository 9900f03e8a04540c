package verifyhttp

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// RateLimiter is the minimal interface used by the adapter. retryAfter is a
// hint for the 429 Retry-After header when ok is false.
type RateLimiter interface {
	AllowNamed(ctx context.Context, bucket, key string) (ok bool, retryAfter time.Duration, err error)
}

// allow applies a per-IP limit using the provided bucket name.
// It fails open on limiter error.
func (s *Service) allow(r *http.Request, bucket string) (bool, time.Duration) {
	return s.allowKey(r, bucket, "ip:"+s.requestIP(r))
}

// allowSubject applies a per-subject limit for authenticated endpoints.
func (s *Service) allowSubject(r *http.Request, bucket, subjectID string) (bool, time.Duration) {
	return s.allowKey(r, bucket, "subject:"+subjectID)
}

func (s *Service) allowKey(r *http.Request, bucket, suffix string) (bool, time.Duration) {
	if s == nil || s.rl == nil {
		return true, 0
	}
	if strings.HasSuffix(suffix, ":") {
		return true, 0
	}
	key := "verify:rl:" + bucket + ":" + suffix
	ok, retryAfter, err := s.rl.AllowNamed(r.Context(), bucket, key)
	if err != nil {
		return true, 0
	}
	return ok, retryAfter
}

func (s *Service) requestIP(r *http.Request) string {
	ipFn := s.clientIP
	if ipFn == nil {
		ipFn = DefaultClientIP()
	}
	return strings.TrimSpace(ipFn(r))
}
