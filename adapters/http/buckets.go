package verifyhttp

import (
	"time"

	memorylimiter "github.com/itellico/verifykit/ratelimit/memory"
	redislimiter "github.com/itellico/verifykit/ratelimit/redis"
)

// Bucket names used by verifykit endpoints.
const (
	RLForgotPassword     = "verify_forgot_password"
	RLResetPassword      = "verify_reset_password"
	RLVerifyEmail        = "verify_verify_email"
	RLResendVerification = "verify_resend_verification"
	RLEmailChangeRequest = "verify_email_change_request"
	RLEmailChangeConfirm = "verify_email_change_confirm"
)

// Limit configures a named rate limit bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// DefaultRateLimits returns the built-in per-endpoint rate limits.
//
// Request-phase buckets are enforced per client IP; the email-change buckets
// are enforced per authenticated subject. Hosts can override by supplying
// their own limiter via WithRateLimiter(...).
func DefaultRateLimits() map[string]Limit {
	return map[string]Limit{
		"default": {Limit: 120, Window: time.Minute},

		RLForgotPassword:     {Limit: 6, Window: 10 * time.Minute},
		RLResetPassword:      {Limit: 10, Window: 10 * time.Minute},
		RLVerifyEmail:        {Limit: 10, Window: 10 * time.Minute},
		RLResendVerification: {Limit: 6, Window: 10 * time.Minute},
		RLEmailChangeRequest: {Limit: 6, Window: time.Hour},
		RLEmailChangeConfirm: {Limit: 10, Window: 10 * time.Minute},
	}
}

func ToMemoryLimits(in map[string]Limit) map[string]memorylimiter.Limit {
	out := make(map[string]memorylimiter.Limit, len(in))
	for k, v := range in {
		out[k] = memorylimiter.Limit{Limit: v.Limit, Window: v.Window}
	}
	return out
}

func ToRedisLimits(in map[string]Limit) map[string]redislimiter.Limit {
	out := make(map[string]redislimiter.Limit, len(in))
	for k, v := range in {
		out[k] = redislimiter.Limit{Limit: v.Limit, Window: v.Window}
	}
	return out
}
