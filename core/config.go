package core

import "time"

// Config is the high-level configuration consumed by NewFromConfig.
type Config struct {
	// Issuer is the value stamped into the iss claim of minted access tokens
	// and required on verified ones (e.g. "https://myapp.com").
	Issuer string
	// AccessTokenSecret signs and verifies HS256 access tokens used by the
	// authenticated account endpoints.
	AccessTokenSecret []byte
	AccessTokenDuration time.Duration

	// Per-purpose token lifetimes. Zero values pick the defaults below.
	PasswordResetTTL time.Duration // default 1h
	EmailVerifyTTL   time.Duration // default 24h
	EmailChangeTTL   time.Duration // default 1h

	// Optional: if set, used by email senders for building absolute links.
	BaseURL string
}

// Options is the validated form of Config held by the Service.
type Options struct {
	Issuer              string
	AccessTokenSecret   []byte
	AccessTokenDuration time.Duration
	PasswordResetTTL    time.Duration
	EmailVerifyTTL      time.Duration
	EmailChangeTTL      time.Duration
	BaseURL             string
}
