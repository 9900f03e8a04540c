package core

import (
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Service is the core verification service used by HTTP adapters. It
// orchestrates the token lifecycle (issue, verify-and-consume, supersede)
// for password reset, email verification, and two-phase email change.
type Service struct {
	opts           Options
	users          UserStore
	email          EmailSender
	audit          AuditLogger
	ephemeralStore EphemeralStore
	ephemeralMode  EphemeralMode
}

func NewService(opts Options) *Service {
	return &Service{opts: opts, ephemeralMode: EphemeralMemory}
}

// NewFromConfig validates cfg, applies defaults, and builds a Service.
func NewFromConfig(cfg Config) (*Service, error) {
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("verifykit: Issuer is required (e.g. \"https://myapp.com\")")
	}
	if len(cfg.AccessTokenSecret) == 0 {
		return nil, fmt.Errorf("verifykit: AccessTokenSecret is required")
	}
	accessTTL := cfg.AccessTokenDuration
	if accessTTL == 0 {
		accessTTL = time.Hour
	}
	resetTTL := cfg.PasswordResetTTL
	if resetTTL == 0 {
		resetTTL = time.Hour
	}
	verifyTTL := cfg.EmailVerifyTTL
	if verifyTTL == 0 {
		verifyTTL = 24 * time.Hour
	}
	changeTTL := cfg.EmailChangeTTL
	if changeTTL == 0 {
		changeTTL = time.Hour
	}
	opts := Options{
		Issuer:              cfg.Issuer,
		AccessTokenSecret:   cfg.AccessTokenSecret,
		AccessTokenDuration: accessTTL,
		PasswordResetTTL:    resetTTL,
		EmailVerifyTTL:      verifyTTL,
		EmailChangeTTL:      changeTTL,
		BaseURL:             cfg.BaseURL,
	}
	return NewService(opts), nil
}

func (s *Service) Options() Options { return s.opts }

func (s *Service) WithUserStore(us UserStore) *Service { s.users = us; return s }

func (s *Service) WithAuditLogger(l AuditLogger) *Service { s.audit = l; return s }

// IssueAccessToken mints an HS256 access token for the given user, suitable
// for the authenticated account endpoints.
func (s *Service) IssueAccessToken(userID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.opts.AccessTokenDuration)
	claims := jwt.MapClaims{
		"iss": s.opts.Issuer,
		"sub": userID,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.AccessTokenSecret)
	return tok, exp, err
}

// Keyfunc returns the key lookup used to verify bearer tokens. Only HMAC
// methods are accepted.
func (s *Service) Keyfunc() jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return s.opts.AccessTokenSecret, nil
	}
}
