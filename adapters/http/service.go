package verifyhttp

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	core "github.com/itellico/verifykit/core"
	memorylimiter "github.com/itellico/verifykit/ratelimit/memory"
	redislimiter "github.com/itellico/verifykit/ratelimit/redis"
	memorystore "github.com/itellico/verifykit/storage/memory"
	pgstore "github.com/itellico/verifykit/storage/postgres"
	redisstore "github.com/itellico/verifykit/storage/redis"
)

// Service wraps core.Service with net/http mounting helpers.
type Service struct {
	svc      *core.Service
	rl       RateLimiter
	clientIP ClientIPFunc
}

// NewService constructs a core.Service and wraps it for net/http mounting.
// Defaults to the in-memory ephemeral store and limiter for dev or
// single-instance use; production hosts wire Redis and Postgres.
func NewService(cfg core.Config) (*Service, error) {
	coreSvc, err := core.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	coreSvc = coreSvc.WithEphemeralStore(memorystore.NewKV(), core.EphemeralMemory)
	return &Service{
		svc:      coreSvc,
		rl:       memorylimiter.New(ToMemoryLimits(DefaultRateLimits())),
		clientIP: DefaultClientIP(),
	}, nil
}

// WithPostgres wires the pgx-backed user store and audit sink. The audit sink
// is wrapped in the async dispatcher so flow latency stays decoupled from
// insert latency.
func (s *Service) WithPostgres(pool *pgxpool.Pool) *Service {
	s.svc = s.svc.
		WithUserStore(pgstore.NewUsers(pool)).
		WithAuditLogger(core.NewAsyncAuditLogger(pgstore.NewAuditLog(pool), 256))
	return s
}

func (s *Service) WithRedis(rd redis.UniversalClient) *Service {
	if rd != nil {
		s.svc = s.svc.WithEphemeralStore(redisstore.NewKV(rd), core.EphemeralRedis)
		s.rl = redislimiter.New(rd, ToRedisLimits(DefaultRateLimits()))
	}
	return s
}

func (s *Service) WithUserStore(us core.UserStore) *Service {
	s.svc = s.svc.WithUserStore(us)
	return s
}

func (s *Service) WithAuditLogger(l core.AuditLogger) *Service {
	s.svc = s.svc.WithAuditLogger(l)
	return s
}

func (s *Service) WithEmailSender(es core.EmailSender) *Service {
	s.svc = s.svc.WithEmailSender(es)
	return s
}

func (s *Service) WithRateLimiter(rl RateLimiter) *Service { s.rl = rl; return s }
func (s *Service) DisableRateLimiter() *Service            { s.rl = nil; return s }

func (s *Service) WithClientIPFunc(fn ClientIPFunc) *Service {
	if fn == nil {
		s.clientIP = DefaultClientIP()
		return s
	}
	s.clientIP = fn
	return s
}

func (s *Service) WithEphemeralStore(store core.EphemeralStore, mode core.EphemeralMode) *Service {
	s.svc = s.svc.WithEphemeralStore(store, mode)
	return s
}

func (s *Service) Core() *core.Service { return s.svc }
