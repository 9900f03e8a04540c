package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type EphemeralMode string

const (
	EphemeralMemory EphemeralMode = "memory"
	EphemeralRedis  EphemeralMode = "redis"
)

// EphemeralStore is a minimal key-value interface used for short-lived
// verification state. Implementations must honor TTL on Set and treat missing
// keys as (found=false, err=nil).
//
// GetDel must be atomic with respect to concurrent callers: for a present key
// exactly one caller observes found=true. SetIfMatch must replace the value
// only if the current value equals expect, atomically, preserving ttl.
type EphemeralStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	GetDel(ctx context.Context, key string) ([]byte, bool, error)
	SetIfMatch(ctx context.Context, key string, expect, value []byte, ttl time.Duration) (bool, error)
}

func (s *Service) WithEphemeralStore(store EphemeralStore, mode EphemeralMode) *Service {
	if mode == "" {
		mode = EphemeralMemory
	}
	s.ephemeralStore = store
	s.ephemeralMode = mode
	return s
}

func (s *Service) EphemeralMode() EphemeralMode {
	if s == nil || s.ephemeralMode == "" {
		return EphemeralMemory
	}
	return s.ephemeralMode
}

func (s *Service) useEphemeralStore() bool {
	return s != nil && s.ephemeralStore != nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

func (s *Service) ephemSetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !s.useEphemeralStore() {
		return fmt.Errorf("%w: ephemeral store not configured", ErrStoreUnavailable)
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.ephemeralStore.Set(ctx, key, b, ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Service) ephemGetJSON(ctx context.Context, key string, out any) (bool, error) {
	if !s.useEphemeralStore() {
		return false, fmt.Errorf("%w: ephemeral store not configured", ErrStoreUnavailable)
	}
	b, ok, err := s.ephemeralStore.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (s *Service) ephemGetDelJSON(ctx context.Context, key string, out any) (bool, error) {
	if !s.useEphemeralStore() {
		return false, fmt.Errorf("%w: ephemeral store not configured", ErrStoreUnavailable)
	}
	b, ok, err := s.ephemeralStore.GetDel(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (s *Service) ephemSetString(ctx context.Context, key, value string, ttl time.Duration) error {
	if !s.useEphemeralStore() {
		return fmt.Errorf("%w: ephemeral store not configured", ErrStoreUnavailable)
	}
	return s.ephemeralStore.Set(ctx, key, []byte(value), ttl)
}

func (s *Service) ephemGetString(ctx context.Context, key string) (string, bool, error) {
	if !s.useEphemeralStore() {
		return "", false, fmt.Errorf("%w: ephemeral store not configured", ErrStoreUnavailable)
	}
	b, ok, err := s.ephemeralStore.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(b), true, nil
}

func (s *Service) ephemDel(ctx context.Context, key string) error {
	if !s.useEphemeralStore() {
		return fmt.Errorf("%w: ephemeral store not configured", ErrStoreUnavailable)
	}
	return s.ephemeralStore.Del(ctx, key)
}
