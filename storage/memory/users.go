package memorystore

import (
	"context"
	"strings"
	"sync"

	core "github.com/itellico/verifykit/core"
)

type userRow struct {
	user core.User
	phc  string
}

// Users is an in-memory core.UserStore for tests and single-process dev use.
type Users struct {
	mu   sync.Mutex
	byID map[string]*userRow
}

func NewUsers() *Users {
	return &Users{byID: make(map[string]*userRow)}
}

// Add seeds a user with its password hash, overwriting any prior row.
func (s *Users) Add(u core.User, passwordHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[u.ID] = &userRow{user: u, phc: passwordHash}
}

func (s *Users) GetByEmail(ctx context.Context, email string) (*core.User, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.TrimSpace(email)
	for _, row := range s.byID {
		if row.user.Email == email {
			u := row.user
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Users) GetByID(ctx context.Context, id string) (*core.User, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	u := row.user
	return &u, nil
}

func (s *Users) SetEmailVerified(ctx context.Context, id string, verified bool) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[id]
	if !ok {
		return core.ErrUserNotFound
	}
	row.user.EmailVerified = verified
	return nil
}

func (s *Users) UpdateEmailVerified(ctx context.Context, id, email string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[id]
	if !ok {
		return core.ErrUserNotFound
	}
	email = strings.TrimSpace(email)
	for otherID, other := range s.byID {
		if otherID != id && other.user.Email == email {
			return core.ErrEmailExists
		}
	}
	row.user.Email = email
	row.user.EmailVerified = true
	return nil
}

func (s *Users) GetPasswordHash(ctx context.Context, id string) (string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[id]
	if !ok {
		return "", core.ErrUserNotFound
	}
	return row.phc, nil
}

func (s *Users) SetPasswordHash(ctx context.Context, id, phc string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[id]
	if !ok {
		return core.ErrUserNotFound
	}
	row.phc = phc
	return nil
}
