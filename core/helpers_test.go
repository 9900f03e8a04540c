package core

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pwhash "github.com/itellico/verifykit/password"
)

// testKV is an in-package EphemeralStore so core tests avoid importing the
// storage packages (which import core).
type testKV struct {
	mu    sync.Mutex
	items map[string]testKVItem
}

type testKVItem struct {
	value   []byte
	expires time.Time
}

func newTestKV() *testKV { return &testKV{items: make(map[string]testKVItem)} }

func (k *testKV) getLocked(key string) (testKVItem, bool) {
	it, ok := k.items[key]
	if !ok {
		return testKVItem{}, false
	}
	if !it.expires.IsZero() && time.Now().After(it.expires) {
		delete(k.items, key)
		return testKVItem{}, false
	}
	return it, true
}

func (k *testKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	it, ok := k.getLocked(key)
	if !ok {
		return nil, false, nil
	}
	return it.value, true, nil
}

func (k *testKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	k.items[key] = testKVItem{value: append([]byte(nil), value...), expires: exp}
	return nil
}

func (k *testKV) Del(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.items, key)
	return nil
}

func (k *testKV) GetDel(_ context.Context, key string) ([]byte, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	it, ok := k.getLocked(key)
	if !ok {
		return nil, false, nil
	}
	delete(k.items, key)
	return it.value, true, nil
}

func (k *testKV) SetIfMatch(_ context.Context, key string, expect, value []byte, ttl time.Duration) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	it, ok := k.getLocked(key)
	if !ok || !bytes.Equal(it.value, expect) {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	k.items[key] = testKVItem{value: append([]byte(nil), value...), expires: exp}
	return true, nil
}

func (k *testKV) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.items)
}

type testUserRow struct {
	user User
	phc  string
}

type testUsers struct {
	mu   sync.Mutex
	byID map[string]*testUserRow
}

func newTestUsers() *testUsers { return &testUsers{byID: make(map[string]*testUserRow)} }

func (s *testUsers) add(u User, password string) {
	phc, err := pwhash.HashArgon2id(password)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[u.ID] = &testUserRow{user: u, phc: phc}
}

func (s *testUsers) setActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.byID[id]; ok {
		row.user.Active = active
	}
}

func (s *testUsers) get(id string) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[id].user
}

func (s *testUsers) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.byID {
		if row.user.Email == email {
			u := row.user
			return &u, nil
		}
	}
	return nil, nil
}

func (s *testUsers) GetByID(_ context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	u := row.user
	return &u, nil
}

func (s *testUsers) SetEmailVerified(_ context.Context, id string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	row.user.EmailVerified = verified
	return nil
}

func (s *testUsers) UpdateEmailVerified(_ context.Context, id, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	for otherID, other := range s.byID {
		if otherID != id && other.user.Email == email {
			return ErrEmailExists
		}
	}
	row.user.Email = email
	row.user.EmailVerified = true
	return nil
}

func (s *testUsers) GetPasswordHash(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[id]
	if !ok {
		return "", ErrUserNotFound
	}
	return row.phc, nil
}

func (s *testUsers) SetPasswordHash(_ context.Context, id, phc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	row.phc = phc
	return nil
}

// captureSender records every delivery so tests can pull raw tokens.
type captureSender struct {
	mu      sync.Mutex
	resets  []sentMail
	verifys []sentMail
	changes []sentChangeMail
}

type sentMail struct {
	to    string
	token string
}

type sentChangeMail struct {
	to    string
	side  ChangeSide
	token string
}

func (c *captureSender) SendPasswordReset(_ context.Context, to, _, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets = append(c.resets, sentMail{to: to, token: token})
	return nil
}

func (c *captureSender) SendEmailVerification(_ context.Context, to, _, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verifys = append(c.verifys, sentMail{to: to, token: token})
	return nil
}

func (c *captureSender) SendEmailChangeConfirm(_ context.Context, to, _ string, side ChangeSide, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, sentChangeMail{to: to, side: side, token: token})
	return nil
}

func (c *captureSender) lastReset(t *testing.T) sentMail {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.resets)
	return c.resets[len(c.resets)-1]
}

func (c *captureSender) lastVerify(t *testing.T) sentMail {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.verifys)
	return c.verifys[len(c.verifys)-1]
}

func (c *captureSender) changeTokens(t *testing.T) (oldTok, newTok string) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.changes {
		switch m.side {
		case ChangeSideOld:
			oldTok = m.token
		case ChangeSideNew:
			newTok = m.token
		}
	}
	require.NotEmpty(t, oldTok)
	require.NotEmpty(t, newTok)
	return oldTok, newTok
}

type testEnv struct {
	svc    *Service
	kv     *testKV
	users  *testUsers
	sender *captureSender
	audit  *ChannelAuditLogger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	svc, err := NewFromConfig(Config{
		Issuer:            "https://test.local",
		AccessTokenSecret: []byte("test-secret-0123456789"),
	})
	require.NoError(t, err)

	env := &testEnv{
		kv:     newTestKV(),
		users:  newTestUsers(),
		sender: &captureSender{},
		audit:  NewChannelAuditLogger(64),
	}
	env.svc = svc.
		WithEphemeralStore(env.kv, EphemeralMemory).
		WithUserStore(env.users).
		WithEmailSender(env.sender).
		WithAuditLogger(env.audit)
	return env
}

// drainAudit collects every buffered audit event.
func (e *testEnv) drainAudit() []AuditEvent {
	var out []AuditEvent
	for {
		select {
		case ev := <-e.audit.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}
