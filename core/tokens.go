package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Purpose identifies the operation a verification token authorizes. Tokens
// are only ever valid against their own purpose: the store key is namespaced
// by purpose, so presenting a token to another flow finds nothing.
type Purpose string

const (
	PurposePasswordReset     Purpose = "password_reset"
	PurposeEmailVerification Purpose = "email_verification"
	PurposeEmailChangeOld    Purpose = "email_change_old"
	PurposeEmailChangeNew    Purpose = "email_change_new"
)

const keyVerifyPrefix = "verify:"

func tokenKey(p Purpose, tokenHash string) string {
	return keyVerifyPrefix + string(p) + ":token:" + tokenHash
}

func subjectKey(p Purpose, subjectID string) string {
	return keyVerifyPrefix + string(p) + ":subject:" + subjectID
}

// tokenRecord is the store-resident payload behind a token hash.
type tokenRecord struct {
	SubjectID string          `json:"subject_id"`
	Aux       json.RawMessage `json:"aux,omitempty"`
	CreatedAt int64           `json:"created_at"`
	ExpiresAt int64           `json:"expires_at"`
}

// newRawToken returns a 32-byte random token, base64url encoded. The raw
// value goes to the subject exactly once; only its sha256 is stored.
func newRawToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// issueToken mints a raw token for subjectID under the given purpose,
// persists its record with the store-native TTL, and supersedes any prior
// outstanding token for the same purpose+subject.
func (s *Service) issueToken(ctx context.Context, purpose Purpose, subjectID string, aux any, ttl time.Duration) (string, error) {
	raw, err := newRawToken()
	if err != nil {
		return "", err
	}
	hash := sha256Hex(raw)

	idxKey := subjectKey(purpose, subjectID)
	if old, ok, _ := s.ephemGetString(ctx, idxKey); ok && old != "" && old != hash {
		_ = s.ephemDel(ctx, tokenKey(purpose, old))
	}

	now := time.Now()
	rec := tokenRecord{
		SubjectID: subjectID,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
	if aux != nil {
		b, err := json.Marshal(aux)
		if err != nil {
			return "", err
		}
		rec.Aux = b
	}
	if err := s.ephemSetJSON(ctx, tokenKey(purpose, hash), rec, ttl); err != nil {
		return "", err
	}
	_ = s.ephemSetString(ctx, idxKey, hash, ttl)
	return raw, nil
}

// consumeToken verifies and invalidates a presented token in one step. The
// delete happens via the store's atomic get-and-delete, so two concurrent
// presentations of the same token yield exactly one success. Expiry is
// re-checked against the record even when the store has not evicted the key.
func (s *Service) consumeToken(ctx context.Context, raw string, purpose Purpose) (*tokenRecord, error) {
	hash := sha256Hex(raw)
	var rec tokenRecord
	ok, err := s.ephemGetDelJSON(ctx, tokenKey(purpose, hash), &rec)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: malformed record", ErrInvalidToken)
	}
	if !ok {
		return nil, ErrInvalidToken
	}
	if time.Now().Unix() > rec.ExpiresAt {
		// Record outlived its logical expiry; it is already deleted above.
		return nil, ErrInvalidToken
	}
	if rec.SubjectID != "" {
		idxKey := subjectKey(purpose, rec.SubjectID)
		if v, ok, _ := s.ephemGetString(ctx, idxKey); ok && v == hash {
			_ = s.ephemDel(ctx, idxKey)
		}
	}
	return &rec, nil
}

// discardToken does equivalent store and hashing work to issueToken without
// persisting anything. Enumeration-sensitive request paths run it on their
// negative branch so both branches cost about the same.
func (s *Service) discardToken(ctx context.Context, purpose Purpose) {
	raw, err := newRawToken()
	if err != nil {
		return
	}
	hash := sha256Hex(raw)
	if s.useEphemeralStore() {
		_, _, _ = s.ephemeralStore.Get(ctx, tokenKey(purpose, hash))
	}
}
