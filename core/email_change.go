package core

import (
	"context"
	"encoding/json"
	"errors"
	stdlog "log"
	"strings"
	"time"

	"github.com/google/uuid"
	pwhash "github.com/itellico/verifykit/password"
)

// ChangeSide names one half of a two-phase email change.
type ChangeSide string

const (
	ChangeSideOld ChangeSide = "old"
	ChangeSideNew ChangeSide = "new"
)

const keyEmailChangeState = keyVerifyPrefix + "email_change:state:"

// emailChangeState is the changeId record correlating the two tokens. The
// email mutation commits only on the compare-and-swap that makes both
// Confirmed flags true.
type emailChangeState struct {
	UserID       string `json:"user_id"`
	OldEmail     string `json:"old_email"`
	NewEmail     string `json:"new_email"`
	ConfirmedOld bool   `json:"confirmed_old"`
	ConfirmedNew bool   `json:"confirmed_new"`
	ExpiresAt    int64  `json:"expires_at"`
}

type emailChangeAux struct {
	ChangeID string `json:"change_id"`
	OldEmail string `json:"old_email"`
	NewEmail string `json:"new_email"`
}

// EmailChangeResult reports the outcome of one half-confirmation.
type EmailChangeResult struct {
	// Committed is true once both halves are confirmed and the account email
	// has been swapped.
	Committed bool
	// NewEmail is the address of record after commit (set only when Committed).
	NewEmail string
	// PendingSide names the half still awaiting confirmation (set only when
	// not Committed).
	PendingSide ChangeSide
}

// RequestEmailChange starts a two-phase change of userID's address to
// newEmail. The caller proves possession of the current password; the change
// itself commits only after both the old-address and new-address tokens are
// verified.
func (s *Service) RequestEmailChange(ctx context.Context, userID, newEmail, currentPassword string) error {
	if s.users == nil {
		return ErrUserNotFound
	}
	newEmail = normalizeEmail(newEmail)
	if newEmail == "" {
		return ErrSameEmail
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil || !u.Active {
		return ErrUserNotFound
	}

	phc, err := s.users.GetPasswordHash(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := pwhash.Verify(currentPassword, phc)
	if err != nil || !ok {
		s.recordAudit(ctx, AuditEmailChangeFailed, AuditWarning, userID, map[string]string{"reason": "invalid_password"})
		return ErrInvalidPassword
	}

	if strings.EqualFold(u.Email, newEmail) {
		return ErrSameEmail
	}
	if existing, _ := s.users.GetByEmail(ctx, newEmail); existing != nil && existing.ID != userID {
		return ErrEmailExists
	}

	ttl := s.opts.EmailChangeTTL
	changeID := uuid.NewString()
	state := emailChangeState{
		UserID:    userID,
		OldEmail:  u.Email,
		NewEmail:  newEmail,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}
	if err := s.ephemSetJSON(ctx, keyEmailChangeState+changeID, state, ttl); err != nil {
		return err
	}

	aux := emailChangeAux{ChangeID: changeID, OldEmail: u.Email, NewEmail: newEmail}
	rawOld, err := s.issueToken(ctx, PurposeEmailChangeOld, userID, aux, ttl)
	if err != nil {
		return err
	}
	rawNew, err := s.issueToken(ctx, PurposeEmailChangeNew, userID, aux, ttl)
	if err != nil {
		return err
	}

	s.recordAudit(ctx, AuditEmailChangeRequested, AuditWarning, userID, map[string]string{
		"old_email": u.Email,
		"new_email": newEmail,
		"change_id": changeID,
	})

	if s.email != nil {
		_ = s.email.SendEmailChangeConfirm(ctx, u.Email, u.Username, ChangeSideOld, rawOld)
		_ = s.email.SendEmailChangeConfirm(ctx, newEmail, u.Username, ChangeSideNew, rawNew)
	} else {
		stdlog.Printf("[verifykit/dev-email] email change old=%s token=%s", u.Email, rawOld)
		stdlog.Printf("[verifykit/dev-email] email change new=%s token=%s", newEmail, rawNew)
	}
	return nil
}

// VerifyEmailChange consumes one half of a pending change. The token is
// single-use regardless of outcome. The half is recorded on the changeId
// state via compare-and-swap; the swap that observes both halves confirmed
// commits the email mutation in one UPDATE, so two concurrent confirmations
// cannot double-commit and a single confirmation never commits.
//
// userID, when non-empty, must match the token's subject; a token minted for
// another account is reported as ErrInvalidToken.
func (s *Service) VerifyEmailChange(ctx context.Context, userID, token string, side ChangeSide) (*EmailChangeResult, error) {
	var purpose Purpose
	switch side {
	case ChangeSideOld:
		purpose = PurposeEmailChangeOld
	case ChangeSideNew:
		purpose = PurposeEmailChangeNew
	default:
		return nil, ErrInvalidToken
	}
	if s.users == nil {
		return nil, ErrInvalidToken
	}

	rec, err := s.consumeToken(ctx, token, purpose)
	if err != nil {
		return nil, err
	}
	if userID != "" && rec.SubjectID != userID {
		return nil, ErrInvalidToken
	}
	var aux emailChangeAux
	if err := json.Unmarshal(rec.Aux, &aux); err != nil || aux.ChangeID == "" {
		return nil, ErrInvalidToken
	}

	stateKey := keyEmailChangeState + aux.ChangeID
	const maxRetries = 4
	for i := 0; i < maxRetries; i++ {
		if !s.useEphemeralStore() {
			return nil, ErrStoreUnavailable
		}
		cur, ok, err := s.ephemeralStore.Get(ctx, stateKey)
		if err != nil {
			return nil, ErrStoreUnavailable
		}
		if !ok {
			return nil, ErrInvalidToken
		}
		var st emailChangeState
		if err := json.Unmarshal(cur, &st); err != nil {
			return nil, ErrInvalidToken
		}
		if time.Now().Unix() > st.ExpiresAt {
			_ = s.ephemDel(ctx, stateKey)
			return nil, ErrInvalidToken
		}
		if st.UserID != rec.SubjectID {
			return nil, ErrInvalidToken
		}

		next := st
		if side == ChangeSideOld {
			next.ConfirmedOld = true
		} else {
			next.ConfirmedNew = true
		}
		nextB, err := json.Marshal(next)
		if err != nil {
			return nil, err
		}
		ttl := time.Until(time.Unix(st.ExpiresAt, 0))
		if ttl <= 0 {
			_ = s.ephemDel(ctx, stateKey)
			return nil, ErrInvalidToken
		}
		swapped, err := s.ephemeralStore.SetIfMatch(ctx, stateKey, cur, nextB, ttl)
		if err != nil {
			return nil, ErrStoreUnavailable
		}
		if !swapped {
			continue
		}

		if next.ConfirmedOld && next.ConfirmedNew {
			if err := s.users.UpdateEmailVerified(ctx, next.UserID, next.NewEmail); err != nil {
				if errors.Is(err, ErrEmailExists) {
					_ = s.ephemDel(ctx, stateKey)
					s.recordAudit(ctx, AuditEmailChangeFailed, AuditWarning, next.UserID, map[string]string{
						"reason":    "email_taken_at_commit",
						"new_email": next.NewEmail,
					})
					return nil, ErrEmailExists
				}
				return nil, err
			}
			_ = s.ephemDel(ctx, stateKey)
			s.recordAudit(ctx, AuditEmailChangeCompleted, AuditWarning, next.UserID, map[string]string{
				"old_email": next.OldEmail,
				"new_email": next.NewEmail,
				"change_id": aux.ChangeID,
			})
			return &EmailChangeResult{Committed: true, NewEmail: next.NewEmail}, nil
		}

		pending := ChangeSideNew
		if side == ChangeSideNew {
			pending = ChangeSideOld
		}
		return &EmailChangeResult{PendingSide: pending}, nil
	}
	return nil, ErrStoreUnavailable
}
