package core

import (
	"context"
	"errors"
	stdlog "log"

	pwhash "github.com/itellico/verifykit/password"
)

// ForgotPassword starts the reset flow for email. It always returns nil for
// unknown, inactive, or missing accounts so callers cannot enumerate
// addresses; the negative branch performs equivalent dummy token work to keep
// the two paths close in latency.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if s.users == nil {
		return nil
	}
	email = normalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || u == nil || !u.Active {
		s.discardToken(ctx, PurposePasswordReset)
		return nil
	}

	raw, err := s.issueToken(ctx, PurposePasswordReset, u.ID, nil, s.opts.PasswordResetTTL)
	if err != nil {
		// Issue failures stay silent toward the caller as well.
		stdlog.Printf("[verifykit/reset] token issue failed: %v", err)
		return nil
	}

	s.recordAudit(ctx, AuditPasswordResetRequested, AuditInfo, u.ID, map[string]string{"email": u.Email})

	if s.email != nil {
		_ = s.email.SendPasswordReset(ctx, u.Email, u.Username, raw)
	} else {
		stdlog.Printf("[verifykit/dev-email] password reset email=%s token=%s", u.Email, raw)
	}
	return nil
}

// ResetPassword consumes a password_reset token and installs the new
// credential. Policy validation happens before any store I/O so a weak
// password never burns a valid token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := pwhash.Validate(newPassword); err != nil {
		return ErrWeakPassword
	}
	if s.users == nil {
		return ErrInvalidToken
	}

	rec, err := s.consumeToken(ctx, token, PurposePasswordReset)
	if err != nil {
		if !errors.Is(err, ErrStoreUnavailable) {
			s.recordAudit(ctx, AuditPasswordResetFailed, AuditWarning, "", map[string]string{"reason": "invalid_token"})
		}
		return err
	}

	u, err := s.users.GetByID(ctx, rec.SubjectID)
	if err != nil || u == nil || !u.Active {
		s.recordAudit(ctx, AuditPasswordResetFailed, AuditWarning, rec.SubjectID, map[string]string{"reason": "subject_gone"})
		return ErrInvalidToken
	}

	phc, err := pwhash.HashArgon2id(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.SetPasswordHash(ctx, u.ID, phc); err != nil {
		return err
	}

	s.recordAudit(ctx, AuditPasswordResetCompleted, AuditWarning, u.ID, map[string]string{"email": u.Email})
	return nil
}
