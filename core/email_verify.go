package core

import (
	"context"
	"errors"
	stdlog "log"
)

// ResendVerification issues a fresh email_verification token. Same
// enumeration-safe contract as ForgotPassword: unknown, inactive, and
// already-verified accounts all take the silent branch.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	if s.users == nil {
		return nil
	}
	email = normalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || u == nil || !u.Active || u.EmailVerified {
		s.discardToken(ctx, PurposeEmailVerification)
		return nil
	}

	raw, err := s.issueToken(ctx, PurposeEmailVerification, u.ID, nil, s.opts.EmailVerifyTTL)
	if err != nil {
		stdlog.Printf("[verifykit/verify] token issue failed: %v", err)
		return nil
	}

	s.recordAudit(ctx, AuditEmailVerifyRequested, AuditInfo, u.ID, map[string]string{"email": u.Email})

	if s.email != nil {
		_ = s.email.SendEmailVerification(ctx, u.Email, u.Username, raw)
	} else {
		stdlog.Printf("[verifykit/dev-email] email verify to=%s token=%s", u.Email, raw)
	}
	return nil
}

// VerifyEmail consumes an email_verification token and flips the account's
// verified flag. Verifying an already-verified account succeeds and reports
// alreadyVerified=true rather than erroring.
func (s *Service) VerifyEmail(ctx context.Context, token string) (alreadyVerified bool, err error) {
	if s.users == nil {
		return false, ErrInvalidToken
	}
	rec, err := s.consumeToken(ctx, token, PurposeEmailVerification)
	if err != nil {
		return false, err
	}

	u, err := s.users.GetByID(ctx, rec.SubjectID)
	if err != nil || u == nil || !u.Active {
		return false, ErrInvalidToken
	}
	if u.EmailVerified {
		return true, nil
	}
	if err := s.users.SetEmailVerified(ctx, u.ID, true); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, ErrInvalidToken
		}
		return false, err
	}

	s.recordAudit(ctx, AuditEmailVerified, AuditInfo, u.ID, map[string]string{"email": u.Email})
	return false, nil
}
