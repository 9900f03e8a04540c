package core

import "context"

// EmailSender dispatches verification tokens to subjects. Delivery is an
// external collaborator's concern; the flows hand over the raw token exactly
// once and never persist it.
type EmailSender interface {
	SendPasswordReset(ctx context.Context, to, username, token string) error
	SendEmailVerification(ctx context.Context, to, username, token string) error
	// SendEmailChangeConfirm delivers one half of a two-phase email change.
	// side is ChangeSideOld for the current address, ChangeSideNew for the
	// candidate address.
	SendEmailChangeConfirm(ctx context.Context, to, username string, side ChangeSide, token string) error
}

func (s *Service) WithEmailSender(sender EmailSender) *Service { s.email = sender; return s }

func (s *Service) HasEmailSender() bool { return s.email != nil }
