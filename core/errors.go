package core

import "errors"

var (
	// ErrInvalidToken covers missing, expired, already-consumed, and
	// wrong-purpose tokens. Deliberately undifferentiated so callers cannot
	// distinguish a forged token from an expired one.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrInvalidPassword is returned when the caller's current password does not match.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrWeakPassword is returned when a new password fails the password policy.
	ErrWeakPassword = errors.New("password policy violation")
	// ErrSameEmail is returned when a requested email change targets the current address.
	ErrSameEmail = errors.New("new email is the same as current email")
	// ErrEmailExists is returned when a requested email already belongs to another account.
	ErrEmailExists = errors.New("email already in use")
	// ErrUserNotFound is returned for operations on a missing subject. Never
	// surfaced on enumeration-sensitive paths.
	ErrUserNotFound = errors.New("user not found")
	// ErrStoreUnavailable indicates the ephemeral store or user store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)
