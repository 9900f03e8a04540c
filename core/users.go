package core

import "context"

// User is the subset of the account record this kit reads and mutates.
type User struct {
	ID            string
	Email         string
	Username      string
	EmailVerified bool
	Active        bool
}

// UserStore is the persistence contract for account lookups and the three
// mutations the verification flows perform. Implementations must make each
// mutation a single atomic write; UpdateEmailVerified in particular swaps the
// email and sets the verified flag in one statement so no reader observes a
// half-applied change.
//
// Lookups return (nil, nil) when no row matches. Email comparison is exact
// after trimming whitespace.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	SetEmailVerified(ctx context.Context, id string, verified bool) error
	// UpdateEmailVerified swaps the account email and marks it verified.
	UpdateEmailVerified(ctx context.Context, id, email string) error
	GetPasswordHash(ctx context.Context, id string) (string, error)
	SetPasswordHash(ctx context.Context, id, phc string) error
}
