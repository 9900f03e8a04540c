package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	core "github.com/itellico/verifykit/core"
)

// Users is the Postgres-backed core.UserStore.
type Users struct {
	pool *pgxpool.Pool
}

func NewUsers(pool *pgxpool.Pool) *Users {
	return &Users{pool: pool}
}

func (s *Users) GetByEmail(ctx context.Context, email string) (*core.User, error) {
	email = strings.TrimSpace(email)
	return s.getOne(ctx,
		`SELECT id, email, COALESCE(username, ''), email_verified, active FROM users WHERE email=$1`,
		email)
}

func (s *Users) GetByID(ctx context.Context, id string) (*core.User, error) {
	return s.getOne(ctx,
		`SELECT id, email, COALESCE(username, ''), email_verified, active FROM users WHERE id=$1`,
		id)
}

func (s *Users) getOne(ctx context.Context, query string, arg any) (*core.User, error) {
	var u core.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Username, &u.EmailVerified, &u.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return &u, nil
}

func (s *Users) SetEmailVerified(ctx context.Context, id string, verified bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET email_verified=$2, updated_at=NOW() WHERE id=$1`, id, verified)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

// UpdateEmailVerified swaps the email and marks it verified in one statement,
// so the two fields change as a single logical transition.
func (s *Users) UpdateEmailVerified(ctx context.Context, id, email string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET email=$2, email_verified=true, updated_at=NOW() WHERE id=$1`,
		id, strings.TrimSpace(email))
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique_violation on the email column.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return core.ErrEmailExists
		}
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

func (s *Users) GetPasswordHash(ctx context.Context, id string) (string, error) {
	var phc string
	err := s.pool.QueryRow(ctx, `SELECT password_hash FROM users WHERE id=$1`, id).Scan(&phc)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", core.ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return phc, nil
}

func (s *Users) SetPasswordHash(ctx context.Context, id, phc string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1`, id, phc)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrUserNotFound
	}
	return nil
}
