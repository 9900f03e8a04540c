package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	pwhash "github.com/itellico/verifykit/password"
)

func seedUser(env *testEnv, id, email, password string) {
	env.users.add(User{ID: id, Email: email, Username: "tester", Active: true}, password)
}

func TestForgotPasswordIssuesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(env, "u1", "alice@example.com", "OldPass123")

	require.NoError(t, env.svc.ForgotPassword(ctx, "alice@example.com"))

	mail := env.sender.lastReset(t)
	require.Equal(t, "alice@example.com", mail.to)
	require.NotEmpty(t, mail.token)

	events := env.drainAudit()
	require.Len(t, events, 1)
	require.Equal(t, AuditPasswordResetRequested, events[0].Action)
	require.Equal(t, "u1", events[0].SubjectID)
}

func TestForgotPasswordUnknownEmailSilent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.ForgotPassword(ctx, "nobody@example.com"))
	require.Empty(t, env.sender.resets)
	require.Empty(t, env.drainAudit())
	require.Zero(t, env.kv.len())
}

func TestForgotPasswordInactiveAccountSilent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(env, "u1", "alice@example.com", "OldPass123")
	env.users.setActive("u1", false)

	require.NoError(t, env.svc.ForgotPassword(ctx, "alice@example.com"))
	require.Empty(t, env.sender.resets)
	require.Zero(t, env.kv.len())
}

func TestForgotPasswordTrimsEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(env, "u1", "alice@example.com", "OldPass123")

	require.NoError(t, env.svc.ForgotPassword(ctx, "  alice@example.com  "))
	require.Len(t, env.sender.resets, 1)
}

func TestResetPasswordHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(env, "u1", "alice@example.com", "OldPass123")

	require.NoError(t, env.svc.ForgotPassword(ctx, "alice@example.com"))
	token := env.sender.lastReset(t).token

	require.NoError(t, env.svc.ResetPassword(ctx, token, "NewPass456"))

	phc, err := env.users.GetPasswordHash(ctx, "u1")
	require.NoError(t, err)
	ok, err := pwhash.Verify("NewPass456", phc)
	require.NoError(t, err)
	require.True(t, ok)

	// The token is burned.
	require.ErrorIs(t, env.svc.ResetPassword(ctx, token, "NewPass789"), ErrInvalidToken)
}

func TestResetPasswordWeakPasswordKeepsToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(env, "u1", "alice@example.com", "OldPass123")

	require.NoError(t, env.svc.ForgotPassword(ctx, "alice@example.com"))
	token := env.sender.lastReset(t).token

	require.ErrorIs(t, env.svc.ResetPassword(ctx, token, "short"), ErrWeakPassword)

	// A policy failure must not burn the token.
	require.NoError(t, env.svc.ResetPassword(ctx, token, "NewPass456"))
}

func TestResetPasswordInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.ResetPassword(context.Background(), "bogus", "NewPass456")
	require.ErrorIs(t, err, ErrInvalidToken)

	events := env.drainAudit()
	require.Len(t, events, 1)
	require.Equal(t, AuditPasswordResetFailed, events[0].Action)
}

func TestResetPasswordSubjectDeactivatedAfterIssue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(env, "u1", "alice@example.com", "OldPass123")

	require.NoError(t, env.svc.ForgotPassword(ctx, "alice@example.com"))
	token := env.sender.lastReset(t).token

	env.users.setActive("u1", false)
	require.ErrorIs(t, env.svc.ResetPassword(ctx, token, "NewPass456"), ErrInvalidToken)
}

func TestForgotPasswordSupersedesPriorToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(env, "u1", "alice@example.com", "OldPass123")

	require.NoError(t, env.svc.ForgotPassword(ctx, "alice@example.com"))
	first := env.sender.lastReset(t).token
	require.NoError(t, env.svc.ForgotPassword(ctx, "alice@example.com"))
	second := env.sender.lastReset(t).token
	require.NotEqual(t, first, second)

	require.ErrorIs(t, env.svc.ResetPassword(ctx, first, "NewPass456"), ErrInvalidToken)
	require.NoError(t, env.svc.ResetPassword(ctx, second, "NewPass456"))
}
