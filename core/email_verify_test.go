package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResendVerificationIssuesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(env, "u1", "alice@example.com", "Password1")

	require.NoError(t, env.svc.ResendVerification(ctx, "alice@example.com"))
	mail := env.sender.lastVerify(t)
	require.Equal(t, "alice@example.com", mail.to)
	require.NotEmpty(t, mail.token)
}

func TestResendVerificationSilentBranches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(env, "u1", "alice@example.com", "Password1")
	env.users.add(User{ID: "u2", Email: "bob@example.com", Active: true, EmailVerified: true}, "")
	env.users.add(User{ID: "u3", Email: "carol@example.com", Active: false}, "")

	require.NoError(t, env.svc.ResendVerification(ctx, "nobody@example.com"))
	require.NoError(t, env.svc.ResendVerification(ctx, "bob@example.com"))
	require.NoError(t, env.svc.ResendVerification(ctx, "carol@example.com"))
	require.Empty(t, env.sender.verifys)
	require.Zero(t, env.kv.len())
}

func TestVerifyEmailHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(env, "u1", "alice@example.com", "Password1")

	require.NoError(t, env.svc.ResendVerification(ctx, "alice@example.com"))
	token := env.sender.lastVerify(t).token

	already, err := env.svc.VerifyEmail(ctx, token)
	require.NoError(t, err)
	require.False(t, already)
	require.True(t, env.users.get("u1").EmailVerified)

	events := env.drainAudit()
	var actions []string
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	require.Contains(t, actions, AuditEmailVerified)
}

func TestVerifyEmailReplayFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(env, "u1", "alice@example.com", "Password1")

	require.NoError(t, env.svc.ResendVerification(ctx, "alice@example.com"))
	token := env.sender.lastVerify(t).token

	_, err := env.svc.VerifyEmail(ctx, token)
	require.NoError(t, err)
	_, err = env.svc.VerifyEmail(ctx, token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyEmailAlreadyVerifiedIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(env, "u1", "alice@example.com", "Password1")

	require.NoError(t, env.svc.ResendVerification(ctx, "alice@example.com"))
	token := env.sender.lastVerify(t).token

	// Verified by other means between issue and consume.
	require.NoError(t, env.users.SetEmailVerified(ctx, "u1", true))

	already, err := env.svc.VerifyEmail(ctx, token)
	require.NoError(t, err)
	require.True(t, already)
}

func TestVerifyEmailInvalidToken(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.VerifyEmail(context.Background(), "bogus")
	require.ErrorIs(t, err, ErrInvalidToken)
}
