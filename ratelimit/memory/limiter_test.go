package memorylimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllowNamedWithinLimit(t *testing.T) {
	l := New(map[string]Limit{"bucket": {Limit: 3, Window: time.Minute}})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := l.AllowNamed(ctx, "bucket", "k")
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, retryAfter, err := l.AllowNamed(ctx, "bucket", "k")
	require.NoError(t, err)
	require.False(t, ok)
	require.Greater(t, retryAfter, time.Duration(0))
}

func TestAllowNamedKeysAreIndependent(t *testing.T) {
	l := New(map[string]Limit{"bucket": {Limit: 1, Window: time.Minute}})
	ctx := context.Background()

	ok, _, err := l.AllowNamed(ctx, "bucket", "a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, _, err = l.AllowNamed(ctx, "bucket", "b")
	require.NoError(t, err)
	require.True(t, ok)

	ok, _, err = l.AllowNamed(ctx, "bucket", "a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAllowNamedDefaultFallback(t *testing.T) {
	l := New(map[string]Limit{"default": {Limit: 1, Window: time.Minute}})
	ctx := context.Background()

	ok, _, err := l.AllowNamed(ctx, "unconfigured", "k")
	require.NoError(t, err)
	require.True(t, ok)

	ok, _, err = l.AllowNamed(ctx, "unconfigured", "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAllowNamedNoConfigAllows(t *testing.T) {
	l := New(map[string]Limit{})
	ok, _, err := l.AllowNamed(context.Background(), "anything", "k")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAllowNamedWindowReset(t *testing.T) {
	l := New(map[string]Limit{"bucket": {Limit: 1, Window: 15 * time.Millisecond}})
	ctx := context.Background()

	ok, _, err := l.AllowNamed(ctx, "bucket", "k")
	require.NoError(t, err)
	require.True(t, ok)
	ok, _, _ = l.AllowNamed(ctx, "bucket", "k")
	require.False(t, ok)

	time.Sleep(25 * time.Millisecond)
	ok, _, err = l.AllowNamed(ctx, "bucket", "k")
	require.NoError(t, err)
	require.True(t, ok)
}
