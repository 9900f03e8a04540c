package memorystore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKVSetGet(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", []byte("v"), time.Minute))
	b, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), b)

	_, ok, err = kv.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKVTTLExpiry(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	_, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKVZeroTTLNeverExpires(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", []byte("v"), 0))
	time.Sleep(15 * time.Millisecond)
	_, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestKVGetDelSingleWinner(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "k", []byte("v"), time.Minute))

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	found := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := kv.GetDel(ctx, "k")
			require.NoError(t, err)
			if ok {
				mu.Lock()
				found++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, found)
}

func TestKVSetIfMatch(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "k", []byte("a"), time.Minute))

	swapped, err := kv.SetIfMatch(ctx, "k", []byte("b"), []byte("c"), time.Minute)
	require.NoError(t, err)
	require.False(t, swapped)

	swapped, err = kv.SetIfMatch(ctx, "k", []byte("a"), []byte("c"), time.Minute)
	require.NoError(t, err)
	require.True(t, swapped)

	b, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("c"), b)

	// Missing keys never swap.
	swapped, err = kv.SetIfMatch(ctx, "missing", []byte("a"), []byte("b"), time.Minute)
	require.NoError(t, err)
	require.False(t, swapped)
}

func TestKVValueIsolation(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	src := []byte("original")
	require.NoError(t, kv.Set(ctx, "k", src, time.Minute))
	src[0] = 'X'

	b, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("original"), b)
}
