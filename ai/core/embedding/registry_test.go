package embedding

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetLoadsOnce(t *testing.T) {
	registry := NewRegistry[string]()
	var loads atomic.Int32
	load := func(_ context.Context) (string, error) {
		loads.Add(1)
		return "resource", nil
	}

	first, err := registry.Get(context.Background(), "key", load)
	require.NoError(t, err)
	assert.Equal(t, "resource", first)

	second, err := registry.Get(context.Background(), "key", load)
	require.NoError(t, err)
	assert.Equal(t, "resource", second)
	assert.Equal(t, int32(1), loads.Load())
}

func TestRegistryConcurrentGet(t *testing.T) {
	registry := NewRegistry[string]()
	var loads atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := registry.Get(context.Background(), "shared", func(_ context.Context) (string, error) {
				loads.Add(1)
				return "resource", nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "resource", got)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), loads.Load())
}

func TestRegistryKeysLoadIndependently(t *testing.T) {
	registry := NewRegistry[int]()

	a, err := registry.Get(context.Background(), "a", func(_ context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	b, err := registry.Get(context.Background(), "b", func(_ context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestRegistryRetriesTransientFailure(t *testing.T) {
	registry := NewRegistry[string]()
	var attempts atomic.Int32

	got, err := registry.Get(context.Background(), "flaky", func(_ context.Context) (string, error) {
		if attempts.Add(1) < 3 {
			return "", errors.New("transient")
		}
		return "ready", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ready", got)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRegistryFailureNotCached(t *testing.T) {
	registry := NewRegistry[string]()
	var attempts atomic.Int32

	_, err := registry.Get(context.Background(), "broken", func(_ context.Context) (string, error) {
		attempts.Add(1)
		return "", errors.New("permanent")
	})
	require.Error(t, err)
	assert.Equal(t, int32(initAttempts), attempts.Load())

	// A later call retries instead of replaying the cached failure.
	got, err := registry.Get(context.Background(), "broken", func(_ context.Context) (string, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
}

func TestRegistryGetCancelled(t *testing.T) {
	registry := NewRegistry[string]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := registry.Get(ctx, "cancelled", func(_ context.Context) (string, error) {
		return "", errors.New("transient")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistryPeek(t *testing.T) {
	registry := NewRegistry[string]()

	_, ok := registry.Peek("missing")
	assert.False(t, ok)

	_, err := registry.Get(context.Background(), "present", func(_ context.Context) (string, error) {
		return "resource", nil
	})
	require.NoError(t, err)

	got, ok := registry.Peek("present")
	assert.True(t, ok)
	assert.Equal(t, "resource", got)
}
