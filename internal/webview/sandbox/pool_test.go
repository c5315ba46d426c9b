package sandbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAcquireRelease(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 2)
	require.NoError(t, err)
	defer pool.Close()

	ctx := context.Background()

	rt, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, PoolStats{Size: 2, Available: 1, InUse: 1}, pool.Stats())

	result, err := rt.Run(ctx, nil, nil, Script{Source: "var kept = 42; kept"})
	require.NoError(t, err)
	assert.EqualValues(t, 42, result.Value)

	require.NoError(t, pool.Release(rt))
	assert.Equal(t, 2, pool.Stats().Available)

	// Released runtimes come back clean
	for i := 0; i < 2; i++ {
		result, err = pool.Run(ctx, nil, nil, Script{Source: "typeof kept"})
		require.NoError(t, err)
		assert.Equal(t, "undefined", result.Value)
	}
}

func TestPoolRunConcurrent(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 2)
	require.NoError(t, err)
	defer pool.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.Run(context.Background(), nil, nil, Script{Source: "Math.sqrt(16)"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 2, pool.Stats().Available)
}

func TestPoolAcquireTimeout(t *testing.T) {
	pool, err := NewPool(Config{Timeout: 50 * time.Millisecond}, 1)
	require.NoError(t, err)
	defer pool.Close()

	held, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer pool.Release(held)

	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoolClose(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 1)
	require.NoError(t, err)

	rt, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())
	assert.True(t, pool.Stats().Closed)

	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)

	// Releasing into a closed pool closes the runtime
	require.NoError(t, pool.Release(rt))
	_, err = rt.Run(context.Background(), nil, nil, Script{Source: "1"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewPoolDefaultSize(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 0)
	require.NoError(t, err)
	defer pool.Close()

	assert.Equal(t, 4, pool.Stats().Size)
}
