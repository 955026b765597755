package ratelimit_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/tutorkit/ratelimit"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*ratelimit.SlidingWindow, *fakeClock) {
	t.Helper()

	clock := newFakeClock(time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC))
	store := ratelimit.NewMemoryStore(ratelimit.WithMemoryStoreClock(clock.Now))
	t.Cleanup(func() { _ = store.Close() })

	limiter, err := ratelimit.NewSlidingWindow(store, limit, window, ratelimit.WithClock(clock.Now))
	require.NoError(t, err)
	return limiter, clock
}

func TestNewSlidingWindow(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	tests := []struct {
		name    string
		store   ratelimit.Store
		limit   int
		window  time.Duration
		wantErr error
	}{
		{"valid", store, 10, time.Minute, nil},
		{"nil store", nil, 10, time.Minute, ratelimit.ErrStoreRequired},
		{"zero limit", store, 0, time.Minute, ratelimit.ErrInvalidLimit},
		{"negative limit", store, -1, time.Minute, ratelimit.ErrInvalidLimit},
		{"zero window", store, 10, 0, ratelimit.ErrInvalidWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			limiter, err := ratelimit.NewSlidingWindow(tt.store, tt.limit, tt.window)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, limiter)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, limiter)
		})
	}
}

func TestSlidingWindowAllow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("enforces the quota", func(t *testing.T) {
		t.Parallel()

		limiter, _ := newTestLimiter(t, 10, time.Minute)

		for i := range 10 {
			res, err := limiter.Allow(ctx, "user-1")
			require.NoError(t, err)
			assert.True(t, res.Allowed, "request %d within quota", i+1)
			assert.Equal(t, 10-(i+1), res.Remaining)
		}

		res, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Zero(t, res.Remaining)
	})

	t.Run("window slides", func(t *testing.T) {
		t.Parallel()

		limiter, clock := newTestLimiter(t, 2, time.Minute)

		for range 2 {
			res, err := limiter.Allow(ctx, "user-1")
			require.NoError(t, err)
			require.True(t, res.Allowed)
		}

		res, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		require.False(t, res.Allowed)

		clock.Advance(61 * time.Second)

		res, err = limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 1, res.Remaining)
	})

	t.Run("denial reports when the oldest slot frees", func(t *testing.T) {
		t.Parallel()

		limiter, clock := newTestLimiter(t, 1, time.Minute)
		start := clock.Now()

		res, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		require.True(t, res.Allowed)

		clock.Advance(20 * time.Second)

		res, err = limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		require.False(t, res.Allowed)
		assert.Equal(t, start.Add(time.Minute), res.ResetAt)
		assert.Equal(t, 40*time.Second, res.ResetAt.Sub(clock.Now()))
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()

		limiter, _ := newTestLimiter(t, 1, time.Minute)

		res, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		require.True(t, res.Allowed)

		res, err = limiter.Allow(ctx, "user-2")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("empty key", func(t *testing.T) {
		t.Parallel()

		limiter, _ := newTestLimiter(t, 1, time.Minute)
		_, err := limiter.Allow(ctx, "")
		assert.ErrorIs(t, err, ratelimit.ErrKeyRequired)
	})

	t.Run("AllowN refuses oversized batches atomically", func(t *testing.T) {
		t.Parallel()

		limiter, _ := newTestLimiter(t, 5, time.Minute)

		res, err := limiter.AllowN(ctx, "user-1", 3)
		require.NoError(t, err)
		require.True(t, res.Allowed)

		// Only two slots remain; a batch of three is rejected whole.
		res, err = limiter.AllowN(ctx, "user-1", 3)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, 2, res.Remaining)

		res, err = limiter.AllowN(ctx, "user-1", 2)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})
}

func TestSlidingWindowStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter, _ := newTestLimiter(t, 3, time.Minute)

	res, err := limiter.Status(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 3, res.Remaining)

	for range 2 {
		_, err = limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
	}

	// Status never consumes a slot.
	for range 5 {
		res, err = limiter.Status(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 1, res.Remaining)
	}
}

func TestSlidingWindowReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter, _ := newTestLimiter(t, 1, time.Minute)

	res, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	require.NoError(t, limiter.Reset(ctx, "user-1"))

	res, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestSlidingWindowConcurrency(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter, _ := newTestLimiter(t, 50, time.Minute)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := limiter.Allow(ctx, "user-1")
			if err == nil && res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), allowed.Load(), "burst must admit exactly the quota")
}
