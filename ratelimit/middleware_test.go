package ratelimit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/tutorkit/ratelimit"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func headerKey(name string) ratelimit.KeyFunc {
	return func(r *http.Request) string {
		return r.Header.Get(name)
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("annotates allowed requests", func(t *testing.T) {
		t.Parallel()

		limiter, _ := newTestLimiter(t, 5, time.Minute)
		handler := ratelimit.Middleware(limiter, headerKey("X-Client"))(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Client", "client-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("rejects over the quota with Retry-After", func(t *testing.T) {
		t.Parallel()

		limiter, _ := newTestLimiter(t, 1, time.Minute)
		handler := ratelimit.Middleware(limiter, headerKey("X-Client"))(okHandler())

		for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Client", "client-1")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, want, rec.Code, "request %d", i+1)

			if want == http.StatusTooManyRequests {
				assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			}
		}
	})

	t.Run("empty key skips limiting", func(t *testing.T) {
		t.Parallel()

		limiter, _ := newTestLimiter(t, 1, time.Minute)
		handler := ratelimit.Middleware(limiter, headerKey("X-Client"))(okHandler())

		for range 5 {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("fails open on store failure", func(t *testing.T) {
		t.Parallel()

		limiter := erroringLimiter{}
		handler := ratelimit.Middleware(limiter, headerKey("X-Client"))(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Client", "client-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("nil key func panics", func(t *testing.T) {
		t.Parallel()

		limiter, _ := newTestLimiter(t, 1, time.Minute)
		assert.Panics(t, func() {
			ratelimit.Middleware(limiter, nil)
		})
	})
}

// erroringLimiter simulates a limiter whose backend is down.
type erroringLimiter struct{}

func (erroringLimiter) Allow(ctx context.Context, key string) (*ratelimit.Result, error) {
	return nil, ratelimit.ErrStoreFailure
}

func (erroringLimiter) AllowN(ctx context.Context, key string, n int) (*ratelimit.Result, error) {
	return nil, ratelimit.ErrStoreFailure
}

func (erroringLimiter) Status(ctx context.Context, key string) (*ratelimit.Result, error) {
	return nil, ratelimit.ErrStoreFailure
}

func (erroringLimiter) Reset(ctx context.Context, key string) error {
	return ratelimit.ErrStoreFailure
}
