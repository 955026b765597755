package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the request may proceed.
	Allowed bool

	// Limit is the quota for the window.
	Limit int

	// Remaining is how many requests are left in the current window.
	Remaining int

	// ResetAt is when the oldest counted request leaves the window.
	ResetAt time.Time
}

// RetryAfter returns how long to wait before the next request could be
// allowed. Zero when the request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Limiter is the rate limiting interface consumed by the gate.
type Limiter interface {
	// Allow checks and, if permitted, records one request for the key.
	Allow(ctx context.Context, key string) (*Result, error)

	// AllowN checks and, if permitted, records n requests for the key.
	AllowN(ctx context.Context, key string, n int) (*Result, error)

	// Status reports the current window state without recording anything.
	Status(ctx context.Context, key string) (*Result, error)

	// Reset clears all recorded requests for the key.
	Reset(ctx context.Context, key string) error
}

// Store holds per-key request timestamps for the sliding window.
type Store interface {
	// RecordIfAllowed atomically drops timestamps older than the
	// window, and if fewer than limit remain, records n new ones at
	// now. Returns whether the request was recorded, the resulting
	// in-window count and the oldest retained timestamp (zero when the
	// window is empty).
	RecordIfAllowed(ctx context.Context, key string, now time.Time, window time.Duration, limit, n int) (allowed bool, count int64, oldest time.Time, err error)

	// CountInWindow returns the number of timestamps within the window
	// ending at now, along with the oldest retained timestamp.
	CountInWindow(ctx context.Context, key string, now time.Time, window time.Duration) (count int64, oldest time.Time, err error)

	// Reset removes all timestamps for the key.
	Reset(ctx context.Context, key string) error
}
