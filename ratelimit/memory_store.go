package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sliding-window timestamps in process memory. Two
// levels of locking keep same-key requests serialized without blocking
// unrelated keys: an RWMutex guards the key map, a per-window mutex
// guards each timestamp slice.
type MemoryStore struct {
	mu      sync.RWMutex
	windows map[string]*window

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
	now             func() time.Time
}

type window struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often fully-expired keys are removed.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.cleanupInterval = interval
		}
	}
}

// WithMemoryStoreClock overrides the clock used by the cleanup loop.
func WithMemoryStoreClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an in-memory store with a background cleanup
// loop that drops keys whose windows have fully drained.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		windows:         make(map[string]*window),
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()

	return s
}

func (s *MemoryStore) RecordIfAllowed(ctx context.Context, key string, now time.Time, windowSize time.Duration, limit, n int) (bool, int64, time.Time, error) {
	w := s.window(key)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now.Add(-windowSize))

	if len(w.timestamps)+n > limit {
		return false, int64(len(w.timestamps)), w.oldest(), nil
	}

	for range n {
		w.timestamps = append(w.timestamps, now)
	}
	return true, int64(len(w.timestamps)), w.oldest(), nil
}

func (s *MemoryStore) CountInWindow(ctx context.Context, key string, now time.Time, windowSize time.Duration) (int64, time.Time, error) {
	s.mu.RLock()
	w, exists := s.windows[key]
	s.mu.RUnlock()

	if !exists {
		return 0, time.Time{}, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now.Add(-windowSize))
	return int64(len(w.timestamps)), w.oldest(), nil
}

func (s *MemoryStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.windows, key)
	return nil
}

// Close stops the background cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.cleanupOnce.Do(func() {
		close(s.stopCleanup)
	})
	return nil
}

func (s *MemoryStore) window(key string) *window {
	s.mu.RLock()
	w, exists := s.windows[key]
	s.mu.RUnlock()
	if exists {
		return w
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if w, exists = s.windows[key]; exists {
		return w
	}
	w = &window{}
	s.windows[key] = w
	return w
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

// cleanup drops keys whose windows drained past the cleanup interval.
// Entries younger than the interval are kept; the per-call prune keeps
// counts exact regardless.
func (s *MemoryStore) cleanup() {
	cutoff := s.now().Add(-s.cleanupInterval)

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, w := range s.windows {
		w.mu.Lock()
		empty := len(w.timestamps) == 0 ||
			w.timestamps[len(w.timestamps)-1].Before(cutoff)
		w.mu.Unlock()

		if empty {
			delete(s.windows, key)
		}
	}
}

// prune drops timestamps at or before cutoff. Must be called with the
// window mutex held. Timestamps are appended in order, so a binary
// search is unnecessary at these sizes.
func (w *window) prune(cutoff time.Time) {
	keep := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}
	w.timestamps = keep
}

func (w *window) oldest() time.Time {
	if len(w.timestamps) == 0 {
		return time.Time{}
	}
	return w.timestamps[0]
}
