package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used in tests and single-node
// deployments. Records are kept per user in creation order, mirroring
// the durable store's retained-history behavior.
type MemoryStore struct {
	mu      sync.Mutex
	records map[uuid.UUID][]*Subscription
	now     func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryStoreClock overrides the clock used for assigned CreatedAt
// timestamps. Tests use this for deterministic record ordering.
func WithMemoryStoreClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		records: make(map[uuid.UUID][]*Subscription),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Latest(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.records[userID]
	if len(history) == 0 {
		return nil, ErrNotFound
	}
	return history[len(history)-1].Clone(), nil
}

func (s *MemoryStore) Mutate(ctx context.Context, userID uuid.UUID, fn MutateFunc) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.records[userID]

	var current *Subscription
	if len(history) > 0 {
		current = history[len(history)-1].Clone()
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return current, nil
	}

	next = next.Clone()
	if next.ID == uuid.Nil {
		next.ID = uuid.New()
		next.CreatedAt = s.now()
		s.records[userID] = append(history, next)
	} else {
		for i, rec := range history {
			if rec.ID == next.ID {
				s.records[userID][i] = next
				break
			}
		}
	}

	return next.Clone(), nil
}
