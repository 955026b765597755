package promo

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests.
type MemoryStore struct {
	mu    sync.Mutex
	codes map[string]*Code
}

func NewMemoryStore(codes ...*Code) *MemoryStore {
	s := &MemoryStore{codes: make(map[string]*Code, len(codes))}
	for _, c := range codes {
		copied := *c
		s.codes[c.Code] = &copied
	}
	return s
}

func (s *MemoryStore) Redeem(ctx context.Context, code string, now time.Time) (*Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[code]
	if !ok {
		return nil, ErrCodeNotFound
	}
	if err := c.redeemableAt(now); err != nil {
		return nil, err
	}

	c.CurrentUses++
	copied := *c
	return &copied, nil
}

func (s *MemoryStore) Get(ctx context.Context, code string) (*Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[code]
	if !ok {
		return nil, ErrCodeNotFound
	}
	copied := *c
	return &copied, nil
}
