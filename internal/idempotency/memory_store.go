package idempotency

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Waiters block on a per-key
// channel closed by the reservation holder.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
	pending map[string]chan struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		pending: make(map[string]chan struct{}),
	}
}

func storeKey(endpoint, key string) string {
	return endpoint + "|" + key
}

func (s *MemoryStore) LookupOrReserve(ctx context.Context, endpoint, key string) (*Record, bool, error) {
	k := storeKey(endpoint, key)
	for {
		s.mu.Lock()
		if rec, ok := s.records[k]; ok {
			s.mu.Unlock()
			return rec, false, nil
		}
		wait, inflight := s.pending[k]
		if !inflight {
			s.pending[k] = make(chan struct{})
			s.mu.Unlock()
			return nil, true, nil
		}
		s.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

func (s *MemoryStore) Complete(_ context.Context, rec *Record) error {
	k := storeKey(rec.Endpoint, rec.Key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[k] = rec
	if wait, ok := s.pending[k]; ok {
		close(wait)
		delete(s.pending, k)
	}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, endpoint, key string) error {
	k := storeKey(endpoint, key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if wait, ok := s.pending[k]; ok {
		close(wait)
		delete(s.pending, k)
	}
	return nil
}
