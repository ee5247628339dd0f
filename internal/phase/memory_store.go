package phase

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu          sync.RWMutex
	transitions map[string][]*Transition // accountID → transitions
}

// NewMemoryStore creates an in-memory phase transition store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{transitions: make(map[string][]*Transition)}
}

func (s *MemoryStore) Record(ctx context.Context, t *Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.transitions[t.AccountID] = append(s.transitions[t.AccountID], &cp)
	return nil
}

func (s *MemoryStore) ListByAccount(ctx context.Context, accountID string, limit int) ([]*Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.transitions[accountID]
	if len(all) == 0 {
		return nil, nil
	}

	start := len(all) - limit
	if start < 0 {
		start = 0
	}
	result := make([]*Transition, 0, len(all)-start)
	for i := len(all) - 1; i >= start; i-- {
		cp := *all[i]
		result = append(result, &cp)
	}
	return result, nil
}
