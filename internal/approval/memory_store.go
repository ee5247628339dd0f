package approval

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*Request
}

// NewMemoryStore creates an in-memory approval store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[string]*Request)}
}

func (s *MemoryStore) Create(ctx context.Context, r *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = copyRequest(r)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	return copyRequest(r), nil
}

func (s *MemoryStore) ListPending(ctx context.Context, accountID string) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Request
	for _, r := range s.requests {
		if r.Status != StatusPending {
			continue
		}
		if accountID != "" && r.AccountID != accountID {
			continue
		}
		result = append(result, copyRequest(r))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RequestedAt.Before(result[j].RequestedAt) })
	return result, nil
}

func (s *MemoryStore) Resolve(ctx context.Context, id string, status Status, resolvedBy, notes string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok || r.Status != StatusPending {
		return false, nil
	}
	r.Status = status
	t := at
	r.ResolvedAt = &t
	r.ResolvedBy = resolvedBy
	r.ResolutionNotes = notes
	return true, nil
}

func (s *MemoryStore) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Request
	for _, r := range s.requests {
		if r.Status != StatusPending || !r.RequestedAt.Before(cutoff) {
			continue
		}
		result = append(result, copyRequest(r))
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *MemoryStore) CountPending(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, r := range s.requests {
		if r.Status == StatusPending {
			count++
		}
	}
	return count, nil
}

func copyRequest(r *Request) *Request {
	cp := *r
	if r.ActionData != nil {
		cp.ActionData = make(map[string]string, len(r.ActionData))
		for k, v := range r.ActionData {
			cp.ActionData[k] = v
		}
	}
	return &cp
}
