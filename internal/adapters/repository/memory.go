package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/platecheck/internal/domain/model"
	"github.com/okian/platecheck/pkg/metrics"
)

const maxPageLimit = 1000

// MemoryStore is an in-process Store. Records are never evicted; the
// owner of the store decides when to drop it.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*model.ComparisonRecord
	byID    map[string]int
}

// NewMemoryStore creates an empty history.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{byID: make(map[string]int)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Append(_ context.Context, rec *model.ComparisonRecord) error {
	if rec == nil {
		return ErrNilRecord
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[rec.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID())
	}
	s.byID[rec.ID()] = len(s.records)
	s.records = append(s.records, rec)
	metrics.UpdateHistoryRecords(len(s.records))
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*model.ComparisonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.records[i], nil
}

func (s *MemoryStore) List(_ context.Context) []*model.ComparisonRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.ComparisonRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *MemoryStore) Page(_ context.Context, offset, limit int) ([]*model.ComparisonRecord, error) {
	if limit <= 0 || limit > maxPageLimit || offset < 0 {
		return nil, fmt.Errorf("%w: offset=%d limit=%d", ErrInvalidLimit, offset, limit)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset >= len(s.records) {
		return []*model.ComparisonRecord{}, nil
	}
	end := min(offset+limit, len(s.records))
	out := make([]*model.ComparisonRecord, end-offset)
	copy(out, s.records[offset:end])
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
