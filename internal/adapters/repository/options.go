package repository

import "github.com/okian/platecheck/internal/domain/model"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithCapacityHint preallocates room for n records.
func WithCapacityHint(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.records = make([]*model.ComparisonRecord, 0, n)
		}
	}
}
