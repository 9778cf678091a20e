// Package repository holds the append-only history of comparison records.
package repository

import (
	"context"

	"github.com/okian/platecheck/internal/domain/model"
)

// Store is an append-only, ordered record history. Records are returned in
// the order they were appended, which is the order their pipelines
// completed.
type Store interface {
	// Append adds a completed record. Returns ErrDuplicateID if a record
	// with the same id is already stored.
	Append(ctx context.Context, rec *model.ComparisonRecord) error

	// Get returns the record with id or ErrNotFound.
	Get(ctx context.Context, id string) (*model.ComparisonRecord, error)

	// List returns every record in append order.
	List(ctx context.Context) []*model.ComparisonRecord

	// Page returns up to limit records starting at offset.
	Page(ctx context.Context, offset, limit int) ([]*model.ComparisonRecord, error)

	Count(ctx context.Context) int
}
