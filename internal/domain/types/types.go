// Package types contains the batch types shared by the queue, the worker
// pool and the service.
package types

import (
	"time"

	"github.com/okian/platecheck/internal/domain/model"
)

// BatchState is the lifecycle stage of an asynchronous batch.
type BatchState string

// Batch states.
const (
	BatchPending BatchState = "pending"
	BatchRunning BatchState = "running"
	BatchDone    BatchState = "done"
	// BatchFailed means processing stopped before every image had a record.
	// Records produced so far stay listed.
	BatchFailed  BatchState = "failed"
)

// BatchJob is one submitted batch flowing through the queue. Images are
// processed in slice order.
type BatchJob struct {
	ID          string
	Tier        model.ModelTier
	Images      []model.Image
	SubmittedAt time.Time
}

// BatchStatus is the externally visible progress of a batch.
type BatchStatus struct {
	ID          string     `json:"id"`
	State       BatchState `json:"state"`
	Tier        string     `json:"model_tier"`
	Total       int        `json:"total"`
	Completed   int        `json:"completed"`
	RecordIDs   []string   `json:"record_ids"`
	SubmittedAt time.Time  `json:"submitted_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}
