package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/okian/platecheck/internal/adapters/export"
	"github.com/okian/platecheck/internal/adapters/mq/queue"
	"github.com/okian/platecheck/internal/domain/model"
	"github.com/okian/platecheck/internal/domain/types"
	"github.com/okian/platecheck/pkg/logger"
	"github.com/okian/platecheck/pkg/metrics"
)

// SubmitBatch queues images for asynchronous processing. An empty id gets a
// generated one. Resubmitting a known id returns its current status with
// duplicate set and queues nothing.
func (s *Service) SubmitBatch(ctx context.Context, id string, tier model.ModelTier, images []model.Image) (status types.BatchStatus, duplicate bool, err error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return types.BatchStatus{}, false, ErrNotStarted
	}
	if len(images) == 0 {
		return types.BatchStatus{}, false, ErrEmptyBatch
	}
	if id == "" {
		id = uuid.NewString()
	}
	if tier == "" {
		tier = model.TierStandard
	}

	job := queue.Job{
		ID:          id,
		Tier:        tier,
		Images:      images,
		SubmittedAt: time.Now().UTC(),
	}

	// The dedupe check, the status entry and the enqueue happen under one
	// lock so a concurrent duplicate always finds the tracked status.
	s.batchMu.Lock()
	if s.SeenAndRecord(ctx, id) {
		if st, ok := s.batches[id]; ok {
			dup := cloneStatus(st)
			s.batchMu.Unlock()
			s.logger.Debug(ctx, "duplicate batch, skipping", logger.String("batch_id", id))
			return dup, true, nil
		}
	}
	st := &types.BatchStatus{
		ID:          id,
		State:       types.BatchPending,
		Tier:        tier.String(),
		Total:       len(images),
		RecordIDs:   []string{},
		SubmittedAt: job.SubmittedAt,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.Unrecord(ctx, id)
		s.batchMu.Unlock()
		if errors.Is(err, queue.ErrFull) {
			return types.BatchStatus{}, false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return types.BatchStatus{}, false, fmt.Errorf("enqueue batch %s: %w", id, err)
	}
	s.batches[id] = st
	queued := cloneStatus(st)
	s.batchMu.Unlock()

	metrics.RecordBatchSubmitted()
	s.logger.Info(ctx, "batch queued",
		logger.String("batch_id", id),
		logger.Int("images", len(images)),
		logger.String("tier", tier.String()),
	)
	return queued, false, nil
}

// ProcessJob runs a queued batch; it is the worker pool's processor.
func (s *Service) ProcessJob(ctx context.Context, job queue.Job) error { //nolint:gocritic // hugeParam
	s.updateBatch(job.ID, func(st *types.BatchStatus) {
		st.State = types.BatchRunning
	})

	err := s.processSequential(ctx, job.Images, job.Tier, func(rec *model.ComparisonRecord) {
		s.updateBatch(job.ID, func(st *types.BatchStatus) {
			st.RecordIDs = append(st.RecordIDs, rec.ID())
			st.Completed++
		})
	})

	finished := time.Now().UTC()
	s.updateBatch(job.ID, func(st *types.BatchStatus) {
		st.State = types.BatchDone
		if err != nil {
			st.State = types.BatchFailed
			st.Error = err.Error()
		}
		st.FinishedAt = &finished
	})
	return err
}

// Batch returns the status of a submitted batch.
func (s *Service) Batch(id string) (types.BatchStatus, error) {
	s.batchMu.RLock()
	defer s.batchMu.RUnlock()

	st, ok := s.batches[id]
	if !ok {
		return types.BatchStatus{}, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	return cloneStatus(st), nil
}

func cloneStatus(st *types.BatchStatus) types.BatchStatus {
	out := *st
	out.RecordIDs = append([]string(nil), st.RecordIDs...)
	return out
}

func (s *Service) updateBatch(id string, fn func(*types.BatchStatus)) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	if st, ok := s.batches[id]; ok {
		fn(st)
	}
}

// History returns every record in completion order.
func (s *Service) History(ctx context.Context) []*model.ComparisonRecord {
	return s.history.List(ctx)
}

// HistoryPage returns up to limit records starting at offset.
func (s *Service) HistoryPage(ctx context.Context, offset, limit int) ([]*model.ComparisonRecord, error) {
	return s.history.Page(ctx, offset, limit)
}

// Record returns one record by id.
func (s *Service) Record(ctx context.Context, id string) (*model.ComparisonRecord, error) {
	return s.history.Get(ctx, id)
}

// Export writes the whole history as CSV.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	if err := export.WriteCSV(w, s.History(ctx)); err != nil {
		return fmt.Errorf("export history: %w", err)
	}
	return nil
}

// HistoryCount is the number of stored records.
func (s *Service) HistoryCount(ctx context.Context) int {
	return s.history.Count(ctx)
}
