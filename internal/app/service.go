// Package service wires the recognition providers, the record builder and
// the history store into the operations exposed by the HTTP API and the
// batch CLI.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/okian/platecheck/internal/adapters/mq/queue"
	"github.com/okian/platecheck/internal/adapters/mq/worker"
	"github.com/okian/platecheck/internal/adapters/repository"
	"github.com/okian/platecheck/internal/domain/dedupe"
	"github.com/okian/platecheck/internal/domain/recognition"
	"github.com/okian/platecheck/internal/domain/record"
	"github.com/okian/platecheck/internal/domain/types"
	"github.com/okian/platecheck/pkg/logger"
	"github.com/okian/platecheck/pkg/metrics"
)

const (
	defaultQueueSize       = 64
	defaultDedupeSize      = 10000
	defaultUpstreamTimeout = 60 * time.Second
	stopTimeout            = 30 * time.Second
)

// Service runs single images synchronously and batches through the worker
// pool. Records land in history in the order their pipelines complete.
type Service struct {
	mu sync.RWMutex

	// Core components
	history repository.Store
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	builder *record.Builder
	vision  recognition.VisionProvider
	text    recognition.TextProvider

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	upstreamTimeout time.Duration

	batchMu sync.RWMutex
	batches map[string]*types.BatchStatus

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of batch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets how many batches may wait for a worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the number of remembered batch ids.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithUpstreamTimeout caps each provider call.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.upstreamTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVisionProvider sets the provider answering both vision prompt sets.
func WithVisionProvider(p recognition.VisionProvider) Option {
	return func(s *Service) {
		s.vision = p
	}
}

// WithTextProvider sets the OCR provider used for the premium cross-check.
// Without one, premium records carry a skipped OCR outcome.
func WithTextProvider(p recognition.TextProvider) Option {
	return func(s *Service) {
		s.text = p
	}
}

// WithBuilder replaces the record builder, mostly to pin clocks and ids in
// tests.
func WithBuilder(b *record.Builder) Option {
	return func(s *Service) {
		if b != nil {
			s.builder = b
		}
	}
}

// WithHistory replaces the in-memory history store.
func WithHistory(h repository.Store) Option {
	return func(s *Service) {
		if h != nil {
			s.history = h
		}
	}
}

// New constructs a Service. The synchronous operations work right away;
// Start is only needed for SubmitBatch.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       defaultQueueSize,
		dedupeSize:      defaultDedupeSize,
		upstreamTimeout: defaultUpstreamTimeout,
		batches:         make(map[string]*types.BatchStatus),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.history == nil {
		s.history = repository.NewMemoryStore()
	}
	if s.builder == nil {
		s.builder = record.NewBuilder()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start creates the batch queue and launches the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.vision == nil {
		return ErrNoVisionProvider
	}

	s.logger.Info(ctx, "starting plate check service...")

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s)
	// Workers outlive the request that started them; Stop drains them.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "plate check service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("vision", s.vision.Name()),
		logger.String("ocr", s.textName()),
	)
	return nil
}

// Stop closes the queue and waits for queued batches to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping plate check service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "plate check service stopped")
}

// SeenAndRecord atomically checks whether a batch id was seen and records
// it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordBatchDuplicate()
	}
	return seen
}

// Unrecord forgets a batch id so it can be resubmitted.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	historyRecords := s.history.Count(ctx)
	stats := map[string]interface{}{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"dedupeSize":     s.dedupeSize,
		"dedupeEntries":  s.deduper.Size(),
		"historyRecords": historyRecords,
		"ocrProvider":    s.textName(),
	}
	if s.vision != nil {
		stats["visionProvider"] = s.vision.Name()
	}

	s.batchMu.RLock()
	stats["batches"] = len(s.batches)
	s.batchMu.RUnlock()

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.pool.Size())
	}
	metrics.UpdateHistoryRecords(historyRecords)

	return stats
}

func (s *Service) textName() string {
	if s.text == nil {
		return "none"
	}
	return s.text.Name()
}
