package service

import "errors"

var (
	ErrNoVisionProvider = errors.New("no vision provider configured")
	ErrNotStarted       = errors.New("service not started")
	ErrEmptyBatch       = errors.New("batch has no images")
	ErrBatchNotFound    = errors.New("batch not found")
	ErrBackpressure     = errors.New("batch queue is full")
	ErrPipelinePanic    = errors.New("recognition pipeline panicked")
)
