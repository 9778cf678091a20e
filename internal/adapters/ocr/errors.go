package ocr

import "errors"

// Sentinel kinds for OCR provider errors.
var (
	ErrUpstreamStatus = errors.New("ocr upstream returned an error status")
	ErrNotConfigured  = errors.New("ocr provider not configured")
	ErrInferFailed    = errors.New("ocr inference failed")
)
