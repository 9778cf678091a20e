package recognition

import "errors"

// Sentinel kinds for recognition errors.
var (
	ErrUnknownStatus = errors.New("unknown provider status")
	ErrEmptyResponse = errors.New("empty provider response")
)
