package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrBackpressure    = errors.New("backpressure")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUnavailable     = errors.New("unavailable")
	ErrInternal        = errors.New("internal error")
	ErrUploadDisabled  = errors.New("export upload is not configured")
	ErrPayloadTooLarge = errors.New("payload too large")
)

// KindError tags an error with the operation that failed and one of the
// sentinel kinds above.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

// NewKind returns a KindError without an underlying cause.
func NewKind(op string, kind error) *KindError {
	return &KindError{Op: op, Kind: kind}
}

// WrapKind returns a KindError wrapping err.
func WrapKind(op string, kind, err error) *KindError {
	return &KindError{Op: op, Kind: kind, Err: err}
}

func (e *KindError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *KindError) Unwrap() error { return e.Err }

// Is matches the kind as well as anything in the wrapped chain.
func (e *KindError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}
