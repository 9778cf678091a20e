package repository

import "errors"

// Sentinel kinds for history errors.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateID  = errors.New("record id already stored")
	ErrNilRecord    = errors.New("nil record")
	ErrInvalidLimit = errors.New("invalid page limit")
)
