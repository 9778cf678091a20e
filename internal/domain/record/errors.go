package record

import "errors"

var (
	ErrNoOutcomes      = errors.New("record needs at least one outcome")
	ErrDuplicateSource = errors.New("duplicate outcome source")
)
