package vision

import "errors"

// Sentinel kinds for vision provider errors.
var (
	ErrInvalidKey         = errors.New("vision provider rejected the api key")
	ErrDeploymentNotFound = errors.New("vision deployment not found")
	ErrMalformedResponse  = errors.New("malformed vision response")
)
