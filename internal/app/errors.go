package app

import "errors"

// Sentinel kinds for engine errors.
var (
	ErrNilBatch = errors.New("nil input batch")
)
