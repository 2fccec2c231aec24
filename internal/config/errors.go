package config

import "errors"

// Sentinel kinds for configuration errors.
var (
	ErrMissingInputDir   = errors.New("input_dir must not be empty")
	ErrMissingOutputPath = errors.New("output_path must not be empty")
	ErrInvalidBound      = errors.New("configuration value out of range")
)
