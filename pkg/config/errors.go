package config

import "errors"

var (
	// ErrNilPointer is returned when a nil config pointer is passed to Load.
	ErrNilPointer = errors.New("config: nil pointer passed to Load")
	// ErrParseFailed wraps environment parsing failures.
	ErrParseFailed = errors.New("config: failed to parse environment variables")
)
