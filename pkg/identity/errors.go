package identity

import "errors"

var (
	// ErrAllocationExhausted is returned when no unique id or username is
	// found within the retry bound. The id space is saturated; callers must
	// surface this, not retry.
	ErrAllocationExhausted = errors.New("identity: id space exhausted, unable to allocate unique identifier")
	// ErrInvalidRolePrefix is returned for role prefixes that are not exactly
	// 3 characters.
	ErrInvalidRolePrefix = errors.New("identity: role prefix must be 3 letters")
)
