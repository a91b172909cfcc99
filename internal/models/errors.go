// ABOUTME: Sentinel errors shared across store, tools, and API layers
// ABOUTME: Callers classify failures with errors.Is against these values
package models

import "errors"

var (
	// ErrNotFound covers both absent records and owner mismatches, so the
	// tools surface never confirms another owner's record exists.
	ErrNotFound = errors.New("memory not found")

	// ErrForbidden is returned when an operation spans records the caller
	// does not own (e.g. linking across owners).
	ErrForbidden = errors.New("operation not permitted")

	// ErrValidation rejects bad input shape or range before any I/O.
	ErrValidation = errors.New("validation failed")

	// ErrUpstream marks embedding-provider or remote-service failures that
	// degrade functionality but must not reach the end user.
	ErrUpstream = errors.New("upstream unavailable")
)
