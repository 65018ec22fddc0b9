// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidReference indicates a playlist reference that could not be parsed.
	ErrInvalidReference = errors.New("invalid playlist reference")

	// ErrValidation indicates a request that is well-formed but semantically invalid.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthenticated indicates a missing or unusable credential.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden indicates the caller does not own the target entity.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyCompleted indicates a result submission against a finished attempt.
	ErrAlreadyCompleted = errors.New("attempt already completed")
)
