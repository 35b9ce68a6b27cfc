package usecase

import "errors"

// Use case errors are wrapped with %w and mapped to HTTP statuses by httpapi.mapError.
// mapError matches fantasy domain errors directly, so they are not re-wrapped here.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
