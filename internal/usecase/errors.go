package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrRateLimited           = errors.New("rate limit exceeded")
	ErrTimeout               = errors.New("operation timed out")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
