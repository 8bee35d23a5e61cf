// Package common defines shared sentinel errors used across the service and
// repository layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors; wrapped with field-level detail where possible.
	ErrorValidation = errors.New("validation error")

	// Account lifecycle errors.
	ErrorNotLocked      = errors.New("account is not locked")
	ErrorInvalidSection = errors.New("invalid profile section")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
