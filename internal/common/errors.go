// Package common defines shared constants and sentinel errors used across
// vaultboard layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Blob boundary errors.
	ErrorBlobTooLarge = errors.New("file exceeds upload size limit")
	ErrorBlobType     = errors.New("file type not allowed")

	// Startup errors.
	ErrSecretMissing = errors.New("encryption secret missing or too weak")
)
