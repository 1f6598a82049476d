// Package common defines shared constants and sentinel errors used across
// the Palmers backend layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Credential errors.
	ErrHashing      = errors.New("password hashing failed")
	ErrWeakPassword = errors.New("password does not meet strength policy")

	// Token errors. Both collapse to "unauthenticated" at the HTTP boundary,
	// but remain distinct for callers that need to tell them apart.
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Store-level rejection during session resolution.
	ErrUserNotFoundOrInactive = errors.New("user not found or inactive")

	// Login throttling.
	ErrAccountLocked = errors.New("account temporarily locked")
)
