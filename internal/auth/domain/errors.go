package domain

import (
	"github.com/allisson/identity/internal/errors"
)

// Authentication domain errors.
var (
	// ErrInvalidCredentials indicates the username and password do not match
	// any account. The message never reveals which part was wrong.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid username or password")

	// ErrAccountDisabled indicates the credentials matched an account that
	// is deactivated. Distinguished from ErrInvalidCredentials so callers
	// can present different messaging.
	ErrAccountDisabled = errors.Wrap(errors.ErrUnauthorized, "account is disabled")

	// ErrSessionNotFound indicates no session matches the supplied token.
	ErrSessionNotFound = errors.Wrap(errors.ErrNotFound, "session not found")
)
