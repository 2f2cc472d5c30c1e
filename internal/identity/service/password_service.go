// Package service provides identity-related services for password hashing.
// Uses Argon2id via allisson/go-pwdhash; verification is constant-time.
package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/identity/internal/errors"
)

// PasswordService hashes and verifies account passwords.
type PasswordService interface {
	HashPassword(plainPassword string) (string, error)
	VerifyPassword(plainPassword, passwordHash string) bool
}

// passwordService implements PasswordService using Argon2id.
type passwordService struct {
	hasher *pwdhash.PasswordHasher
}

// HashPassword hashes a plain text password using Argon2id.
func (p *passwordService) HashPassword(plainPassword string) (string, error) {
	passwordHash, err := p.hasher.Hash([]byte(plainPassword))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return passwordHash, nil
}

// VerifyPassword performs a constant-time comparison between a plain password
// and its stored hash. It never uses string equality on digests.
func (p *passwordService) VerifyPassword(plainPassword, passwordHash string) bool {
	ok, err := p.hasher.Verify([]byte(plainPassword), passwordHash)
	if err != nil {
		return false
	}
	return ok
}

// NewPasswordService creates a PasswordService with the interactive Argon2id
// policy, the balance used for user-facing login paths.
func NewPasswordService() (PasswordService, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	return &passwordService{hasher: hasher}, nil
}
