// Package domain contains the session entities and authentication errors.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is the server-side authentication state bound to one user. Only
// the SHA-256 digest of the opaque token is stored; the token itself exists
// solely in the client's hands.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	Remember  bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
