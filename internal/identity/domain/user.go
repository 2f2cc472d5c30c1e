package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the system. PasswordHash holds the Argon2id
// digest of the password; the plaintext is never stored. Email is optional;
// the empty string means no email is set. Group is populated by lookups that
// join the group relation and is nil for groupless users.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	GroupID      *uuid.UUID
	Group        *Group
	CreatedAt    time.Time
}

// Role resolves the authorization role of this user's group.
// Users without a group have RoleNone.
func (u *User) Role() Role {
	if u == nil || u.Group == nil {
		return RoleNone
	}
	return u.Group.Role()
}

// HasPermission reports whether this user's role grants the permission.
// It never fails; missing group means no grants.
func (u *User) HasPermission(permission Permission) bool {
	return u.Role().HasPermission(permission)
}

// GroupName returns the name of the user's group, or the empty string.
func (u *User) GroupName() string {
	if u == nil || u.Group == nil {
		return ""
	}
	return u.Group.Name
}

// PublicUser is the projection of a user safe to return to callers.
// It never carries the password hash.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	IsActive  bool      `json:"is_active"`
	GroupName string    `json:"group_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Public returns the public projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		IsActive:  u.IsActive,
		GroupName: u.GroupName(),
		CreatedAt: u.CreatedAt,
	}
}
