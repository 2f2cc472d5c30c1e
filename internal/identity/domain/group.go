package domain

import (
	"time"

	"github.com/google/uuid"
)

// Group is a named bucket granting a fixed permission set to its members.
// The permission set is derived from the group name via RoleForGroup, not
// stored as data.
type Group struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Role resolves the authorization role of this group.
func (g *Group) Role() Role {
	if g == nil {
		return RoleNone
	}
	return RoleForGroup(g.Name)
}
