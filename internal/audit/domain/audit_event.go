// Package domain contains the audit trail entities.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnonymousActor is recorded when no authenticated user is attached to an event.
const AnonymousActor = "anonymous"

// Action labels. Failed attempts carry their own label so the trail can be
// filtered without parsing metadata.
const (
	ActionLogin                = "login"
	ActionLoginFailed          = "login_failed"
	ActionLogout               = "logout"
	ActionRegister             = "register"
	ActionRegisterFailed       = "register_failed"
	ActionUserCreate           = "user_create"
	ActionUserCreateFailed     = "user_create_failed"
	ActionUserUpdate           = "user_update"
	ActionUserUpdateFailed     = "user_update_failed"
	ActionUserDelete           = "user_delete"
	ActionUserDeleteFailed     = "user_delete_failed"
	ActionPasswordChange       = "password_change"
	ActionPasswordChangeFailed = "password_change_failed"
	ActionGroupChange          = "group_change"
	ActionGroupChangeFailed    = "group_change_failed"
	ActionUserViewed           = "user_viewed"
	ActionUserListViewed       = "user_list_viewed"
	ActionSeedData             = "seed_data"
)

// AuditEvent is a single append-only trail entry. Metadata holds small
// action-specific details such as the target username.
type AuditEvent struct {
	ID        uuid.UUID         `json:"id"`
	RequestID string            `json:"request_id,omitempty"`
	Actor     string            `json:"actor"`
	Action    string            `json:"action"`
	IP        string            `json:"ip,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ListFilter narrows audit event listings.
type ListFilter struct {
	Actor  string
	Action string
	Since  time.Time
	Until  time.Time
	Offset int
	Limit  int
}
