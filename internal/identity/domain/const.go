// Package domain defines the identity domain models: users, groups, roles and
// the permission checks evaluated against them.
package domain

// Permission is a named capability checked by the authorization engine.
// Callers may pass arbitrary strings; unrecognized permissions are denied for
// every role except SuperAdmin.
type Permission string

const (
	// PermissionAddUser allows creating new user accounts.
	PermissionAddUser Permission = "add_user"

	// PermissionEditUser allows updating existing user accounts, including
	// group membership and administrative password changes.
	PermissionEditUser Permission = "edit_user"

	// PermissionDeleteUser allows removing user accounts.
	PermissionDeleteUser Permission = "delete_user"

	// PermissionViewAuditLog allows reading the audit trail. No named grant
	// includes it, so only SuperAdmin holds it.
	PermissionViewAuditLog Permission = "view_audit_log"
)

// Reserved group names that always exist after bootstrap. Role resolution is
// keyed on these exact names (case-sensitive).
const (
	GroupSuperAdmin = "SuperAdmin"
	GroupAdmin      = "Admin"
	GroupUser       = "User"
)
