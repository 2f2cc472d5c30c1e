package domain

// Role is the closed set of authorization tiers. Groups map onto roles by
// their reserved name; a group outside the reserved set carries no grants.
type Role int

const (
	// RoleNone is the role of users without a group and of groups outside
	// the reserved set. It grants nothing.
	RoleNone Role = iota

	// RoleUser is the regular member role. It grants nothing.
	RoleUser

	// RoleAdmin grants account creation and editing. It deliberately does
	// NOT grant delete_user; deletion stays reserved to SuperAdmin.
	RoleAdmin

	// RoleSuperAdmin bypasses permission checks entirely.
	RoleSuperAdmin
)

// String returns the role name for logging.
func (r Role) String() string {
	switch r {
	case RoleSuperAdmin:
		return "super_admin"
	case RoleAdmin:
		return "admin"
	case RoleUser:
		return "user"
	default:
		return "none"
	}
}

// adminGrants is the exact permission set of RoleAdmin.
var adminGrants = map[Permission]bool{
	PermissionAddUser:  true,
	PermissionEditUser: true,
}

// RoleForGroup resolves a reserved group name to its role. The match is exact
// and case-sensitive; unknown names resolve to RoleNone.
func RoleForGroup(name string) Role {
	switch name {
	case GroupSuperAdmin:
		return RoleSuperAdmin
	case GroupAdmin:
		return RoleAdmin
	case GroupUser:
		return RoleUser
	default:
		return RoleNone
	}
}

// HasPermission evaluates the (role, permission) pair. It is total: every
// combination has a defined answer and it never fails.
//
//   - RoleSuperAdmin: true for any permission string, recognized or not.
//   - RoleAdmin: true only for add_user and edit_user.
//   - RoleUser, RoleNone: false for everything.
func (r Role) HasPermission(permission Permission) bool {
	switch r {
	case RoleSuperAdmin:
		return true
	case RoleAdmin:
		return adminGrants[permission]
	default:
		return false
	}
}
