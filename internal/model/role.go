package model

// Role is a per-event role held by a user
type Role string

const (
	RoleVolunteer        Role = "volunteer"
	RoleTeamMember       Role = "team_member"
	RoleEventCoordinator Role = "event_coordinator"
	RoleTEHead           Role = "te_head"
	RoleBEHead           Role = "be_head"
	RoleAdmin            Role = "admin"
)

// Permission is a fine-grained capability checked against the permission table
type Permission string

const (
	// Basic permissions for all authenticated users
	PermViewEvents  Permission = "view_events"
	PermViewTasks   Permission = "view_tasks"
	PermViewArchive Permission = "view_archive"

	// Event coordinator permissions
	PermCreateTasks  Permission = "create_tasks"
	PermEditOwnTasks Permission = "edit_own_tasks"

	// Management permissions (te_head, be_head)
	PermEditEvents    Permission = "edit_events"
	PermDeleteEvents  Permission = "delete_events"
	PermEditAllTasks  Permission = "edit_all_tasks"
	PermDeleteTasks   Permission = "delete_tasks"
	PermManageArchive Permission = "manage_archive"

	// Admin permissions
	PermCreateEvents Permission = "create_events"
	PermManageUsers  Permission = "manage_users"
	PermAssignUsers  Permission = "assign_users"
	PermSystemAdmin  Permission = "system_admin"
)

// roleHierarchy maps roles to seniority levels used by HasRequiredRole.
// It is maintained independently of rolePermissions.
var roleHierarchy = map[Role]int{
	RoleVolunteer:        0,
	RoleTeamMember:       0,
	RoleEventCoordinator: 1,
	RoleTEHead:           2,
	RoleBEHead:           2,
	RoleAdmin:            3,
}

var basePermissions = []Permission{PermViewEvents, PermViewTasks, PermViewArchive}

var managementPermissions = []Permission{
	PermViewEvents, PermViewTasks, PermViewArchive,
	PermCreateTasks, PermEditOwnTasks,
	PermEditEvents, PermDeleteEvents, PermEditAllTasks, PermDeleteTasks, PermManageArchive,
}

// rolePermissions is the authoritative table for fine-grained gating
var rolePermissions = map[Role][]Permission{
	RoleVolunteer:        basePermissions,
	RoleTeamMember:       {PermViewEvents, PermViewTasks, PermViewArchive, PermEditOwnTasks},
	RoleEventCoordinator: {PermViewEvents, PermViewTasks, PermViewArchive, PermCreateTasks, PermEditOwnTasks},
	RoleTEHead:           managementPermissions,
	RoleBEHead:           managementPermissions,
	RoleAdmin: {
		PermViewEvents, PermViewTasks, PermViewArchive,
		PermCreateTasks, PermEditOwnTasks,
		PermEditEvents, PermDeleteEvents, PermEditAllTasks, PermDeleteTasks, PermManageArchive,
		PermCreateEvents, PermManageUsers, PermAssignUsers, PermSystemAdmin,
	},
}

var managementRoles = []Role{RoleTEHead, RoleBEHead, RoleAdmin}

// AllRoles returns every role ordered from least to most senior
func AllRoles() []Role {
	return []Role{RoleVolunteer, RoleTeamMember, RoleEventCoordinator, RoleTEHead, RoleBEHead, RoleAdmin}
}

// Valid reports whether r is one of the six known roles
func (r Role) Valid() bool {
	_, ok := roleHierarchy[r]
	return ok
}

// RoleLevel returns the hierarchy level of a role. Unknown roles are level 0.
func RoleLevel(role Role) int {
	return roleHierarchy[role]
}

// HasRequiredRole reports whether any of roles is at least as senior as required.
// This is a level comparison only; the permission table is not consulted.
func HasRequiredRole(roles []Role, required Role) bool {
	requiredLevel := RoleLevel(required)
	for _, role := range roles {
		if RoleLevel(role) >= requiredLevel {
			return true
		}
	}
	return false
}

// HasPermission reports whether any of roles lists permission in the permission table
func HasPermission(roles []Role, permission Permission) bool {
	for _, role := range roles {
		for _, p := range rolePermissions[role] {
			if p == permission {
				return true
			}
		}
	}
	return false
}

// IsAdmin reports whether roles contains the admin role
func IsAdmin(roles []Role) bool {
	for _, role := range roles {
		if role == RoleAdmin {
			return true
		}
	}
	return false
}

// HasManagementRole reports whether roles contains te_head, be_head or admin
func HasManagementRole(roles []Role) bool {
	for _, role := range roles {
		if IsManagementRole(role) {
			return true
		}
	}
	return false
}

// IsManagementRole reports whether a single role is a management role
func IsManagementRole(role Role) bool {
	for _, m := range managementRoles {
		if role == m {
			return true
		}
	}
	return false
}

// PermissionsFor returns a copy of the permission list for role
func PermissionsFor(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// RoleInfo describes a role for the admin roles listing
type RoleInfo struct {
	Role        Role         `json:"role"`
	Level       int          `json:"level"`
	Permissions []Permission `json:"permissions"`
}

// DescribeRoles returns the hierarchy and permission table side by side
func DescribeRoles() []RoleInfo {
	roles := AllRoles()
	out := make([]RoleInfo, 0, len(roles))
	for _, r := range roles {
		out = append(out, RoleInfo{Role: r, Level: RoleLevel(r), Permissions: PermissionsFor(r)})
	}
	return out
}
