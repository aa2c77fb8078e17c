package authz

// Role represents a per-group role in the global hierarchy.
type Role string

const (
	RoleOwner        Role = "owner"
	RoleAdmin        Role = "admin"
	RoleManager      Role = "manager"
	RoleCollaborator Role = "collaborator"
	RoleGuest        Role = "guest"
)

// roleRanks is the fixed rank table. Higher rank means more privileged.
// The set is closed: roles are compile-time constants, never loaded from data.
var roleRanks = map[Role]int{
	RoleOwner:        5,
	RoleAdmin:        4,
	RoleManager:      3,
	RoleCollaborator: 2,
	RoleGuest:        1,
}

// roleInfo holds presentation metadata for a role.
type roleInfo struct {
	displayName string
	description string
}

var roleDetails = map[Role]roleInfo{
	RoleOwner:        {"Owner", "Full control over the group, including billing and deletion"},
	RoleAdmin:        {"Admin", "Manages members, settings and all group content"},
	RoleManager:      {"Manager", "Runs day-to-day operations: tasks, meetings, approvals"},
	RoleCollaborator: {"Collaborator", "Contributes content and manages own work"},
	RoleGuest:        {"Guest", "Read-only visitor"},
}

// AllRoles returns every role, ordered from most to least privileged.
func AllRoles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleManager, RoleCollaborator, RoleGuest}
}

// RoleRank returns the numeric rank of a role, or 0 for unknown roles.
// Unknown roles therefore never satisfy any rank comparison.
func RoleRank(r Role) int {
	return roleRanks[r]
}

// IsValidRole reports whether r is one of the defined roles.
func IsValidRole(r Role) bool {
	_, ok := roleRanks[r]
	return ok
}

// ParseRole converts a raw string into a Role. The second return value is
// false if the string does not name a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if !IsValidRole(r) {
		return "", false
	}
	return r, true
}

// IsRoleAtLeast reports whether role a ranks at or above role b.
func IsRoleAtLeast(a, b Role) bool {
	return roleRanks[a] >= roleRanks[b] && IsValidRole(a) && IsValidRole(b)
}

// RolesAtOrBelow returns the roles ranked at or below r, ordered from most to
// least privileged. Used for "who can I delegate to" style filters.
func RolesAtOrBelow(r Role) []Role {
	if !IsValidRole(r) {
		return nil
	}
	var out []Role
	for _, candidate := range AllRoles() {
		if roleRanks[candidate] <= roleRanks[r] {
			out = append(out, candidate)
		}
	}
	return out
}

// DisplayName returns the human-readable label for the role.
func (r Role) DisplayName() string {
	return roleDetails[r].displayName
}

// Description returns the human-readable description for the role.
func (r Role) Description() string {
	return roleDetails[r].description
}
