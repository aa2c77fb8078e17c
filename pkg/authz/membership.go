package authz

import (
	"github.com/google/uuid"
)

// GroupMembership binds a user to one group with exactly one role. A user
// has at most one membership per group; the persistence layer owns that
// invariant and this package treats the list as read-only input.
type GroupMembership struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	Role      Role   `json:"role"`
}

// UserWithAccess is the actor shape the authorization core consumes: identity
// fields, an optional global role, and the user's group memberships. How the
// list was populated is not this package's concern.
type UserWithAccess struct {
	ID               uuid.UUID         `json:"id"`
	Username         string            `json:"username"`
	Email            string            `json:"email,omitempty"`
	GlobalRole       *Role             `json:"global_role,omitempty"`
	GroupMemberships []GroupMembership `json:"group_memberships"`
}

// RoleForGroup returns the user's role in the given group. The second return
// value is false when the user has no membership there. Memberships are
// keyed by group, so the first match is the only match.
func RoleForGroup(user *UserWithAccess, groupID string) (Role, bool) {
	if user == nil {
		return "", false
	}
	for _, m := range user.GroupMemberships {
		if m.GroupID == groupID {
			return m.Role, true
		}
	}
	return "", false
}

// GroupsWithRole returns the memberships whose role ranks at or above
// minRole, preserving the order of the input list.
func GroupsWithRole(user *UserWithAccess, minRole Role) []GroupMembership {
	if user == nil {
		return nil
	}
	var out []GroupMembership
	for _, m := range user.GroupMemberships {
		if IsRoleAtLeast(m.Role, minRole) {
			out = append(out, m)
		}
	}
	return out
}

// IsMemberOfGroup reports whether the user holds any membership in the group.
func IsMemberOfGroup(user *UserWithAccess, groupID string) bool {
	_, ok := RoleForGroup(user, groupID)
	return ok
}

// IsOwnerOfAny reports whether the user holds the top-ranked role in any
// group. This is the one tenant-agnostic guard, used for cross-group
// administrative surfaces.
func IsOwnerOfAny(user *UserWithAccess) bool {
	if user == nil {
		return false
	}
	for _, m := range user.GroupMemberships {
		if m.Role == RoleOwner {
			return true
		}
	}
	return false
}
