package authz

// Guards are the public predicate layer: pure booleans with no side effects.
// Every "no" answer — absent membership, unknown capability, insufficient
// rank — is uniformly false, never an error. Distinguishing why a check
// failed is an observability concern that belongs to the calling layer.

// CanDo reports whether the user may perform the capability in the given
// group. An absent membership short-circuits to false before any capability
// lookup.
func (r *Registry) CanDo(user *UserWithAccess, groupID string, c Capability) bool {
	role, ok := RoleForGroup(user, groupID)
	if !ok {
		return false
	}
	return r.RoleHasCapability(role, c)
}

// HasMinRole reports whether the user's role in the group ranks at or above
// minRole. No membership means false.
func (r *Registry) HasMinRole(user *UserWithAccess, groupID string, minRole Role) bool {
	role, ok := RoleForGroup(user, groupID)
	if !ok {
		return false
	}
	return IsRoleAtLeast(role, minRole)
}

// IsAdminOrAbove reports whether the user is at least an Admin in the group.
func (r *Registry) IsAdminOrAbove(user *UserWithAccess, groupID string) bool {
	return r.HasMinRole(user, groupID, RoleAdmin)
}
