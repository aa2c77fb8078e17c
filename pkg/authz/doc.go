// Package authz is the authorization core of the hub: it answers "can this
// actor perform this action, in this group, right now?" for route handlers
// and UI rendering alike.
//
// # Overview
//
// Authorization runs on two parallel, never-unified axes:
//
//  1. Roles: a per-group hierarchy (Owner > Admin > Manager > Collaborator >
//     Guest). A user holds at most one role per group and may hold different
//     roles in different groups. Roles grant capabilities through a static
//     role to capability map.
//  2. Teams: an organization-wide classification (Owner > Executive > Marsha
//     Team > Legacy > Talent > Momentum > Squad) with its own rank scale,
//     its own permission vocabulary and an entity scope (all groups, or only
//     the one group the assignment is bound to).
//
// Capability strings ("tasks:assign") and team permission strings
// ("tasks:manage") are distinct types so a call site cannot mix the axes by
// accident. A handler that needs both must check both, explicitly.
//
// # Registry
//
// All tables are compile-time data. They are assembled into an immutable
// Registry once at startup:
//
//	reg := authz.MustRegistry()
//
// MustRegistry panics when the built-in tables are inconsistent (a role
// without a capability map entry, a capability missing from the taxonomy, a
// duplicate team rank). That is a programming error in the shipped binary,
// so the process must not come up. Tests inject fixture tables through
// NewRegistry instead of mutating globals.
//
// Once built, a Registry is never mutated and is safe for unlimited
// concurrent use. No method does I/O, blocks, or allocates per-call state
// beyond result slices.
//
// # Guards
//
// Guards compose the registry with a caller-supplied actor:
//
//	user, _ := store.GetUserWithAccess(ctx, userID)
//	if !reg.CanDo(user, groupID, authz.CapTasksAssign) {
//		// 403 — the guard does not say why
//	}
//
// Guards fail closed: a missing membership, an unknown capability and an
// insufficient rank all answer false. None of them return errors or log;
// auditing denied requests is the calling layer's job, which has the request
// context to make such logs useful.
//
// # Team scope
//
// TeamHasPermission is deliberately scope-agnostic. When a check targets a
// concrete group, use TeamGrants, which compares the assignment's bound
// group against the target for specific-scoped teams:
//
//	reg.TeamGrants(authz.TeamSquad, boundGroupID, targetGroupID, authz.TeamPermTasksManage)
package authz
