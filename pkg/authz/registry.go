package authz

import (
	"fmt"
	"sort"
)

// Registry holds the immutable authorization tables: the role to capability
// map and the team table. It is built once at startup, validated, and then
// shared read-only across any number of goroutines.
//
// Construct it explicitly and pass it to the code that needs guards; there is
// no package-level default instance.
type Registry struct {
	capMap map[Role]map[Capability]struct{}
	// capList keeps the per-role capabilities in taxonomy order for stable
	// output from CapabilitiesFor.
	capList map[Role][]Capability
	teams   map[Team]TeamDefinition
}

// NewRegistry builds a Registry from a role to capability map and a team
// table, and verifies their internal consistency:
//
//   - the capability map has an entry for every role (it may be empty),
//   - every granted capability exists in the taxonomy,
//   - team names are unique, ranks are unique and positive, scopes are valid,
//     and every team permission string is non-empty.
//
// A violation is a programming error in the static tables, so the caller
// (process startup) is expected to treat an error as fatal.
func NewRegistry(capMap map[Role][]Capability, teams []TeamDefinition) (*Registry, error) {
	r := &Registry{
		capMap:  make(map[Role]map[Capability]struct{}, len(capMap)),
		capList: make(map[Role][]Capability, len(capMap)),
		teams:   make(map[Team]TeamDefinition, len(teams)),
	}

	for _, role := range AllRoles() {
		caps, ok := capMap[role]
		if !ok {
			return nil, fmt.Errorf("capability map has no entry for role %q", role)
		}
		set := make(map[Capability]struct{}, len(caps))
		list := make([]Capability, 0, len(caps))
		for _, c := range caps {
			if !IsKnownCapability(c) {
				return nil, fmt.Errorf("role %q grants unknown capability %q", role, c)
			}
			if _, dup := set[c]; dup {
				continue
			}
			set[c] = struct{}{}
		}
		// Re-list in taxonomy order so CapabilitiesFor output is stable.
		for _, c := range capabilityOrder {
			if _, ok := set[c]; ok {
				list = append(list, c)
			}
		}
		r.capMap[role] = set
		r.capList[role] = list
	}
	for role := range capMap {
		if !IsValidRole(role) {
			return nil, fmt.Errorf("capability map has entry for unknown role %q", role)
		}
	}

	ranks := make(map[int]Team, len(teams))
	for _, def := range teams {
		if def.Name == "" {
			return nil, fmt.Errorf("team definition with empty name")
		}
		if _, dup := r.teams[def.Name]; dup {
			return nil, fmt.Errorf("duplicate team %q", def.Name)
		}
		if def.Rank <= 0 {
			return nil, fmt.Errorf("team %q has non-positive rank %d", def.Name, def.Rank)
		}
		if prev, dup := ranks[def.Rank]; dup {
			return nil, fmt.Errorf("teams %q and %q share rank %d", prev, def.Name, def.Rank)
		}
		if def.Scope != TeamScopeAll && def.Scope != TeamScopeSpecific {
			return nil, fmt.Errorf("team %q has invalid scope %q", def.Name, def.Scope)
		}
		for _, p := range def.Permissions {
			if p == "" {
				return nil, fmt.Errorf("team %q grants empty permission", def.Name)
			}
		}
		ranks[def.Rank] = def.Name
		r.teams[def.Name] = def
	}

	return r, nil
}

// DefaultRegistry builds a Registry from the built-in tables.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(DefaultCapabilityMap(), DefaultTeams())
}

// MustRegistry is DefaultRegistry for process startup: the built-in tables
// are compile-time constants, so a failure means the shipped binary is
// internally inconsistent and the process must not come up.
func MustRegistry() *Registry {
	r, err := DefaultRegistry()
	if err != nil {
		panic(fmt.Sprintf("authz: invalid built-in tables: %v", err))
	}
	return r
}

// CapabilitiesFor returns the capabilities granted to a role, in taxonomy
// order. The slice is a copy; mutating it does not affect the registry. An
// unknown role yields an empty, non-nil slice.
func (r *Registry) CapabilitiesFor(role Role) []Capability {
	list := r.capList[role]
	out := make([]Capability, len(list))
	copy(out, list)
	return out
}

// RoleHasCapability reports whether the role's capability set contains c.
// Unknown roles and unknown capabilities both answer false.
func (r *Registry) RoleHasCapability(role Role, c Capability) bool {
	set, ok := r.capMap[role]
	if !ok {
		return false
	}
	_, ok = set[c]
	return ok
}

// Teams returns the team table ordered from most to least privileged.
func (r *Registry) Teams() []TeamDefinition {
	out := make([]TeamDefinition, 0, len(r.teams))
	for _, def := range r.teams {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank > out[j].Rank })
	return out
}

// TeamDefinitionFor returns the full definition of a team. The second return
// value is false for unknown teams.
func (r *Registry) TeamDefinitionFor(t Team) (TeamDefinition, bool) {
	def, ok := r.teams[t]
	return def, ok
}

// TeamRank returns the rank of a team on the team scale, or 0 for unknown
// teams.
func (r *Registry) TeamRank(t Team) int {
	return r.teams[t].Rank
}

// IsTeamAtLeast reports whether team a ranks at or above team b. Unknown
// teams never satisfy the comparison.
func (r *Registry) IsTeamAtLeast(a, b Team) bool {
	da, oka := r.teams[a]
	db, okb := r.teams[b]
	return oka && okb && da.Rank >= db.Rank
}

// ScopeOf returns the entity scope of a team. The second return value is
// false for unknown teams.
func (r *Registry) ScopeOf(t Team) (TeamScope, bool) {
	def, ok := r.teams[t]
	if !ok {
		return "", false
	}
	return def.Scope, true
}

// TeamHasPermission reports whether the team's permission set contains p.
// This check is scope-agnostic: it answers "does the team carry this
// permission at all". Callers enforcing a target group must use TeamGrants.
func (r *Registry) TeamHasPermission(t Team, p TeamPermission) bool {
	def, ok := r.teams[t]
	if !ok {
		return false
	}
	for _, granted := range def.Permissions {
		if granted == p || granted == TeamPermHubFull {
			return true
		}
	}
	return false
}

// TeamGrants reports whether a team assignment grants p against a target
// group, honoring the team's scope: an all-scoped team grants its
// permissions in every group, while a specific-scoped team grants them only
// in the group the assignment is bound to. boundGroupID is the group the
// assignment was made for and may be empty for all-scoped teams.
func (r *Registry) TeamGrants(t Team, boundGroupID, targetGroupID string, p TeamPermission) bool {
	def, ok := r.teams[t]
	if !ok {
		return false
	}
	if !r.TeamHasPermission(t, p) {
		return false
	}
	if def.Scope == TeamScopeSpecific {
		return boundGroupID != "" && boundGroupID == targetGroupID
	}
	return true
}
