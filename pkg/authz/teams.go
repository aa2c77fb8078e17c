package authz

// Team is an organization-wide classification, independent of the per-group
// role a user holds. Teams carry their own rank scale, their own permission
// vocabulary and an entity scope.
type Team string

const (
	TeamOwner     Team = "owner"
	TeamExecutive Team = "executive"
	TeamMarsha    Team = "marsha-team"
	TeamLegacy    Team = "legacy"
	TeamTalent    Team = "talent"
	TeamMomentum  Team = "momentum"
	TeamSquad     Team = "squad"
)

// TeamScope states whether a team's permissions apply across every group or
// only within the single group the team assignment is bound to. Scope is a
// property of organizational design baked into the table, never of the
// acting user.
type TeamScope string

const (
	TeamScopeAll      TeamScope = "all"
	TeamScopeSpecific TeamScope = "specific"
)

// TeamPermission is a permission string from the team vocabulary. It is a
// distinct type from Capability on purpose: the two axes are separate
// namespaces and must never be conflated without an explicit decision about
// which axis governs an action.
type TeamPermission string

const (
	TeamPermHubFull           TeamPermission = "hub:full"
	TeamPermMembersManage     TeamPermission = "members:manage"
	TeamPermProjectsManage    TeamPermission = "projects:manage"
	TeamPermTasksManage       TeamPermission = "tasks:manage"
	TeamPermMeetingsManage    TeamPermission = "meetings:manage"
	TeamPermRecruitmentManage TeamPermission = "recruitment:manage"
	TeamPermTrainingManage    TeamPermission = "training:manage"
	TeamPermContentEdit       TeamPermission = "content:edit"
	TeamPermReportsView       TeamPermission = "reports:view"
	TeamPermSettingsManage    TeamPermission = "settings:manage"
)

// TeamDefinition describes one team in the registry: its rank on the team
// scale (distinct from role ranks), its scope and its permission set.
type TeamDefinition struct {
	Name        Team
	DisplayName string
	Rank        int
	Scope       TeamScope
	Permissions []TeamPermission
}

// DefaultTeams returns the built-in team table, ordered from most to least
// privileged.
func DefaultTeams() []TeamDefinition {
	return []TeamDefinition{
		{
			Name:        TeamOwner,
			DisplayName: "Owner",
			Rank:        7,
			Scope:       TeamScopeAll,
			Permissions: []TeamPermission{TeamPermHubFull},
		},
		{
			Name:        TeamExecutive,
			DisplayName: "Executive",
			Rank:        6,
			Scope:       TeamScopeAll,
			Permissions: []TeamPermission{
				TeamPermMembersManage,
				TeamPermProjectsManage,
				TeamPermTasksManage,
				TeamPermMeetingsManage,
				TeamPermReportsView,
				TeamPermSettingsManage,
			},
		},
		{
			Name:        TeamMarsha,
			DisplayName: "Marsha Team",
			Rank:        5,
			Scope:       TeamScopeAll,
			Permissions: []TeamPermission{
				TeamPermMembersManage,
				TeamPermRecruitmentManage,
				TeamPermTrainingManage,
				TeamPermReportsView,
			},
		},
		{
			Name:        TeamLegacy,
			DisplayName: "Legacy",
			Rank:        4,
			Scope:       TeamScopeSpecific,
			Permissions: []TeamPermission{
				TeamPermContentEdit,
				TeamPermTrainingManage,
			},
		},
		{
			Name:        TeamTalent,
			DisplayName: "Talent",
			Rank:        3,
			Scope:       TeamScopeAll,
			Permissions: []TeamPermission{
				TeamPermRecruitmentManage,
				TeamPermReportsView,
			},
		},
		{
			Name:        TeamMomentum,
			DisplayName: "Momentum",
			Rank:        2,
			Scope:       TeamScopeSpecific,
			Permissions: []TeamPermission{
				TeamPermProjectsManage,
				TeamPermTasksManage,
			},
		},
		{
			Name:        TeamSquad,
			DisplayName: "Squad",
			Rank:        1,
			Scope:       TeamScopeSpecific,
			Permissions: []TeamPermission{TeamPermTasksManage},
		},
	}
}

// ParseTeam converts a raw string into a Team. The second return value is
// false if the string does not name a known team.
func ParseTeam(s string) (Team, bool) {
	switch t := Team(s); t {
	case TeamOwner, TeamExecutive, TeamMarsha, TeamLegacy, TeamTalent, TeamMomentum, TeamSquad:
		return t, true
	}
	return "", false
}
