package authz

// DefaultCapabilityMap returns the built-in role to capability table.
//
// The map is total: every role has an entry, even if empty. It is mostly
// monotonic with rank (each role is a superset of the role below it), and the
// registry self-check enforces totality and referential integrity against the
// taxonomy, not monotonicity.
func DefaultCapabilityMap() map[Role][]Capability {
	guest := []Capability{
		CapUsersView,
		CapProjectsView,
		CapTasksView,
		CapMeetingsView,
		CapTrainingView,
	}

	collaborator := append(append([]Capability{}, guest...),
		CapGroupsView,
		CapTasksCreate,
		CapTasksEdit,
		CapMeetingsSchedule,
		CapAbsencesView,
		CapAbsencesRequest,
		CapStatsView,
	)

	manager := append(append([]Capability{}, collaborator...),
		CapUsersInvite,
		CapProjectsCreate,
		CapProjectsEdit,
		CapTasksAssign,
		CapTasksDelete,
		CapMeetingsEdit,
		CapMeetingsCancel,
		CapAbsencesApprove,
		CapRecruitmentView,
		CapTrainingAssign,
		CapStatsExport,
	)

	admin := append(append([]Capability{}, manager...),
		CapUsersEdit,
		CapUsersRemove,
		CapGroupsEdit,
		CapGroupsManageMembers,
		CapProjectsDelete,
		CapRecruitmentManage,
		CapTrainingManage,
		CapSettingsView,
		CapSettingsEdit,
		CapAdminAudit,
	)

	owner := append(append([]Capability{}, admin...),
		CapAdminBilling,
		CapAdminDeleteGroup,
	)

	return map[Role][]Capability{
		RoleOwner:        owner,
		RoleAdmin:        admin,
		RoleManager:      manager,
		RoleCollaborator: collaborator,
		RoleGuest:        guest,
	}
}
