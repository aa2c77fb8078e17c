package authz

// Capability is an atomic permission string of the form "domain:action".
// Capabilities are data, not behavior: the taxonomy is closed and defined at
// compile time. Adding a capability is a code change, not a migration.
type Capability string

// Domain groups capabilities by the area of the product they govern.
type Domain string

const (
	DomainUsers       Domain = "users"
	DomainGroups      Domain = "groups"
	DomainProjects    Domain = "projects"
	DomainTasks       Domain = "tasks"
	DomainMeetings    Domain = "meetings"
	DomainAbsences    Domain = "absences"
	DomainRecruitment Domain = "recruitment"
	DomainTraining    Domain = "training"
	DomainStats       Domain = "stats"
	DomainSettings    Domain = "settings"
	DomainAdmin       Domain = "admin"
)

const (
	// Users
	CapUsersView   Capability = "users:view"
	CapUsersInvite Capability = "users:invite"
	CapUsersEdit   Capability = "users:edit"
	CapUsersRemove Capability = "users:remove"

	// Groups
	CapGroupsView          Capability = "groups:view"
	CapGroupsEdit          Capability = "groups:edit"
	CapGroupsManageMembers Capability = "groups:manage-members"

	// Projects
	CapProjectsView   Capability = "projects:view"
	CapProjectsCreate Capability = "projects:create"
	CapProjectsEdit   Capability = "projects:edit"
	CapProjectsDelete Capability = "projects:delete"

	// Tasks
	CapTasksView   Capability = "tasks:view"
	CapTasksCreate Capability = "tasks:create"
	CapTasksAssign Capability = "tasks:assign"
	CapTasksEdit   Capability = "tasks:edit"
	CapTasksDelete Capability = "tasks:delete"

	// Meetings
	CapMeetingsView     Capability = "meetings:view"
	CapMeetingsSchedule Capability = "meetings:schedule"
	CapMeetingsEdit     Capability = "meetings:edit"
	CapMeetingsCancel   Capability = "meetings:cancel"

	// Absences
	CapAbsencesView    Capability = "absences:view"
	CapAbsencesRequest Capability = "absences:request"
	CapAbsencesApprove Capability = "absences:approve"

	// Recruitment
	CapRecruitmentView   Capability = "recruitment:view"
	CapRecruitmentManage Capability = "recruitment:manage"

	// Training
	CapTrainingView   Capability = "training:view"
	CapTrainingAssign Capability = "training:assign"
	CapTrainingManage Capability = "training:manage"

	// Stats
	CapStatsView   Capability = "stats:view"
	CapStatsExport Capability = "stats:export"

	// Settings
	CapSettingsView Capability = "settings:view"
	CapSettingsEdit Capability = "settings:edit"

	// Admin
	CapAdminBilling     Capability = "admin:billing"
	CapAdminAudit       Capability = "admin:audit"
	CapAdminDeleteGroup Capability = "admin:delete-group"
)

// capabilityDomains maps every defined capability to its single domain.
// This table is the source of truth for the taxonomy: AllCapabilities,
// IsKnownCapability and CapabilitiesByDomain all derive from it.
var capabilityDomains = map[Capability]Domain{
	CapUsersView:   DomainUsers,
	CapUsersInvite: DomainUsers,
	CapUsersEdit:   DomainUsers,
	CapUsersRemove: DomainUsers,

	CapGroupsView:          DomainGroups,
	CapGroupsEdit:          DomainGroups,
	CapGroupsManageMembers: DomainGroups,

	CapProjectsView:   DomainProjects,
	CapProjectsCreate: DomainProjects,
	CapProjectsEdit:   DomainProjects,
	CapProjectsDelete: DomainProjects,

	CapTasksView:   DomainTasks,
	CapTasksCreate: DomainTasks,
	CapTasksAssign: DomainTasks,
	CapTasksEdit:   DomainTasks,
	CapTasksDelete: DomainTasks,

	CapMeetingsView:     DomainMeetings,
	CapMeetingsSchedule: DomainMeetings,
	CapMeetingsEdit:     DomainMeetings,
	CapMeetingsCancel:   DomainMeetings,

	CapAbsencesView:    DomainAbsences,
	CapAbsencesRequest: DomainAbsences,
	CapAbsencesApprove: DomainAbsences,

	CapRecruitmentView:   DomainRecruitment,
	CapRecruitmentManage: DomainRecruitment,

	CapTrainingView:   DomainTraining,
	CapTrainingAssign: DomainTraining,
	CapTrainingManage: DomainTraining,

	CapStatsView:   DomainStats,
	CapStatsExport: DomainStats,

	CapSettingsView: DomainSettings,
	CapSettingsEdit: DomainSettings,

	CapAdminBilling:     DomainAdmin,
	CapAdminAudit:       DomainAdmin,
	CapAdminDeleteGroup: DomainAdmin,
}

// capabilityOrder fixes a stable listing order for documentation and API
// output: taxonomy order, not lexicographic.
var capabilityOrder = []Capability{
	CapUsersView, CapUsersInvite, CapUsersEdit, CapUsersRemove,
	CapGroupsView, CapGroupsEdit, CapGroupsManageMembers,
	CapProjectsView, CapProjectsCreate, CapProjectsEdit, CapProjectsDelete,
	CapTasksView, CapTasksCreate, CapTasksAssign, CapTasksEdit, CapTasksDelete,
	CapMeetingsView, CapMeetingsSchedule, CapMeetingsEdit, CapMeetingsCancel,
	CapAbsencesView, CapAbsencesRequest, CapAbsencesApprove,
	CapRecruitmentView, CapRecruitmentManage,
	CapTrainingView, CapTrainingAssign, CapTrainingManage,
	CapStatsView, CapStatsExport,
	CapSettingsView, CapSettingsEdit,
	CapAdminBilling, CapAdminAudit, CapAdminDeleteGroup,
}

// AllCapabilities returns every capability in the taxonomy in stable order.
func AllCapabilities() []Capability {
	out := make([]Capability, len(capabilityOrder))
	copy(out, capabilityOrder)
	return out
}

// IsKnownCapability reports whether c is part of the taxonomy. Use it to
// reject capability strings arriving from external callers.
func IsKnownCapability(c Capability) bool {
	_, ok := capabilityDomains[c]
	return ok
}

// DomainOf returns the domain a capability belongs to. The second return
// value is false for unknown capabilities.
func DomainOf(c Capability) (Domain, bool) {
	d, ok := capabilityDomains[c]
	return d, ok
}

// AllDomains returns every capability domain in stable order.
func AllDomains() []Domain {
	return []Domain{
		DomainUsers, DomainGroups, DomainProjects, DomainTasks,
		DomainMeetings, DomainAbsences, DomainRecruitment, DomainTraining,
		DomainStats, DomainSettings, DomainAdmin,
	}
}

// CapabilitiesByDomain returns the taxonomy grouped by domain, preserving
// the stable capability order within each group.
func CapabilitiesByDomain() map[Domain][]Capability {
	out := make(map[Domain][]Capability, len(AllDomains()))
	for _, c := range capabilityOrder {
		d := capabilityDomains[c]
		out[d] = append(out[d], c)
	}
	return out
}
