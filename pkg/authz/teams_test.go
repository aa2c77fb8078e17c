package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamRanks(t *testing.T) {
	reg := MustRegistry()
	tests := []struct {
		team Team
		rank int
	}{
		{TeamOwner, 7},
		{TeamExecutive, 6},
		{TeamMarsha, 5},
		{TeamLegacy, 4},
		{TeamTalent, 3},
		{TeamMomentum, 2},
		{TeamSquad, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.team), func(t *testing.T) {
			assert.Equal(t, tt.rank, reg.TeamRank(tt.team))
		})
	}
	assert.Zero(t, reg.TeamRank(Team("interns")))
}

func TestIsTeamAtLeast(t *testing.T) {
	reg := MustRegistry()
	assert.True(t, reg.IsTeamAtLeast(TeamOwner, TeamSquad))
	assert.True(t, reg.IsTeamAtLeast(TeamTalent, TeamTalent))
	assert.False(t, reg.IsTeamAtLeast(TeamSquad, TeamMomentum))
	assert.False(t, reg.IsTeamAtLeast(Team("interns"), TeamSquad))
	assert.False(t, reg.IsTeamAtLeast(TeamOwner, Team("interns")))
}

func TestScopeOf(t *testing.T) {
	reg := MustRegistry()
	tests := []struct {
		team  Team
		scope TeamScope
	}{
		{TeamOwner, TeamScopeAll},
		{TeamExecutive, TeamScopeAll},
		{TeamMarsha, TeamScopeAll},
		{TeamLegacy, TeamScopeSpecific},
		{TeamTalent, TeamScopeAll},
		{TeamMomentum, TeamScopeSpecific},
		{TeamSquad, TeamScopeSpecific},
	}
	for _, tt := range tests {
		t.Run(string(tt.team), func(t *testing.T) {
			scope, ok := reg.ScopeOf(tt.team)
			require.True(t, ok)
			assert.Equal(t, tt.scope, scope)
		})
	}

	_, ok := reg.ScopeOf(Team("interns"))
	assert.False(t, ok)
}

func TestTeamHasPermission(t *testing.T) {
	reg := MustRegistry()

	assert.True(t, reg.TeamHasPermission(TeamSquad, TeamPermTasksManage))
	assert.False(t, reg.TeamHasPermission(TeamSquad, TeamPermMembersManage))
	assert.True(t, reg.TeamHasPermission(TeamTalent, TeamPermRecruitmentManage))
	assert.False(t, reg.TeamHasPermission(Team("interns"), TeamPermTasksManage))

	// hub:full is the wildcard grant.
	assert.True(t, reg.TeamHasPermission(TeamOwner, TeamPermSettingsManage))
	assert.True(t, reg.TeamHasPermission(TeamOwner, TeamPermTasksManage))
}

func TestTeamGrantsHonorsScope(t *testing.T) {
	reg := MustRegistry()

	// Squad is specific-scoped: its permissions stop at the bound group.
	assert.True(t, reg.TeamGrants(TeamSquad, "g1", "g1", TeamPermTasksManage))
	assert.False(t, reg.TeamGrants(TeamSquad, "g1", "g2", TeamPermTasksManage))
	assert.False(t, reg.TeamGrants(TeamSquad, "", "g2", TeamPermTasksManage))

	// Talent is all-scoped: the same check succeeds against every group.
	assert.True(t, reg.TeamGrants(TeamTalent, "", "g1", TeamPermRecruitmentManage))
	assert.True(t, reg.TeamGrants(TeamTalent, "", "g2", TeamPermRecruitmentManage))

	// Scope never rescues a permission the team does not carry.
	assert.False(t, reg.TeamGrants(TeamTalent, "", "g1", TeamPermTasksManage))
}

func TestParseTeam(t *testing.T) {
	tests := []struct {
		in   string
		want Team
		ok   bool
	}{
		{"owner", TeamOwner, true},
		{"marsha-team", TeamMarsha, true},
		{"squad", TeamSquad, true},
		{"Squad", "", false},
		{"interns", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTeam(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTeamsOrderedByRank(t *testing.T) {
	reg := MustRegistry()
	teams := reg.Teams()
	require.Len(t, teams, 7)
	for i := 1; i < len(teams); i++ {
		assert.Greater(t, teams[i-1].Rank, teams[i].Rank)
	}
	assert.Equal(t, TeamOwner, teams[0].Name)
	assert.Equal(t, TeamSquad, teams[len(teams)-1].Name)
}

func TestTeamVocabularyIsSeparateFromCapabilities(t *testing.T) {
	// "tasks:manage" is a team permission, not a capability; the role axis
	// must not resolve it.
	reg := MustRegistry()
	assert.False(t, reg.RoleHasCapability(RoleOwner, Capability(TeamPermTasksManage)))
	assert.False(t, IsKnownCapability(Capability(TeamPermHubFull)))
}
