package application

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
	orgErrors "github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

func newTeamFixture() (*TeamService, *MockTeamRepository, *MockMembershipRepository) {
	memberships := &MockMembershipRepository{
		TeamMembers: []domain.TeamMember{
			{TeamID: 1, UserID: "team-admin", TeamRole: domain.RoleAdmin},
			{TeamID: 1, UserID: "member-user", TeamRole: domain.RoleMember},
		},
		OrgMembers: []domain.OrgMember{
			{ID: 1, OrgID: 10, UserID: "org-admin", GlobalRole: domain.RoleAdmin},
			{ID: 2, OrgID: 10, UserID: "member-user", GlobalRole: domain.RoleMember},
		},
		MemberInfos: []domain.TeamMemberInfo{
			{TeamMember: domain.TeamMember{TeamID: 1, UserID: "team-admin", TeamRole: domain.RoleAdmin}, UserName: "Ada", UserEmail: "ada@example.com"},
		},
	}
	teams := &MockTeamRepository{
		Teams: []domain.Team{{ID: 1, OrgID: 10, Name: "Engineering"}},
	}
	budgets := &MockBudgetRepository{
		Budgets: []domain.Budget{{ID: 1, TeamID: 1, Year: 2025, Status: domain.BudgetStatusActive}},
	}
	service := NewTeamService(teams, memberships, budgets, NewAuthorizationService(memberships))
	return service, teams, memberships
}

func TestCreateTeam_RequiresOrgAdmin(t *testing.T) {
	service, _, _ := newTeamFixture()

	_, err := service.CreateTeam("member-user", TeamInput{Name: "Marketing"})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsPermissionError(err))
	assert.Equal(t, "You must be an organization admin to create teams", err.Error())
}

func TestCreateTeam_ValidatesBeforeWriting(t *testing.T) {
	service, teams, _ := newTeamFixture()

	_, err := service.CreateTeam("org-admin", TeamInput{Name: ""})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsValidationError(err))
	assert.Len(t, teams.Teams, 1)

	_, err = service.CreateTeam("org-admin", TeamInput{Name: strings.Repeat("x", 256)})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsValidationError(err))
}

func TestGetAllTeams_RequiresOrgAdmin(t *testing.T) {
	service, _, _ := newTeamFixture()

	teams, err := service.GetAllTeams("org-admin")
	assert.NoError(t, err)
	assert.Len(t, teams, 1)
	assert.Equal(t, "Engineering", teams[0].Name)
	assert.Len(t, teams[0].Members, 1)

	_, err = service.GetAllTeams("member-user")
	assert.Error(t, err)
	assert.True(t, orgErrors.IsPermissionError(err))
}

func TestGetTeamDetails(t *testing.T) {
	service, _, _ := newTeamFixture()

	details, err := service.GetTeamDetails("member-user", 1)
	assert.NoError(t, err)
	assert.Equal(t, "Engineering", details.Name)
	assert.Len(t, details.Members, 1)
	assert.Len(t, details.Budgets, 1)

	_, err = service.GetTeamDetails("stranger", 1)
	assert.Error(t, err)
	assert.True(t, orgErrors.IsPermissionError(err))

	_, err = service.GetTeamDetails("member-user", 42)
	assert.Error(t, err)
	assert.True(t, orgErrors.IsNotFoundError(err))
}

func TestUpdateTeam_TeamAdminAllowed(t *testing.T) {
	service, teams, _ := newTeamFixture()

	name := "Platform Engineering"
	team, err := service.UpdateTeam("team-admin", 1, TeamUpdateInput{Name: &name})
	assert.NoError(t, err)
	assert.Equal(t, "Platform Engineering", team.Name)
	assert.Equal(t, "Platform Engineering", teams.Teams[0].Name)
}

func TestUpdateTeam_OrgAdminOverride(t *testing.T) {
	service, _, _ := newTeamFixture()

	// The org admin is not on the team roster at all.
	description := "Owns the build pipeline"
	team, err := service.UpdateTeam("org-admin", 1, TeamUpdateInput{Description: &description})
	assert.NoError(t, err)
	assert.Equal(t, "Owns the build pipeline", team.Description)
}

func TestUpdateTeam_MemberDenied(t *testing.T) {
	service, _, _ := newTeamFixture()

	name := "Hijacked"
	_, err := service.UpdateTeam("member-user", 1, TeamUpdateInput{Name: &name})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsPermissionError(err))
}
