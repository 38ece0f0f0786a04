package application

import (
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

// AuthorizationService evaluates membership predicates. Every check is a
// single indexed lookup and nothing here mutates state; a missing
// membership simply answers false (or nil), never an error.
type AuthorizationService struct {
	memberships domain.MembershipRepository
}

func NewAuthorizationService(memberships domain.MembershipRepository) *AuthorizationService {
	return &AuthorizationService{memberships: memberships}
}

// HasTeamAccess reports whether the user holds any membership in the team.
func (s *AuthorizationService) HasTeamAccess(userID string, team *domain.Team) (bool, error) {
	return s.memberships.HasTeamMembership(team.ID, userID)
}

// IsTeamAdmin reports whether the user holds an admin membership in the team.
func (s *AuthorizationService) IsTeamAdmin(userID string, team *domain.Team) (bool, error) {
	return s.memberships.HasTeamRole(team.ID, userID, domain.RoleAdmin)
}

// IsOrgAdmin reports whether the user holds an admin membership in the organization.
func (s *AuthorizationService) IsOrgAdmin(userID string, orgID int64) (bool, error) {
	return s.memberships.HasOrgRole(orgID, userID, domain.RoleAdmin)
}

// CanManageTeams is true for team admins and for admins of the team's
// organization. The two predicates are evaluated independently and
// combined with OR; org admins override team membership entirely.
func (s *AuthorizationService) CanManageTeams(userID string, team *domain.Team) (bool, error) {
	teamAdmin, err := s.IsTeamAdmin(userID, team)
	if err != nil {
		return false, err
	}
	if teamAdmin {
		return true, nil
	}
	return s.IsOrgAdmin(userID, team.OrgID)
}

// CanManageBudgets uses the same rule as CanManageTeams.
func (s *AuthorizationService) CanManageBudgets(userID string, team *domain.Team) (bool, error) {
	teamAdmin, err := s.IsTeamAdmin(userID, team)
	if err != nil {
		return false, err
	}
	if teamAdmin {
		return true, nil
	}
	return s.IsOrgAdmin(userID, team.OrgID)
}

// GetUserOrgMembership returns the user's first organization-admin
// membership, or nil when the user administers no organization.
func (s *AuthorizationService) GetUserOrgMembership(userID string) (*domain.OrgMember, error) {
	return s.memberships.FirstOrgMembershipWithRole(userID, domain.RoleAdmin)
}
