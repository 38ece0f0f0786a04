package application

import (
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
	orgErrors "github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

type TeamInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type TeamUpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// TeamDetails bundles a team with its roster and budgets for the detail view.
type TeamDetails struct {
	domain.Team
	Members []domain.TeamMemberInfo `json:"members"`
	Budgets []domain.Budget         `json:"budgets"`
}

type TeamWithMembers struct {
	domain.Team
	Members []domain.TeamMemberInfo `json:"members"`
}

type TeamService struct {
	repo        domain.TeamRepository
	memberships domain.MembershipRepository
	budgets     domain.BudgetRepository
	authService AuthorizationServiceInterface
}

func NewTeamService(
	repo domain.TeamRepository,
	memberships domain.MembershipRepository,
	budgets domain.BudgetRepository,
	authService AuthorizationServiceInterface,
) *TeamService {
	return &TeamService{
		repo:        repo,
		memberships: memberships,
		budgets:     budgets,
		authService: authService,
	}
}

// CreateTeam creates a team in the caller's organization and enrolls the
// caller as its first team admin. Both writes share one transaction.
func (s *TeamService) CreateTeam(userID string, input TeamInput) (*TeamWithMembers, error) {
	membership, err := s.authService.GetUserOrgMembership(userID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, orgErrors.NewPermissionError("You must be an organization admin to create teams")
	}

	team := &domain.Team{
		OrgID:       membership.OrgID,
		Name:        input.Name,
		Description: input.Description,
	}
	if err := team.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTransaction()
	if err != nil {
		return nil, err
	}
	defer safeRollback(tx)

	if err := s.repo.SaveWithTransaction(team, tx); err != nil {
		return nil, err
	}
	member := &domain.TeamMember{
		TeamID:   team.ID,
		UserID:   userID,
		TeamRole: domain.RoleAdmin,
	}
	if err := s.memberships.SaveTeamMemberWithTransaction(member, tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	members, err := s.memberships.ListTeamMembers(team.ID)
	if err != nil {
		return nil, err
	}
	return &TeamWithMembers{Team: *team, Members: members}, nil
}

// GetAllTeams lists every team in the caller's organization with rosters.
// Only organization admins may call it.
func (s *TeamService) GetAllTeams(userID string) ([]TeamWithMembers, error) {
	membership, err := s.authService.GetUserOrgMembership(userID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, orgErrors.NewPermissionError("You must be an organization admin to list teams")
	}

	teams, err := s.repo.FindByOrg(membership.OrgID)
	if err != nil {
		return nil, err
	}
	result := make([]TeamWithMembers, 0, len(teams))
	for _, team := range teams {
		members, err := s.memberships.ListTeamMembers(team.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, TeamWithMembers{Team: team, Members: members})
	}
	return result, nil
}

func (s *TeamService) GetTeamDetails(userID string, teamID int64) (*TeamDetails, error) {
	team, err := s.loadTeam(teamID)
	if err != nil {
		return nil, err
	}
	ok, err := s.authService.HasTeamAccess(userID, team)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, orgErrors.NewPermissionError("You do not have access to this team")
	}

	members, err := s.memberships.ListTeamMembers(teamID)
	if err != nil {
		return nil, err
	}
	budgets, err := s.budgets.FindByTeam(teamID)
	if err != nil {
		return nil, err
	}
	return &TeamDetails{Team: *team, Members: members, Budgets: budgets}, nil
}

func (s *TeamService) UpdateTeam(userID string, teamID int64, input TeamUpdateInput) (*domain.Team, error) {
	team, err := s.loadTeam(teamID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManageTeams(userID, team); err != nil {
		return nil, err
	}

	if input.Name != nil {
		team.Name = *input.Name
	}
	if input.Description != nil {
		team.Description = *input.Description
	}
	if err := team.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(team); err != nil {
		return nil, err
	}
	return team, nil
}

// DeleteTeam removes the team and its memberships in one transaction.
func (s *TeamService) DeleteTeam(userID string, teamID int64) error {
	team, err := s.loadTeam(teamID)
	if err != nil {
		return err
	}
	if err := s.requireManageTeams(userID, team); err != nil {
		return err
	}

	tx, err := s.repo.BeginTransaction()
	if err != nil {
		return err
	}
	defer safeRollback(tx)

	if err := s.memberships.DeleteTeamMembersWithTransaction(teamID, tx); err != nil {
		return err
	}
	if err := s.repo.DeleteWithTransaction(teamID, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *TeamService) loadTeam(teamID int64) (*domain.Team, error) {
	team, err := s.repo.FindByID(teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, orgErrors.NewNotFoundError("Team not found")
	}
	return team, nil
}

func (s *TeamService) requireManageTeams(userID string, team *domain.Team) error {
	ok, err := s.authService.CanManageTeams(userID, team)
	if err != nil {
		return err
	}
	if !ok {
		return orgErrors.NewPermissionError("You must be a team admin or organization admin to manage this team")
	}
	return nil
}
