package application

import (
	"crypto/rand"
	"log"
	"math/big"
	"time"

	"github.com/badoux/checkmail"

	emailService "github.com/quickreceipt/quickreceipt/internal/email"
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
	orgErrors "github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

const (
	invitationTokenCharset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	invitationTokenLength  = 32
)

type LeadInvitationInput struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	TeamID int64  `json:"team_id"`
}

type ExistingUserInvitationInput struct {
	TeamID    int64  `json:"team_id"`
	UserEmail string `json:"user_email"`
	TeamRole  string `json:"team_role"`
}

type InvitationRegistrationInput struct {
	Token    string `json:"invitation_token"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type InvitationService struct {
	repo        domain.InvitationRepository
	teams       domain.TeamRepository
	memberships domain.MembershipRepository
	authService AuthorizationServiceInterface
	users       UserDirectory
	emailSender emailService.EmailSender
	appURL      string
}

func NewInvitationService(
	repo domain.InvitationRepository,
	teams domain.TeamRepository,
	memberships domain.MembershipRepository,
	authService AuthorizationServiceInterface,
	users UserDirectory,
	emailSender emailService.EmailSender,
	appURL string,
) *InvitationService {
	return &InvitationService{
		repo:        repo,
		teams:       teams,
		memberships: memberships,
		authService: authService,
		users:       users,
		emailSender: emailSender,
		appURL:      appURL,
	}
}

// InviteTeamLead invites someone to run a team as its admin. An existing
// account is enrolled directly; anyone else gets an invitation email with
// a registration link that expires in seven days.
func (s *InvitationService) InviteTeamLead(userID string, input LeadInvitationInput) (*domain.Invitation, error) {
	membership, err := s.authService.GetUserOrgMembership(userID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, orgErrors.NewPermissionError("You must be an organization admin to invite team leads")
	}
	team, err := s.loadTeamInOrg(input.TeamID, membership.OrgID)
	if err != nil {
		return nil, err
	}
	if err := checkmail.ValidateFormat(input.Email); err != nil {
		return nil, orgErrors.NewValidationError("Invalid email address")
	}
	if input.Name == "" {
		return nil, orgErrors.NewValidationError("Name is required")
	}

	existingUserID, err := s.users.FindUserIDByEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if existingUserID != "" {
		if err := s.enrollTeamMember(team, existingUserID, domain.RoleAdmin); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return s.issueInvitation(input.Email, input.Name, team, userID, domain.RoleAdmin)
}

// InviteExistingUser adds an account that already belongs to the
// organization to one of its teams. Team admins and org admins may call it.
func (s *InvitationService) InviteExistingUser(userID string, input ExistingUserInvitationInput) error {
	team, err := s.teams.FindByID(input.TeamID)
	if err != nil {
		return err
	}
	if team == nil {
		return orgErrors.NewNotFoundError("Team not found")
	}
	manager, err := s.authService.CanManageTeams(userID, team)
	if err != nil {
		return err
	}
	if !manager {
		return orgErrors.NewPermissionError("You must be a team admin or organization admin to add members")
	}

	role := input.TeamRole
	if role == "" {
		role = domain.RoleMember
	}
	if role != domain.RoleAdmin && role != domain.RoleMember {
		return orgErrors.NewValidationError("Role must be 'admin' or 'member'")
	}

	invitedUserID, err := s.users.FindUserIDByEmail(input.UserEmail)
	if err != nil {
		return err
	}
	if invitedUserID == "" {
		return orgErrors.NewNotFoundError("No account exists for this email")
	}
	inOrg, err := s.memberships.HasOrgMembership(team.OrgID, invitedUserID)
	if err != nil {
		return err
	}
	if !inOrg {
		return orgErrors.NewValidationError("User does not belong to this organization")
	}
	return s.enrollTeamMember(team, invitedUserID, role)
}

// RegisterWithInvitation redeems a pending invitation token: it creates a
// verified account, joins the team's organization as a member, joins the
// team with the invited role and marks the invitation accepted, all in one
// database transaction.
func (s *InvitationService) RegisterWithInvitation(input InvitationRegistrationInput) (string, error) {
	invitation, err := s.repo.FindPendingByToken(input.Token)
	if err != nil {
		return "", err
	}
	if invitation == nil || invitation.IsExpired() || invitation.IsAccepted() {
		return "", orgErrors.NewValidationError("Invalid or expired invitation token")
	}
	if input.Name == "" {
		return "", orgErrors.NewValidationError("Name is required")
	}
	if len(input.Password) < 8 {
		return "", orgErrors.NewValidationError("Password must be at least 8 characters")
	}
	team, err := s.teams.FindByID(invitation.TeamID)
	if err != nil {
		return "", err
	}
	if team == nil {
		return "", orgErrors.NewNotFoundError("Team not found")
	}

	tx, err := s.repo.BeginTransaction()
	if err != nil {
		return "", err
	}
	defer safeRollback(tx)

	newUserID, err := s.users.CreateVerifiedUserWithTransaction(input.Name, invitation.Email, input.Password, tx)
	if err != nil {
		return "", err
	}
	orgMember := &domain.OrgMember{
		OrgID:      team.OrgID,
		UserID:     newUserID,
		GlobalRole: domain.RoleMember,
	}
	if err := s.memberships.SaveOrgMemberWithTransaction(orgMember, tx); err != nil {
		return "", err
	}
	teamMember := &domain.TeamMember{
		TeamID:   team.ID,
		UserID:   newUserID,
		TeamRole: invitation.Role,
	}
	if err := s.memberships.SaveTeamMemberWithTransaction(teamMember, tx); err != nil {
		return "", err
	}
	if err := s.repo.MarkAcceptedWithTransaction(invitation.ID, time.Now(), tx); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return newUserID, nil
}

// RedeemInvitation adapts RegisterWithInvitation for the register endpoint.
func (s *InvitationService) RedeemInvitation(token, name, password string) (string, error) {
	return s.RegisterWithInvitation(InvitationRegistrationInput{
		Token:    token,
		Name:     name,
		Password: password,
	})
}

// SweepExpired deletes invitations past their expiry. Run from the daily
// cron job.
func (s *InvitationService) SweepExpired() {
	deleted, err := s.repo.DeleteExpired(time.Now())
	if err != nil {
		log.Printf("Error sweeping expired invitations: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("Removed %d expired invitations", deleted)
	}
}

func (s *InvitationService) issueInvitation(email, name string, team *domain.Team, invitedBy, role string) (*domain.Invitation, error) {
	token, err := randomToken(invitationTokenLength)
	if err != nil {
		return nil, err
	}
	invitation := &domain.Invitation{
		Email:     email,
		Name:      name,
		TeamID:    team.ID,
		InvitedBy: invitedBy,
		Role:      role,
		Token:     token,
		ExpiresAt: domain.DefaultInvitationExpiry(),
	}
	if err := s.repo.Save(invitation); err != nil {
		return nil, err
	}

	s.emailSender.QueueEmail(email, emailService.TeamInvitationData{
		InviteeName: name,
		TeamName:    team.Name,
		Role:        role,
		ActionURL:   s.appURL + "/register?invitation_token=" + token,
		ExpiresAt:   invitation.ExpiresAt.Format("January 2, 2006"),
	})
	return invitation, nil
}

func (s *InvitationService) enrollTeamMember(team *domain.Team, userID, role string) error {
	alreadyMember, err := s.memberships.HasTeamMembership(team.ID, userID)
	if err != nil {
		return err
	}
	if alreadyMember {
		return orgErrors.NewConflictError("User is already a member of this team")
	}

	inOrg, err := s.memberships.HasOrgMembership(team.OrgID, userID)
	if err != nil {
		return err
	}

	tx, err := s.teams.BeginTransaction()
	if err != nil {
		return err
	}
	defer safeRollback(tx)

	if !inOrg {
		orgMember := &domain.OrgMember{
			OrgID:      team.OrgID,
			UserID:     userID,
			GlobalRole: domain.RoleMember,
		}
		if err := s.memberships.SaveOrgMemberWithTransaction(orgMember, tx); err != nil {
			return err
		}
	}
	teamMember := &domain.TeamMember{
		TeamID:   team.ID,
		UserID:   userID,
		TeamRole: role,
	}
	if err := s.memberships.SaveTeamMemberWithTransaction(teamMember, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *InvitationService) loadTeamInOrg(teamID, orgID int64) (*domain.Team, error) {
	team, err := s.teams.FindByID(teamID)
	if err != nil {
		return nil, err
	}
	if team == nil || team.OrgID != orgID {
		return nil, orgErrors.NewNotFoundError("Team not found in your organization")
	}
	return team, nil
}

func randomToken(length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(invitationTokenCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = invitationTokenCharset[n.Int64()]
	}
	return string(buf), nil
}
