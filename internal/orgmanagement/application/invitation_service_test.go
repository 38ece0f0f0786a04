package application

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	emailService "github.com/quickreceipt/quickreceipt/internal/email"
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
	orgErrors "github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

type invitationFixture struct {
	service     *InvitationService
	invitations *MockInvitationRepository
	users       *MockUserDirectory
	emails      *MockEmailSender
	memberships *MockMembershipRepository
}

func newInvitationFixture() *invitationFixture {
	memberships := &MockMembershipRepository{
		TeamMembers: []domain.TeamMember{
			{TeamID: 1, UserID: "team-admin", TeamRole: domain.RoleAdmin},
			{TeamID: 1, UserID: "member-user", TeamRole: domain.RoleMember},
		},
		OrgMembers: []domain.OrgMember{
			{ID: 1, OrgID: 10, UserID: "org-admin", GlobalRole: domain.RoleAdmin},
			{ID: 2, OrgID: 10, UserID: "team-admin", GlobalRole: domain.RoleMember},
			{ID: 3, OrgID: 10, UserID: "member-user", GlobalRole: domain.RoleMember},
			{ID: 4, OrgID: 10, UserID: "idle-user", GlobalRole: domain.RoleMember},
		},
	}
	teams := &MockTeamRepository{
		Teams: []domain.Team{
			{ID: 1, OrgID: 10, Name: "Engineering"},
			{ID: 2, OrgID: 99, Name: "Foreign"},
		},
	}
	invitations := &MockInvitationRepository{}
	users := &MockUserDirectory{IDsByEmail: map[string]string{
		"idle@example.com":     "idle-user",
		"outsider@example.com": "outsider-user",
	}}
	emails := &MockEmailSender{}
	service := NewInvitationService(
		invitations,
		teams,
		memberships,
		NewAuthorizationService(memberships),
		users,
		emails,
		"http://localhost:8080",
	)
	return &invitationFixture{
		service:     service,
		invitations: invitations,
		users:       users,
		emails:      emails,
		memberships: memberships,
	}
}

func TestInviteTeamLead_IssuesInvitationForNewEmail(t *testing.T) {
	f := newInvitationFixture()

	invitation, err := f.service.InviteTeamLead("org-admin", LeadInvitationInput{
		Email:  "lead@example.com",
		Name:   "Lena Lead",
		TeamID: 1,
	})
	assert.NoError(t, err)
	assert.NotNil(t, invitation)
	assert.Equal(t, domain.RoleAdmin, invitation.Role)
	assert.Equal(t, "org-admin", invitation.InvitedBy)
	assert.Len(t, invitation.Token, invitationTokenLength)
	assert.True(t, invitation.ExpiresAt.After(time.Now().Add(6*24*time.Hour)))
	assert.Len(t, f.invitations.Invitations, 1)

	assert.Len(t, f.emails.Queued, 1)
	assert.Equal(t, "lead@example.com", f.emails.Queued[0].To)
	data, ok := f.emails.Queued[0].Data.(emailService.TeamInvitationData)
	assert.True(t, ok)
	assert.Equal(t, "Engineering", data.TeamName)
	assert.Equal(t, "http://localhost:8080/register?invitation_token="+invitation.Token, data.ActionURL)
}

func TestInviteTeamLead_RequiresOrgAdmin(t *testing.T) {
	f := newInvitationFixture()

	_, err := f.service.InviteTeamLead("team-admin", LeadInvitationInput{
		Email:  "lead@example.com",
		Name:   "Lena Lead",
		TeamID: 1,
	})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsPermissionError(err))
	assert.Equal(t, "You must be an organization admin to invite team leads", err.Error())
}

func TestInviteTeamLead_TeamOutsideOrg(t *testing.T) {
	f := newInvitationFixture()

	_, err := f.service.InviteTeamLead("org-admin", LeadInvitationInput{
		Email:  "lead@example.com",
		Name:   "Lena Lead",
		TeamID: 2,
	})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsNotFoundError(err))
	assert.Equal(t, "Team not found in your organization", err.Error())
}

func TestInviteTeamLead_InputValidation(t *testing.T) {
	f := newInvitationFixture()

	_, err := f.service.InviteTeamLead("org-admin", LeadInvitationInput{
		Email:  "not-an-email",
		Name:   "Lena Lead",
		TeamID: 1,
	})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsValidationError(err))
	assert.Equal(t, "Invalid email address", err.Error())

	_, err = f.service.InviteTeamLead("org-admin", LeadInvitationInput{
		Email:  "lead@example.com",
		Name:   "",
		TeamID: 1,
	})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsValidationError(err))
	assert.Len(t, f.invitations.Invitations, 0)
	assert.Len(t, f.emails.Queued, 0)
}

func TestInviteExistingUser_Denials(t *testing.T) {
	f := newInvitationFixture()

	err := f.service.InviteExistingUser("member-user", ExistingUserInvitationInput{
		TeamID:    1,
		UserEmail: "idle@example.com",
	})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsPermissionError(err))

	err = f.service.InviteExistingUser("team-admin", ExistingUserInvitationInput{
		TeamID:    42,
		UserEmail: "idle@example.com",
	})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsNotFoundError(err))
}

func TestInviteExistingUser_RoleValidation(t *testing.T) {
	f := newInvitationFixture()

	err := f.service.InviteExistingUser("team-admin", ExistingUserInvitationInput{
		TeamID:    1,
		UserEmail: "idle@example.com",
		TeamRole:  "owner",
	})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsValidationError(err))
	assert.Equal(t, "Role must be 'admin' or 'member'", err.Error())
}

func TestInviteExistingUser_UnknownEmail(t *testing.T) {
	f := newInvitationFixture()

	err := f.service.InviteExistingUser("team-admin", ExistingUserInvitationInput{
		TeamID:    1,
		UserEmail: "nobody@example.com",
	})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsNotFoundError(err))
	assert.Equal(t, "No account exists for this email", err.Error())
}

func TestInviteExistingUser_OutsideOrg(t *testing.T) {
	f := newInvitationFixture()

	err := f.service.InviteExistingUser("team-admin", ExistingUserInvitationInput{
		TeamID:    1,
		UserEmail: "outsider@example.com",
	})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsValidationError(err))
	assert.Equal(t, "User does not belong to this organization", err.Error())
}

func TestInviteExistingUser_AlreadyOnTeam(t *testing.T) {
	f := newInvitationFixture()
	f.users.IDsByEmail["member@example.com"] = "member-user"

	err := f.service.InviteExistingUser("team-admin", ExistingUserInvitationInput{
		TeamID:    1,
		UserEmail: "member@example.com",
	})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsConflictError(err))
	assert.Equal(t, "User is already a member of this team", err.Error())
}

func TestRegisterWithInvitation_TokenChecks(t *testing.T) {
	f := newInvitationFixture()
	f.invitations.Invitations = []domain.Invitation{
		{ID: 1, Email: "lead@example.com", TeamID: 1, Role: domain.RoleAdmin, Token: "expired-token", ExpiresAt: time.Now().Add(-time.Hour)},
		{ID: 2, Email: "lead2@example.com", TeamID: 1, Role: domain.RoleAdmin, Token: "live-token", ExpiresAt: time.Now().Add(time.Hour)},
	}

	_, err := f.service.RegisterWithInvitation(InvitationRegistrationInput{
		Token:    "no-such-token",
		Name:     "Lena",
		Password: "longenough",
	})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsValidationError(err))
	assert.Equal(t, "Invalid or expired invitation token", err.Error())

	_, err = f.service.RegisterWithInvitation(InvitationRegistrationInput{
		Token:    "expired-token",
		Name:     "Lena",
		Password: "longenough",
	})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsValidationError(err))
}

func TestRegisterWithInvitation_InputValidation(t *testing.T) {
	f := newInvitationFixture()
	f.invitations.Invitations = []domain.Invitation{
		{ID: 1, Email: "lead@example.com", TeamID: 1, Role: domain.RoleAdmin, Token: "live-token", ExpiresAt: time.Now().Add(time.Hour)},
	}

	_, err := f.service.RegisterWithInvitation(InvitationRegistrationInput{
		Token:    "live-token",
		Name:     "",
		Password: "longenough",
	})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsValidationError(err))
	assert.Equal(t, "Name is required", err.Error())

	_, err = f.service.RegisterWithInvitation(InvitationRegistrationInput{
		Token:    "live-token",
		Name:     "Lena",
		Password: "short",
	})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsValidationError(err))
	assert.Equal(t, "Password must be at least 8 characters", err.Error())
	assert.Len(t, f.users.CreatedUsers, 0)
}

func TestSweepExpired(t *testing.T) {
	f := newInvitationFixture()
	accepted := time.Now().Add(-time.Hour)
	f.invitations.Invitations = []domain.Invitation{
		{ID: 1, Token: "stale", ExpiresAt: time.Now().Add(-48 * time.Hour)},
		{ID: 2, Token: "live", ExpiresAt: time.Now().Add(time.Hour)},
		{ID: 3, Token: "done", ExpiresAt: time.Now().Add(-48 * time.Hour), AcceptedAt: &accepted},
	}

	f.service.SweepExpired()
	assert.Equal(t, int64(1), f.invitations.DeletedCount)
	assert.Len(t, f.invitations.Invitations, 2)
}

func TestRandomInvitationToken(t *testing.T) {
	token, err := randomToken(invitationTokenLength)
	assert.NoError(t, err)
	assert.Len(t, token, invitationTokenLength)
	for _, r := range token {
		assert.True(t, strings.ContainsRune(invitationTokenCharset, r))
	}
}
