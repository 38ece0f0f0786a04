package application

import (
	"github.com/badoux/checkmail"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
	orgErrors "github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

type OnboardingInput struct {
	UserName         string `json:"user_name"`
	UserEmail        string `json:"user_email"`
	UserPassword     string `json:"user_password"`
	OrganizationName string `json:"organization_name"`
}

type OnboardingResult struct {
	UserID string      `json:"user_id"`
	Org    *domain.Org `json:"organization"`
}

// OnboardingService bootstraps a fresh organization: a verified account,
// the organization and the admin membership are created in one database
// transaction.
type OnboardingService struct {
	orgs        domain.OrgRepository
	memberships domain.MembershipRepository
	users       UserDirectory
}

func NewOnboardingService(orgs domain.OrgRepository, memberships domain.MembershipRepository, users UserDirectory) *OnboardingService {
	return &OnboardingService{orgs: orgs, memberships: memberships, users: users}
}

func (s *OnboardingService) OnboardOrganization(input OnboardingInput) (*OnboardingResult, error) {
	if input.UserName == "" {
		return nil, orgErrors.NewValidationError("User name is required")
	}
	if err := checkmail.ValidateFormat(input.UserEmail); err != nil {
		return nil, orgErrors.NewValidationError("Invalid email address")
	}
	if len(input.UserPassword) < 8 {
		return nil, orgErrors.NewValidationError("Password must be at least 8 characters")
	}
	if input.OrganizationName == "" {
		return nil, orgErrors.NewValidationError("Organization name is required")
	}
	existing, err := s.users.FindUserIDByEmail(input.UserEmail)
	if err != nil {
		return nil, err
	}
	if existing != "" {
		return nil, orgErrors.NewConflictError("An account with this email already exists")
	}

	tx, err := s.orgs.BeginTransaction()
	if err != nil {
		return nil, err
	}
	defer safeRollback(tx)

	userID, err := s.users.CreateVerifiedUserWithTransaction(input.UserName, input.UserEmail, input.UserPassword, tx)
	if err != nil {
		return nil, err
	}
	org, err := s.orgs.CreateWithTransaction(input.OrganizationName, tx)
	if err != nil {
		return nil, err
	}
	member := &domain.OrgMember{
		OrgID:      org.ID,
		UserID:     userID,
		GlobalRole: domain.RoleAdmin,
	}
	if err := s.memberships.SaveOrgMemberWithTransaction(member, tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &OnboardingResult{UserID: userID, Org: org}, nil
}
