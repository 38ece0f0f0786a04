package application

import (
	"database/sql"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

// AuthorizationServiceInterface is consumed by the other services so tests
// can swap in a mock.
type AuthorizationServiceInterface interface {
	HasTeamAccess(userID string, team *domain.Team) (bool, error)
	IsTeamAdmin(userID string, team *domain.Team) (bool, error)
	IsOrgAdmin(userID string, orgID int64) (bool, error)
	CanManageTeams(userID string, team *domain.Team) (bool, error)
	CanManageBudgets(userID string, team *domain.Team) (bool, error)
	GetUserOrgMembership(userID string) (*domain.OrgMember, error)
}

// UserDirectory is the slice of the user module the organization services
// need: lookups by email and transactional creation of already-verified
// accounts during invitation redemption and organization onboarding.
type UserDirectory interface {
	FindUserIDByEmail(email string) (string, error)
	CreateVerifiedUserWithTransaction(name, email, password string, tx *sql.Tx) (string, error)
}
