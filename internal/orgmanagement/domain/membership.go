package domain

import (
	"database/sql"
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type OrgMember struct {
	ID         int64     `json:"id"`
	OrgID      int64     `json:"org_id"`
	UserID     string    `json:"user_id"` // user UUID
	GlobalRole string    `json:"global_role"`
	CreatedAt  time.Time `json:"created_at"`
}

type TeamMember struct {
	ID        int64     `json:"id"`
	TeamID    int64     `json:"team_id"`
	UserID    string    `json:"user_id"`
	TeamRole  string    `json:"team_role"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamMemberInfo is a team membership row joined with the member's user record.
type TeamMemberInfo struct {
	TeamMember
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

// MembershipRepository answers the membership predicates behind every
// authorization check. All lookups resolve to a single indexed query.
type MembershipRepository interface {
	HasTeamMembership(teamID int64, userID string) (bool, error)
	HasTeamRole(teamID int64, userID, role string) (bool, error)
	HasOrgMembership(orgID int64, userID string) (bool, error)
	HasOrgRole(orgID int64, userID, role string) (bool, error)
	FirstOrgMembershipWithRole(userID, role string) (*OrgMember, error)
	FirstOrgMembership(userID string) (*OrgMember, error)

	SaveOrgMember(member *OrgMember) error
	SaveOrgMemberWithTransaction(member *OrgMember, tx *sql.Tx) error
	SaveTeamMember(member *TeamMember) error
	SaveTeamMemberWithTransaction(member *TeamMember, tx *sql.Tx) error
	DeleteTeamMembersWithTransaction(teamID int64, tx *sql.Tx) error
	ListTeamMembers(teamID int64) ([]TeamMemberInfo, error)
}
