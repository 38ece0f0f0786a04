package infrastructure

import (
	"database/sql"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

type MembershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) HasTeamMembership(teamID int64, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`,
		teamID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *MembershipRepository) HasTeamRole(teamID int64, userID, role string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2 AND team_role = $3)`,
		teamID, userID, role,
	).Scan(&exists)
	return exists, err
}

func (r *MembershipRepository) HasOrgMembership(orgID int64, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM org_members WHERE org_id = $1 AND user_id = $2)`,
		orgID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *MembershipRepository) HasOrgRole(orgID int64, userID, role string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM org_members WHERE org_id = $1 AND user_id = $2 AND global_role = $3)`,
		orgID, userID, role,
	).Scan(&exists)
	return exists, err
}

func (r *MembershipRepository) FirstOrgMembershipWithRole(userID, role string) (*domain.OrgMember, error) {
	var member domain.OrgMember
	err := r.db.QueryRow(
		`SELECT id, org_id, user_id, global_role, created_at FROM org_members WHERE user_id = $1 AND global_role = $2 ORDER BY id LIMIT 1`,
		userID, role,
	).Scan(&member.ID, &member.OrgID, &member.UserID, &member.GlobalRole, &member.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MembershipRepository) FirstOrgMembership(userID string) (*domain.OrgMember, error) {
	var member domain.OrgMember
	err := r.db.QueryRow(
		`SELECT id, org_id, user_id, global_role, created_at FROM org_members WHERE user_id = $1 ORDER BY id LIMIT 1`,
		userID,
	).Scan(&member.ID, &member.OrgID, &member.UserID, &member.GlobalRole, &member.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MembershipRepository) SaveOrgMember(member *domain.OrgMember) error {
	return r.db.QueryRow(
		`INSERT INTO org_members (org_id, user_id, global_role) VALUES ($1, $2, $3) RETURNING id, created_at`,
		member.OrgID, member.UserID, member.GlobalRole,
	).Scan(&member.ID, &member.CreatedAt)
}

func (r *MembershipRepository) SaveOrgMemberWithTransaction(member *domain.OrgMember, tx *sql.Tx) error {
	return tx.QueryRow(
		`INSERT INTO org_members (org_id, user_id, global_role) VALUES ($1, $2, $3) RETURNING id, created_at`,
		member.OrgID, member.UserID, member.GlobalRole,
	).Scan(&member.ID, &member.CreatedAt)
}

func (r *MembershipRepository) SaveTeamMember(member *domain.TeamMember) error {
	return r.db.QueryRow(
		`INSERT INTO team_members (team_id, user_id, team_role) VALUES ($1, $2, $3) RETURNING id, created_at`,
		member.TeamID, member.UserID, member.TeamRole,
	).Scan(&member.ID, &member.CreatedAt)
}

func (r *MembershipRepository) SaveTeamMemberWithTransaction(member *domain.TeamMember, tx *sql.Tx) error {
	return tx.QueryRow(
		`INSERT INTO team_members (team_id, user_id, team_role) VALUES ($1, $2, $3) RETURNING id, created_at`,
		member.TeamID, member.UserID, member.TeamRole,
	).Scan(&member.ID, &member.CreatedAt)
}

func (r *MembershipRepository) DeleteTeamMembersWithTransaction(teamID int64, tx *sql.Tx) error {
	_, err := tx.Exec(`DELETE FROM team_members WHERE team_id = $1`, teamID)
	return err
}

func (r *MembershipRepository) ListTeamMembers(teamID int64) ([]domain.TeamMemberInfo, error) {
	rows, err := r.db.Query(
		`SELECT tm.id, tm.team_id, tm.user_id, tm.team_role, tm.created_at, u.name, u.email
         FROM team_members tm
         JOIN users u ON u.id = tm.user_id
         WHERE tm.team_id = $1
         ORDER BY tm.id`,
		teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.TeamMemberInfo
	for rows.Next() {
		var member domain.TeamMemberInfo
		if err := rows.Scan(&member.ID, &member.TeamID, &member.UserID, &member.TeamRole, &member.CreatedAt,
			&member.UserName, &member.UserEmail); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}
