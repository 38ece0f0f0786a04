package infrastructure

import (
	"database/sql"
	"time"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

type InvitationRepository struct {
	db *sql.DB
}

func NewInvitationRepository(db *sql.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func (r *InvitationRepository) Save(invitation *domain.Invitation) error {
	return r.db.QueryRow(
		`INSERT INTO invitations (email, name, team_id, invited_by, role, token, expires_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING id, created_at`,
		invitation.Email, invitation.Name, invitation.TeamID, invitation.InvitedBy, invitation.Role,
		invitation.Token, invitation.ExpiresAt,
	).Scan(&invitation.ID, &invitation.CreatedAt)
}

func (r *InvitationRepository) FindPendingByToken(token string) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := r.db.QueryRow(
		`SELECT id, email, name, team_id, invited_by, role, token, expires_at, accepted_at, created_at
         FROM invitations
         WHERE token = $1 AND accepted_at IS NULL`,
		token,
	).Scan(&invitation.ID, &invitation.Email, &invitation.Name, &invitation.TeamID, &invitation.InvitedBy,
		&invitation.Role, &invitation.Token, &invitation.ExpiresAt, &invitation.AcceptedAt, &invitation.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *InvitationRepository) MarkAcceptedWithTransaction(invitationID int64, acceptedAt time.Time, tx *sql.Tx) error {
	_, err := tx.Exec(`UPDATE invitations SET accepted_at = $1 WHERE id = $2`, acceptedAt, invitationID)
	return err
}

func (r *InvitationRepository) DeleteExpired(olderThan time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM invitations WHERE accepted_at IS NULL AND expires_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *InvitationRepository) BeginTransaction() (*sql.Tx, error) {
	return r.db.Begin()
}
