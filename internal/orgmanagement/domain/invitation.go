package domain

import (
	"database/sql"
	"time"
)

const invitationTTL = 7 * 24 * time.Hour

type Invitation struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	TeamID     int64      `json:"team_id"`
	InvitedBy  string     `json:"invited_by"` // user UUID
	Role       string     `json:"role"`
	Token      string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

func (i *Invitation) IsAccepted() bool {
	return i.AcceptedAt != nil
}

// DefaultInvitationExpiry is the moment a freshly issued invitation stops
// being redeemable, seven days from now.
func DefaultInvitationExpiry() time.Time {
	return time.Now().Add(invitationTTL)
}

type InvitationRepository interface {
	Save(invitation *Invitation) error
	FindPendingByToken(token string) (*Invitation, error)
	MarkAcceptedWithTransaction(invitationID int64, acceptedAt time.Time, tx *sql.Tx) error
	DeleteExpired(olderThan time.Time) (int64, error)
	BeginTransaction() (*sql.Tx, error)
}
