package domain

import (
	"database/sql"
	"time"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

const (
	maxTeamNameLength        = 255
	maxTeamDescriptionLength = 1000
)

type Team struct {
	ID          int64     `json:"id"`
	OrgID       int64     `json:"org_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (t *Team) Validate() error {
	if t.Name == "" {
		return errors.NewValidationError("Name is required")
	}
	if len(t.Name) > maxTeamNameLength {
		return errors.NewValidationError("Name must be at most 255 characters")
	}
	if len(t.Description) > maxTeamDescriptionLength {
		return errors.NewValidationError("Description must be at most 1000 characters")
	}
	return nil
}

type TeamRepository interface {
	Save(team *Team) error
	SaveWithTransaction(team *Team, tx *sql.Tx) error
	FindByID(teamID int64) (*Team, error)
	FindByOrg(orgID int64) ([]Team, error)
	Update(team *Team) error
	DeleteWithTransaction(teamID int64, tx *sql.Tx) error
	BeginTransaction() (*sql.Tx, error)
}
