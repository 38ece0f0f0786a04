package domain

import (
	"time"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

// Category is scoped to an organization; a transaction may only reference
// a category belonging to the same org as its team.
type Category struct {
	ID        int64     `json:"id"`
	OrgID     int64     `json:"org_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Category) Validate() error {
	if c.Name == "" {
		return errors.NewValidationError("Name is required")
	}
	if len(c.Name) > 191 {
		return errors.NewValidationError("Name must be at most 191 characters")
	}
	return nil
}

type CategoryRepository interface {
	Save(category *Category) error
	FindByOrg(orgID int64) ([]Category, error)
	ExistsInOrg(categoryID, orgID int64) (bool, error)
}
