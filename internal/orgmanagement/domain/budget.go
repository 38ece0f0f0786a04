package domain

import (
	"time"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

const (
	BudgetStatusActive   = "active"
	BudgetStatusArchived = "archived"

	minBudgetYear = 2020
	maxBudgetYear = 2030
)

// Budget is a team's annual spending limit, denominated in integer cents
// to keep the arithmetic free of floating-point drift. At most one budget
// exists per (team, year); the unique index enforces it.
type Budget struct {
	ID              int64     `json:"id"`
	TeamID          int64     `json:"team_id"`
	Year            int       `json:"year"`
	TotalLimitCents int64     `json:"total_limit_cents"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (b *Budget) Validate() error {
	if b.Year < minBudgetYear || b.Year > maxBudgetYear {
		return errors.NewValidationError("Year must be between 2020 and 2030")
	}
	if b.TotalLimitCents < 0 {
		return errors.NewValidationError("Total limit must not be negative")
	}
	if b.Status != BudgetStatusActive && b.Status != BudgetStatusArchived {
		return errors.NewValidationError("Status must be 'active' or 'archived'")
	}
	return nil
}

type BudgetRepository interface {
	Save(budget *Budget) error
	FindByID(budgetID int64) (*Budget, error)
	FindByTeam(teamID int64) ([]Budget, error)
	Update(budget *Budget) error
	Delete(budgetID int64) error
}
