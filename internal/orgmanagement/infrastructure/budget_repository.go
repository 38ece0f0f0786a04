package infrastructure

import (
	"database/sql"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

type BudgetRepository struct {
	db *sql.DB
}

func NewBudgetRepository(db *sql.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) Save(budget *domain.Budget) error {
	return r.db.QueryRow(
		`INSERT INTO budgets (team_id, year, total_limit_cents, status) VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`,
		budget.TeamID, budget.Year, budget.TotalLimitCents, budget.Status,
	).Scan(&budget.ID, &budget.CreatedAt, &budget.UpdatedAt)
}

func (r *BudgetRepository) FindByID(budgetID int64) (*domain.Budget, error) {
	var budget domain.Budget
	err := r.db.QueryRow(
		`SELECT id, team_id, year, total_limit_cents, status, created_at, updated_at FROM budgets WHERE id = $1`,
		budgetID,
	).Scan(&budget.ID, &budget.TeamID, &budget.Year, &budget.TotalLimitCents, &budget.Status, &budget.CreatedAt, &budget.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *BudgetRepository) FindByTeam(teamID int64) ([]domain.Budget, error) {
	rows, err := r.db.Query(
		`SELECT id, team_id, year, total_limit_cents, status, created_at, updated_at FROM budgets WHERE team_id = $1 ORDER BY year DESC`,
		teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []domain.Budget
	for rows.Next() {
		var budget domain.Budget
		if err := rows.Scan(&budget.ID, &budget.TeamID, &budget.Year, &budget.TotalLimitCents, &budget.Status,
			&budget.CreatedAt, &budget.UpdatedAt); err != nil {
			return nil, err
		}
		budgets = append(budgets, budget)
	}
	return budgets, rows.Err()
}

func (r *BudgetRepository) Update(budget *domain.Budget) error {
	return r.db.QueryRow(
		`UPDATE budgets SET year = $1, total_limit_cents = $2, status = $3, updated_at = NOW() WHERE id = $4 RETURNING updated_at`,
		budget.Year, budget.TotalLimitCents, budget.Status, budget.ID,
	).Scan(&budget.UpdatedAt)
}

func (r *BudgetRepository) Delete(budgetID int64) error {
	_, err := r.db.Exec(`DELETE FROM budgets WHERE id = $1`, budgetID)
	return err
}
