package infrastructure

import (
	"database/sql"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

type TeamRepository struct {
	db *sql.DB
}

func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Save(team *domain.Team) error {
	return r.db.QueryRow(
		`INSERT INTO teams (org_id, name, description) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`,
		team.OrgID, team.Name, team.Description,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
}

func (r *TeamRepository) SaveWithTransaction(team *domain.Team, tx *sql.Tx) error {
	return tx.QueryRow(
		`INSERT INTO teams (org_id, name, description) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`,
		team.OrgID, team.Name, team.Description,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
}

func (r *TeamRepository) FindByID(teamID int64) (*domain.Team, error) {
	var team domain.Team
	err := r.db.QueryRow(
		`SELECT id, org_id, name, description, created_at, updated_at FROM teams WHERE id = $1`,
		teamID,
	).Scan(&team.ID, &team.OrgID, &team.Name, &team.Description, &team.CreatedAt, &team.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *TeamRepository) FindByOrg(orgID int64) ([]domain.Team, error) {
	rows, err := r.db.Query(
		`SELECT id, org_id, name, description, created_at, updated_at FROM teams WHERE org_id = $1 ORDER BY id`,
		orgID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.ID, &team.OrgID, &team.Name, &team.Description, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *TeamRepository) Update(team *domain.Team) error {
	return r.db.QueryRow(
		`UPDATE teams SET name = $1, description = $2, updated_at = NOW() WHERE id = $3 RETURNING updated_at`,
		team.Name, team.Description, team.ID,
	).Scan(&team.UpdatedAt)
}

func (r *TeamRepository) DeleteWithTransaction(teamID int64, tx *sql.Tx) error {
	_, err := tx.Exec(`DELETE FROM teams WHERE id = $1`, teamID)
	return err
}

func (r *TeamRepository) BeginTransaction() (*sql.Tx, error) {
	return r.db.Begin()
}
