package infrastructure

import (
	"database/sql"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

type OrgRepository struct {
	db *sql.DB
}

func NewOrgRepository(db *sql.DB) *OrgRepository {
	return &OrgRepository{db: db}
}

func (r *OrgRepository) Create(name string) (*domain.Org, error) {
	var org domain.Org
	err := r.db.QueryRow(
		`INSERT INTO orgs (name) VALUES ($1) RETURNING id, name, created_at, updated_at`,
		name,
	).Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *OrgRepository) CreateWithTransaction(name string, tx *sql.Tx) (*domain.Org, error) {
	var org domain.Org
	err := tx.QueryRow(
		`INSERT INTO orgs (name) VALUES ($1) RETURNING id, name, created_at, updated_at`,
		name,
	).Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *OrgRepository) FindByID(id int64) (*domain.Org, error) {
	var org domain.Org
	err := r.db.QueryRow(
		`SELECT id, name, created_at, updated_at FROM orgs WHERE id = $1`,
		id,
	).Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *OrgRepository) BeginTransaction() (*sql.Tx, error) {
	return r.db.Begin()
}
