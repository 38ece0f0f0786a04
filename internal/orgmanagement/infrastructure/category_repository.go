package infrastructure

import (
	"database/sql"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Save(category *domain.Category) error {
	return r.db.QueryRow(
		`INSERT INTO categories (org_id, name) VALUES ($1, $2) RETURNING id, created_at`,
		category.OrgID, category.Name,
	).Scan(&category.ID, &category.CreatedAt)
}

func (r *CategoryRepository) FindByOrg(orgID int64) ([]domain.Category, error) {
	rows, err := r.db.Query(
		`SELECT id, org_id, name, created_at FROM categories WHERE org_id = $1 ORDER BY name`,
		orgID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.OrgID, &category.Name, &category.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) ExistsInOrg(categoryID, orgID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1 AND org_id = $2)`,
		categoryID, orgID,
	).Scan(&exists)
	return exists, err
}
