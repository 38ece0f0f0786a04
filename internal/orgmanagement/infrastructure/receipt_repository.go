package infrastructure

import (
	"database/sql"
	"fmt"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

type ReceiptRepository struct {
	db *sql.DB
}

func NewReceiptRepository(db *sql.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

func (r *ReceiptRepository) Save(receipt *domain.Receipt) error {
	return r.db.QueryRow(
		`INSERT INTO receipts (budget_id, file_id, transaction_id) VALUES ($1, $2, $3) RETURNING id, created_at`,
		receipt.BudgetID, receipt.FileID, receipt.TransactionID,
	).Scan(&receipt.ID, &receipt.CreatedAt)
}

func (r *ReceiptRepository) SaveWithTransaction(receipt *domain.Receipt, tx *sql.Tx) error {
	return tx.QueryRow(
		`INSERT INTO receipts (budget_id, file_id, transaction_id) VALUES ($1, $2, $3) RETURNING id, created_at`,
		receipt.BudgetID, receipt.FileID, receipt.TransactionID,
	).Scan(&receipt.ID, &receipt.CreatedAt)
}

func (r *ReceiptRepository) FindByID(receiptID int64) (*domain.Receipt, error) {
	var receipt domain.Receipt
	err := r.db.QueryRow(
		`SELECT id, budget_id, file_id, transaction_id, created_at FROM receipts WHERE id = $1`,
		receiptID,
	).Scan(&receipt.ID, &receipt.BudgetID, &receipt.FileID, &receipt.TransactionID, &receipt.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *ReceiptRepository) FindByBudget(budgetID int64, filters domain.ReceiptFilters) ([]domain.Receipt, error) {
	query := `SELECT r.id, r.budget_id, r.file_id, r.transaction_id, r.created_at FROM receipts r WHERE r.budget_id = $1`
	args := []interface{}{budgetID}

	if filters.TransactionID != nil {
		args = append(args, *filters.TransactionID)
		query += fmt.Sprintf(" AND r.transaction_id = $%d", len(args))
	}
	if filters.HasFile != nil {
		if *filters.HasFile {
			query += " AND r.file_id IS NOT NULL"
		} else {
			query += " AND r.file_id IS NULL"
		}
	}
	if filters.UserID != "" {
		args = append(args, filters.UserID)
		query += fmt.Sprintf(" AND r.transaction_id IN (SELECT id FROM transactions WHERE user_id = $%d)", len(args))
	}
	query += " ORDER BY r.id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []domain.Receipt
	for rows.Next() {
		var receipt domain.Receipt
		if err := rows.Scan(&receipt.ID, &receipt.BudgetID, &receipt.FileID, &receipt.TransactionID, &receipt.CreatedAt); err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	return receipts, rows.Err()
}

func (r *ReceiptRepository) UpdateFileWithTransaction(receiptID int64, fileID *int64, tx *sql.Tx) error {
	_, err := tx.Exec(`UPDATE receipts SET file_id = $1 WHERE id = $2`, fileID, receiptID)
	return err
}

func (r *ReceiptRepository) DeleteWithTransaction(receiptID int64, tx *sql.Tx) error {
	_, err := tx.Exec(`DELETE FROM receipts WHERE id = $1`, receiptID)
	return err
}

func (r *ReceiptRepository) TransactionOwner(receiptID int64) (string, error) {
	var owner string
	err := r.db.QueryRow(
		`SELECT t.user_id FROM receipts r JOIN transactions t ON t.id = r.transaction_id WHERE r.id = $1`,
		receiptID,
	).Scan(&owner)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return owner, nil
}

func (r *ReceiptRepository) BeginTransaction() (*sql.Tx, error) {
	return r.db.Begin()
}
