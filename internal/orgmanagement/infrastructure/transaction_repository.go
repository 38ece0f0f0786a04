package infrastructure

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

const transactionColumns = `id, org_id, team_id, budget_id, user_id, receipt_id, type, amount_cents, date, vendor, memo, category_id, payment_type, lost_receipt, reference_code, created_at, updated_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Save(transaction *domain.Transaction) error {
	return r.db.QueryRow(
		`INSERT INTO transactions
         (org_id, team_id, budget_id, user_id, receipt_id, type, amount_cents, date, vendor, memo, category_id, payment_type, lost_receipt, reference_code)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
         RETURNING id, created_at, updated_at`,
		transaction.OrgID, transaction.TeamID, transaction.BudgetID, transaction.UserID, transaction.ReceiptID,
		transaction.Type, transaction.AmountCents, transaction.Date, transaction.Vendor, transaction.Memo,
		transaction.CategoryID, transaction.PaymentType, transaction.LostReceipt, transaction.ReferenceCode,
	).Scan(&transaction.ID, &transaction.CreatedAt, &transaction.UpdatedAt)
}

func (r *TransactionRepository) FindByID(transactionID int64) (*domain.Transaction, error) {
	row := r.db.QueryRow(
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`,
		transactionID,
	)
	transaction, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

func (r *TransactionRepository) FindByBudget(budgetID int64, filters domain.TransactionFilters) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE budget_id = $1`
	args := []interface{}{budgetID}

	if filters.CategoryID != nil {
		args = append(args, *filters.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if filters.Type != "" {
		args = append(args, filters.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filters.DateFrom != nil {
		args = append(args, *filters.DateFrom)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if filters.DateTo != nil {
		args = append(args, *filters.DateTo)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	if filters.Vendor != "" {
		args = append(args, "%"+filters.Vendor+"%")
		query += fmt.Sprintf(" AND vendor ILIKE $%d", len(args))
	}
	if filters.UserID != "" {
		args = append(args, filters.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	query += " ORDER BY date DESC, id DESC"

	return r.queryTransactions(query, args...)
}

func (r *TransactionRepository) FindByBudgetInDateRange(budgetID int64, start, end time.Time) ([]domain.Transaction, error) {
	return r.queryTransactions(
		`SELECT `+transactionColumns+` FROM transactions WHERE budget_id = $1 AND date >= $2 AND date <= $3`,
		budgetID, start, end,
	)
}

func (r *TransactionRepository) FindByBudgetInYear(budgetID int64, year int) ([]domain.Transaction, error) {
	return r.queryTransactions(
		`SELECT `+transactionColumns+` FROM transactions WHERE budget_id = $1 AND EXTRACT(YEAR FROM date) = $2`,
		budgetID, year,
	)
}

func (r *TransactionRepository) Update(transaction *domain.Transaction) error {
	return r.db.QueryRow(
		`UPDATE transactions
         SET type = $1, amount_cents = $2, date = $3, vendor = $4, memo = $5, category_id = $6,
             payment_type = $7, lost_receipt = $8, updated_at = NOW()
         WHERE id = $9
         RETURNING updated_at`,
		transaction.Type, transaction.AmountCents, transaction.Date, transaction.Vendor, transaction.Memo,
		transaction.CategoryID, transaction.PaymentType, transaction.LostReceipt, transaction.ID,
	).Scan(&transaction.UpdatedAt)
}

func (r *TransactionRepository) Delete(transactionID int64) error {
	_, err := r.db.Exec(`DELETE FROM transactions WHERE id = $1`, transactionID)
	return err
}

func (r *TransactionRepository) ReferenceCodeExists(code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE reference_code = $1)`,
		code,
	).Scan(&exists)
	return exists, err
}

func (r *TransactionRepository) SetReceiptWithTransaction(transactionID int64, receiptID *int64, tx *sql.Tx) error {
	_, err := tx.Exec(`UPDATE transactions SET receipt_id = $1, updated_at = NOW() WHERE id = $2`, receiptID, transactionID)
	return err
}

func (r *TransactionRepository) BeginTransaction() (*sql.Tx, error) {
	return r.db.Begin()
}

func (r *TransactionRepository) queryTransactions(query string, args ...interface{}) ([]domain.Transaction, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var transaction domain.Transaction
		if err := rows.Scan(
			&transaction.ID, &transaction.OrgID, &transaction.TeamID, &transaction.BudgetID, &transaction.UserID,
			&transaction.ReceiptID, &transaction.Type, &transaction.AmountCents, &transaction.Date, &transaction.Vendor,
			&transaction.Memo, &transaction.CategoryID, &transaction.PaymentType, &transaction.LostReceipt,
			&transaction.ReferenceCode, &transaction.CreatedAt, &transaction.UpdatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	return transactions, rows.Err()
}

func scanTransaction(row *sql.Row) (*domain.Transaction, error) {
	var transaction domain.Transaction
	err := row.Scan(
		&transaction.ID, &transaction.OrgID, &transaction.TeamID, &transaction.BudgetID, &transaction.UserID,
		&transaction.ReceiptID, &transaction.Type, &transaction.AmountCents, &transaction.Date, &transaction.Vendor,
		&transaction.Memo, &transaction.CategoryID, &transaction.PaymentType, &transaction.LostReceipt,
		&transaction.ReferenceCode, &transaction.CreatedAt, &transaction.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}
