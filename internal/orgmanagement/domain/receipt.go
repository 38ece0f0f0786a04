package domain

import (
	"database/sql"
	"time"
)

// Receipt links an uploaded file to a budget. A transaction may point at
// the receipt once it has been reconciled; until then TransactionID is nil.
type Receipt struct {
	ID            int64     `json:"id"`
	BudgetID      int64     `json:"budget_id"`
	FileID        *int64    `json:"file_id"`
	TransactionID *int64    `json:"transaction_id"`
	URL           string    `json:"url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReceiptFilters narrows a budget's receipt listing.
type ReceiptFilters struct {
	TransactionID *int64
	HasFile       *bool
	UserID        string
}

type ReceiptRepository interface {
	Save(receipt *Receipt) error
	SaveWithTransaction(receipt *Receipt, tx *sql.Tx) error
	FindByID(receiptID int64) (*Receipt, error)
	FindByBudget(budgetID int64, filters ReceiptFilters) ([]Receipt, error)
	UpdateFileWithTransaction(receiptID int64, fileID *int64, tx *sql.Tx) error
	DeleteWithTransaction(receiptID int64, tx *sql.Tx) error
	// TransactionOwner returns the user owning the transaction linked to
	// the receipt, or "" when the receipt is not linked yet.
	TransactionOwner(receiptID int64) (string, error)
	BeginTransaction() (*sql.Tx, error)
}
