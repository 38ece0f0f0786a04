package domain

import (
	"database/sql"
	"time"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

const (
	TransactionTypeExpense = "expense"
	TransactionTypeIncome  = "income"

	PaymentTypeOrgCard      = "org_card"
	PaymentTypePersonalCard = "personal_card"

	maxVendorLength = 191
	maxMemoLength   = 1000
)

type Transaction struct {
	ID            int64     `json:"id"`
	OrgID         int64     `json:"org_id"`
	TeamID        int64     `json:"team_id"`
	BudgetID      int64     `json:"budget_id"`
	UserID        string    `json:"user_id"` // user UUID
	ReceiptID     *int64    `json:"receipt_id"`
	Type          string    `json:"type"` // "expense" or "income"
	AmountCents   int64     `json:"amount_cents"`
	Date          time.Time `json:"date"`
	Vendor        string    `json:"vendor"`
	Memo          *string   `json:"memo"`
	CategoryID    int64     `json:"category_id"`
	PaymentType   string    `json:"payment_type"`
	LostReceipt   bool      `json:"lost_receipt"`
	ReferenceCode string    `json:"reference_code"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (t *Transaction) Validate() error {
	if t.Type != TransactionTypeExpense && t.Type != TransactionTypeIncome {
		return errors.NewValidationError("Type must be 'expense' or 'income'")
	}
	if t.AmountCents < 0 {
		return errors.NewValidationError("Amount must not be negative")
	}
	if t.Date.IsZero() {
		return errors.NewValidationError("Date is required")
	}
	if t.Vendor == "" {
		return errors.NewValidationError("Vendor is required")
	}
	if len(t.Vendor) > maxVendorLength {
		return errors.NewValidationError("Vendor must be at most 191 characters")
	}
	if t.Memo != nil && len(*t.Memo) > maxMemoLength {
		return errors.NewValidationError("Memo must be at most 1000 characters")
	}
	if t.CategoryID == 0 {
		return errors.NewValidationError("Category is required")
	}
	if t.PaymentType != PaymentTypeOrgCard && t.PaymentType != PaymentTypePersonalCard {
		return errors.NewValidationError("Payment type must be 'org_card' or 'personal_card'")
	}
	return nil
}

// TransactionFilters narrows a budget's transaction listing. UserID, when
// set, restricts the listing to that member's own transactions.
type TransactionFilters struct {
	CategoryID *int64
	Type       string
	DateFrom   *time.Time
	DateTo     *time.Time
	Vendor     string
	UserID     string
}

type TransactionRepository interface {
	Save(transaction *Transaction) error
	FindByID(transactionID int64) (*Transaction, error)
	FindByBudget(budgetID int64, filters TransactionFilters) ([]Transaction, error)
	FindByBudgetInDateRange(budgetID int64, start, end time.Time) ([]Transaction, error)
	FindByBudgetInYear(budgetID int64, year int) ([]Transaction, error)
	Update(transaction *Transaction) error
	Delete(transactionID int64) error
	ReferenceCodeExists(code string) (bool, error)
	SetReceiptWithTransaction(transactionID int64, receiptID *int64, tx *sql.Tx) error
	BeginTransaction() (*sql.Tx, error)
}
