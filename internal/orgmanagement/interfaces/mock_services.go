package interfaces

import (
	"time"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/application"
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
	orgErrors "github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

type MockBudgetService struct {
	Budgets []domain.Budget
	Summary *application.BudgetSummary
	Err     error
}

func (m *MockBudgetService) GetTeamBudgets(userID string, teamID int64) ([]domain.Budget, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Budgets, nil
}

func (m *MockBudgetService) GetBudget(userID string, teamID, budgetID int64) (*domain.Budget, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, budget := range m.Budgets {
		if budget.ID == budgetID {
			found := budget
			return &found, nil
		}
	}
	return nil, orgErrors.NewNotFoundError("Budget not found")
}

func (m *MockBudgetService) CreateBudget(userID string, teamID int64, input application.BudgetInput) (*domain.Budget, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	budget := &domain.Budget{
		ID:     int64(len(m.Budgets) + 1),
		TeamID: teamID,
		Year:   input.Year,
		Status: domain.BudgetStatusActive,
	}
	m.Budgets = append(m.Budgets, *budget)
	return budget, nil
}

func (m *MockBudgetService) UpdateBudget(userID string, teamID, budgetID int64, input application.BudgetUpdateInput) (*domain.Budget, error) {
	//TODO implement me
	panic("implement me")
}

func (m *MockBudgetService) DeleteBudget(userID string, teamID, budgetID int64) error {
	//TODO implement me
	panic("implement me")
}

func (m *MockBudgetService) ToggleBudgetStatus(userID string, teamID, budgetID int64) (*domain.Budget, error) {
	//TODO implement me
	panic("implement me")
}

func (m *MockBudgetService) GetBudgetSummary(userID string, teamID, budgetID int64, period string, asOf time.Time) (*application.BudgetSummary, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	switch period {
	case "", "month", "quarter", "year":
	default:
		return nil, orgErrors.NewInvalidPeriodError("Invalid period. Must be one of: month, quarter, year")
	}
	return m.Summary, nil
}

type MockTransactionService struct {
	Transactions []domain.Transaction
	LastFilters  domain.TransactionFilters
	Err          error
}

func (m *MockTransactionService) GetBudgetTransactions(userID string, budgetID int64, filters domain.TransactionFilters) ([]domain.Transaction, error) {
	m.LastFilters = filters
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Transactions, nil
}

func (m *MockTransactionService) GetTransaction(userID string, budgetID, transactionID int64) (*domain.Transaction, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, transaction := range m.Transactions {
		if transaction.ID == transactionID {
			found := transaction
			return &found, nil
		}
	}
	return nil, orgErrors.NewNotFoundError("Transaction not found")
}

func (m *MockTransactionService) CreateTransaction(userID string, budgetID int64, input application.TransactionInput) (*domain.Transaction, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	transaction := &domain.Transaction{
		ID:       int64(len(m.Transactions) + 1),
		BudgetID: budgetID,
		UserID:   userID,
		Type:     input.Type,
		Vendor:   input.Vendor,
	}
	m.Transactions = append(m.Transactions, *transaction)
	return transaction, nil
}

func (m *MockTransactionService) UpdateTransaction(userID string, budgetID, transactionID int64, input application.TransactionUpdateInput) (*domain.Transaction, error) {
	//TODO implement me
	panic("implement me")
}

func (m *MockTransactionService) DeleteTransaction(userID string, budgetID, transactionID int64) error {
	if m.Err != nil {
		return m.Err
	}
	return nil
}
