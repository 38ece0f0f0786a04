package application

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
	orgErrors "github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

const (
	referenceCodeCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	referenceCodeLength  = 8
	referenceCodeRetries = 10
)

type TransactionInput struct {
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Vendor      string  `json:"vendor"`
	Memo        *string `json:"memo"`
	CategoryID  int64   `json:"category_id"`
	PaymentType string  `json:"payment_type"`
	LostReceipt bool    `json:"lost_receipt"`
}

type TransactionUpdateInput struct {
	Type        *string  `json:"type"`
	Amount      *float64 `json:"amount"`
	Date        *string  `json:"date"`
	Vendor      *string  `json:"vendor"`
	Memo        *string  `json:"memo"`
	CategoryID  *int64   `json:"category_id"`
	PaymentType *string  `json:"payment_type"`
	LostReceipt *bool    `json:"lost_receipt"`
}

type TransactionService struct {
	repo        domain.TransactionRepository
	budgets     domain.BudgetRepository
	teams       domain.TeamRepository
	categories  domain.CategoryRepository
	authService AuthorizationServiceInterface
}

func NewTransactionService(
	repo domain.TransactionRepository,
	budgets domain.BudgetRepository,
	teams domain.TeamRepository,
	categories domain.CategoryRepository,
	authService AuthorizationServiceInterface,
) *TransactionService {
	return &TransactionService{
		repo:        repo,
		budgets:     budgets,
		teams:       teams,
		categories:  categories,
		authService: authService,
	}
}

// GetBudgetTransactions lists a budget's transactions. Members without a
// manager role only ever see their own rows; the filter is forced here so
// no handler can widen it.
func (s *TransactionService) GetBudgetTransactions(userID string, budgetID int64, filters domain.TransactionFilters) ([]domain.Transaction, error) {
	team, _, err := s.loadBudgetContext(budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeamAccess(userID, team); err != nil {
		return nil, err
	}
	manager, err := s.authService.CanManageBudgets(userID, team)
	if err != nil {
		return nil, err
	}
	if !manager {
		filters.UserID = userID
	}
	return s.repo.FindByBudget(budgetID, filters)
}

func (s *TransactionService) GetTransaction(userID string, budgetID, transactionID int64) (*domain.Transaction, error) {
	team, _, err := s.loadBudgetContext(budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeamAccess(userID, team); err != nil {
		return nil, err
	}
	transaction, err := s.loadBudgetTransaction(budgetID, transactionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTransactionVisible(userID, team, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *TransactionService) CreateTransaction(userID string, budgetID int64, input TransactionInput) (*domain.Transaction, error) {
	team, budget, err := s.loadBudgetContext(budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeamAccess(userID, team); err != nil {
		return nil, err
	}

	date, err := parseTransactionDate(input.Date)
	if err != nil {
		return nil, err
	}
	paymentType := input.PaymentType
	if paymentType == "" {
		paymentType = domain.PaymentTypeOrgCard
	}

	transaction := &domain.Transaction{
		OrgID:       team.OrgID,
		TeamID:      team.ID,
		BudgetID:    budget.ID,
		UserID:      userID,
		Type:        input.Type,
		AmountCents: convertToCents(input.Amount),
		Date:        date,
		Vendor:      input.Vendor,
		Memo:        input.Memo,
		CategoryID:  input.CategoryID,
		PaymentType: paymentType,
		LostReceipt: input.LostReceipt,
	}
	if err := transaction.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireCategoryInOrg(transaction.CategoryID, team.OrgID); err != nil {
		return nil, err
	}

	code, err := s.generateReferenceCode()
	if err != nil {
		return nil, err
	}
	transaction.ReferenceCode = code

	if err := s.repo.Save(transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *TransactionService) UpdateTransaction(userID string, budgetID, transactionID int64, input TransactionUpdateInput) (*domain.Transaction, error) {
	team, _, err := s.loadBudgetContext(budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeamAccess(userID, team); err != nil {
		return nil, err
	}
	transaction, err := s.loadBudgetTransaction(budgetID, transactionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTransactionEditable(userID, team, transaction); err != nil {
		return nil, err
	}

	if input.Type != nil {
		transaction.Type = *input.Type
	}
	if input.Amount != nil {
		transaction.AmountCents = convertToCents(*input.Amount)
	}
	if input.Date != nil {
		date, err := parseTransactionDate(*input.Date)
		if err != nil {
			return nil, err
		}
		transaction.Date = date
	}
	if input.Vendor != nil {
		transaction.Vendor = *input.Vendor
	}
	if input.Memo != nil {
		transaction.Memo = input.Memo
	}
	if input.CategoryID != nil {
		transaction.CategoryID = *input.CategoryID
	}
	if input.PaymentType != nil {
		transaction.PaymentType = *input.PaymentType
	}
	if input.LostReceipt != nil {
		transaction.LostReceipt = *input.LostReceipt
	}

	if err := transaction.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireCategoryInOrg(transaction.CategoryID, team.OrgID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *TransactionService) DeleteTransaction(userID string, budgetID, transactionID int64) error {
	team, _, err := s.loadBudgetContext(budgetID)
	if err != nil {
		return err
	}
	if err := s.requireTeamAccess(userID, team); err != nil {
		return err
	}
	transaction, err := s.loadBudgetTransaction(budgetID, transactionID)
	if err != nil {
		return err
	}
	if err := s.requireTransactionEditable(userID, team, transaction); err != nil {
		return err
	}
	return s.repo.Delete(transactionID)
}

func (s *TransactionService) loadBudgetContext(budgetID int64) (*domain.Team, *domain.Budget, error) {
	budget, err := s.budgets.FindByID(budgetID)
	if err != nil {
		return nil, nil, err
	}
	if budget == nil {
		return nil, nil, orgErrors.NewNotFoundError("Budget not found")
	}
	team, err := s.teams.FindByID(budget.TeamID)
	if err != nil {
		return nil, nil, err
	}
	if team == nil {
		return nil, nil, orgErrors.NewNotFoundError("Team not found")
	}
	return team, budget, nil
}

func (s *TransactionService) loadBudgetTransaction(budgetID, transactionID int64) (*domain.Transaction, error) {
	transaction, err := s.repo.FindByID(transactionID)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, orgErrors.NewNotFoundError("Transaction not found")
	}
	if transaction.BudgetID != budgetID {
		return nil, orgErrors.NewNotFoundError("Transaction does not belong to this budget")
	}
	return transaction, nil
}

func (s *TransactionService) requireTeamAccess(userID string, team *domain.Team) error {
	ok, err := s.authService.HasTeamAccess(userID, team)
	if err != nil {
		return err
	}
	if !ok {
		return orgErrors.NewPermissionError("You do not have access to this team")
	}
	return nil
}

// requireTransactionVisible allows managers to see everything and members
// to see only their own transactions.
func (s *TransactionService) requireTransactionVisible(userID string, team *domain.Team, transaction *domain.Transaction) error {
	if transaction.UserID == userID {
		return nil
	}
	manager, err := s.authService.CanManageBudgets(userID, team)
	if err != nil {
		return err
	}
	if !manager {
		return orgErrors.NewPermissionError("You do not have access to this transaction")
	}
	return nil
}

func (s *TransactionService) requireTransactionEditable(userID string, team *domain.Team, transaction *domain.Transaction) error {
	if transaction.UserID == userID {
		return nil
	}
	manager, err := s.authService.CanManageBudgets(userID, team)
	if err != nil {
		return err
	}
	if !manager {
		return orgErrors.NewPermissionError("You may only modify your own transactions")
	}
	return nil
}

func (s *TransactionService) requireCategoryInOrg(categoryID, orgID int64) error {
	ok, err := s.categories.ExistsInOrg(categoryID, orgID)
	if err != nil {
		return err
	}
	if !ok {
		return orgErrors.NewNotFoundError("Category does not belong to this organization")
	}
	return nil
}

// generateReferenceCode produces a "TXN"-prefixed code and retries on the
// unlikely collision with an existing one.
func (s *TransactionService) generateReferenceCode() (string, error) {
	for i := 0; i < referenceCodeRetries; i++ {
		code, err := randomReferenceCode()
		if err != nil {
			return "", err
		}
		exists, err := s.repo.ReferenceCodeExists(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique reference code")
}

func randomReferenceCode() (string, error) {
	buf := make([]byte, referenceCodeLength)
	max := big.NewInt(int64(len(referenceCodeCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = referenceCodeCharset[n.Int64()]
	}
	return "TXN" + string(buf), nil
}

func parseTransactionDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, orgErrors.NewValidationError("Date is required")
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, orgErrors.NewValidationError("Date must be in YYYY-MM-DD format")
	}
	return date, nil
}
