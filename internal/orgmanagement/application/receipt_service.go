package application

import (
	"path/filepath"
	"strings"

	"github.com/quickreceipt/quickreceipt/internal/files"
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
	orgErrors "github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

const (
	maxReceiptFileSize = 10 << 20 // 10 MB
	receiptFolder      = "receipts"
)

var allowedReceiptExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

type ReceiptService struct {
	repo         domain.ReceiptRepository
	budgets      domain.BudgetRepository
	teams        domain.TeamRepository
	transactions domain.TransactionRepository
	storage      files.Storage
	authService  AuthorizationServiceInterface
}

func NewReceiptService(
	repo domain.ReceiptRepository,
	budgets domain.BudgetRepository,
	teams domain.TeamRepository,
	transactions domain.TransactionRepository,
	storage files.Storage,
	authService AuthorizationServiceInterface,
) *ReceiptService {
	return &ReceiptService{
		repo:         repo,
		budgets:      budgets,
		teams:        teams,
		transactions: transactions,
		storage:      storage,
		authService:  authService,
	}
}

// GetBudgetReceipts lists a budget's receipts with fresh URLs. Members see
// only receipts linked to their own transactions.
func (s *ReceiptService) GetBudgetReceipts(userID string, budgetID int64, filters domain.ReceiptFilters) ([]domain.Receipt, error) {
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

	receipts, err := s.repo.FindByBudget(budgetID, filters)
	if err != nil {
		return nil, err
	}
	for i := range receipts {
		s.attachURL(&receipts[i])
	}
	return receipts, nil
}

func (s *ReceiptService) GetReceipt(userID string, budgetID, receiptID int64) (*domain.Receipt, error) {
	team, receipt, err := s.loadBudgetReceipt(userID, budgetID, receiptID)
	if err != nil {
		return nil, err
	}
	if err := s.requireReceiptVisible(userID, team, receipt); err != nil {
		return nil, err
	}
	s.attachURL(receipt)
	return receipt, nil
}

// UploadReceipt stores the file and creates the receipt row, optionally
// linking an existing transaction in the same database transaction. The
// stored object is removed again if the database writes fail.
func (s *ReceiptService) UploadReceipt(userID string, budgetID int64, upload files.Upload, transactionID *int64) (*domain.Receipt, error) {
	team, budget, err := s.loadBudgetContext(budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeamAccess(userID, team); err != nil {
		return nil, err
	}
	if err := validateReceiptUpload(upload); err != nil {
		return nil, err
	}
	if transactionID != nil {
		transaction, err := s.loadBudgetTransaction(budgetID, *transactionID)
		if err != nil {
			return nil, err
		}
		if transaction.UserID != userID {
			manager, err := s.authService.CanManageBudgets(userID, team)
			if err != nil {
				return nil, err
			}
			if !manager {
				return nil, orgErrors.NewPermissionError("You may only attach receipts to your own transactions")
			}
		}
	}

	file, err := s.storage.Store(upload, receiptFolder)
	if err != nil {
		return nil, err
	}

	receipt := &domain.Receipt{
		BudgetID:      budget.ID,
		FileID:        &file.ID,
		TransactionID: transactionID,
	}
	if err := s.saveReceiptWithLink(receipt); err != nil {
		_ = s.storage.Delete(file.ID)
		return nil, err
	}
	s.attachURL(receipt)
	return receipt, nil
}

// ReplaceReceiptFile swaps the stored file behind a receipt.
func (s *ReceiptService) ReplaceReceiptFile(userID string, budgetID, receiptID int64, upload files.Upload) (*domain.Receipt, error) {
	team, receipt, err := s.loadBudgetReceipt(userID, budgetID, receiptID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManageBudgets(userID, team); err != nil {
		return nil, err
	}
	if err := validateReceiptUpload(upload); err != nil {
		return nil, err
	}

	if receipt.FileID != nil {
		if _, err := s.storage.Replace(*receipt.FileID, upload); err != nil {
			return nil, err
		}
	} else {
		file, err := s.storage.Store(upload, receiptFolder)
		if err != nil {
			return nil, err
		}
		tx, err := s.repo.BeginTransaction()
		if err != nil {
			_ = s.storage.Delete(file.ID)
			return nil, err
		}
		defer safeRollback(tx)
		if err := s.repo.UpdateFileWithTransaction(receipt.ID, &file.ID, tx); err != nil {
			_ = s.storage.Delete(file.ID)
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			_ = s.storage.Delete(file.ID)
			return nil, err
		}
		receipt.FileID = &file.ID
	}
	s.attachURL(receipt)
	return receipt, nil
}

// DeleteReceipt removes the receipt row, unlinks any transaction pointing
// at it and deletes the stored file afterwards.
func (s *ReceiptService) DeleteReceipt(userID string, budgetID, receiptID int64) error {
	team, receipt, err := s.loadBudgetReceipt(userID, budgetID, receiptID)
	if err != nil {
		return err
	}
	if err := s.requireManageBudgets(userID, team); err != nil {
		return err
	}

	tx, err := s.repo.BeginTransaction()
	if err != nil {
		return err
	}
	defer safeRollback(tx)

	if receipt.TransactionID != nil {
		if err := s.transactions.SetReceiptWithTransaction(*receipt.TransactionID, nil, tx); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteWithTransaction(receiptID, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if receipt.FileID != nil {
		return s.storage.Delete(*receipt.FileID)
	}
	return nil
}

// GetReceiptURL resolves a short-lived URL for the receipt's file.
func (s *ReceiptService) GetReceiptURL(userID string, budgetID, receiptID int64) (string, error) {
	team, receipt, err := s.loadBudgetReceipt(userID, budgetID, receiptID)
	if err != nil {
		return "", err
	}
	if err := s.requireReceiptVisible(userID, team, receipt); err != nil {
		return "", err
	}
	if receipt.FileID == nil {
		return "", orgErrors.NewNotFoundError("Receipt has no file")
	}
	return s.storage.GetURL(*receipt.FileID)
}

func (s *ReceiptService) saveReceiptWithLink(receipt *domain.Receipt) error {
	tx, err := s.repo.BeginTransaction()
	if err != nil {
		return err
	}
	defer safeRollback(tx)

	if err := s.repo.SaveWithTransaction(receipt, tx); err != nil {
		return err
	}
	if receipt.TransactionID != nil {
		if err := s.transactions.SetReceiptWithTransaction(*receipt.TransactionID, &receipt.ID, tx); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *ReceiptService) loadBudgetContext(budgetID int64) (*domain.Team, *domain.Budget, error) {
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

func (s *ReceiptService) loadBudgetReceipt(userID string, budgetID, receiptID int64) (*domain.Team, *domain.Receipt, error) {
	team, _, err := s.loadBudgetContext(budgetID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.requireTeamAccess(userID, team); err != nil {
		return nil, nil, err
	}
	receipt, err := s.repo.FindByID(receiptID)
	if err != nil {
		return nil, nil, err
	}
	if receipt == nil {
		return nil, nil, orgErrors.NewNotFoundError("Receipt not found")
	}
	if receipt.BudgetID != budgetID {
		return nil, nil, orgErrors.NewNotFoundError("Receipt does not belong to this budget")
	}
	return team, receipt, nil
}

func (s *ReceiptService) loadBudgetTransaction(budgetID, transactionID int64) (*domain.Transaction, error) {
	transaction, err := s.transactions.FindByID(transactionID)
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

func (s *ReceiptService) requireTeamAccess(userID string, team *domain.Team) error {
	ok, err := s.authService.HasTeamAccess(userID, team)
	if err != nil {
		return err
	}
	if !ok {
		return orgErrors.NewPermissionError("You do not have access to this team")
	}
	return nil
}

func (s *ReceiptService) requireManageBudgets(userID string, team *domain.Team) error {
	ok, err := s.authService.CanManageBudgets(userID, team)
	if err != nil {
		return err
	}
	if !ok {
		return orgErrors.NewPermissionError("You must be a team admin or organization admin to manage receipts")
	}
	return nil
}

// requireReceiptVisible mirrors transaction visibility: managers see every
// receipt, members only those linked to their own transactions. An
// unlinked receipt has no owner, so members never see it.
func (s *ReceiptService) requireReceiptVisible(userID string, team *domain.Team, receipt *domain.Receipt) error {
	manager, err := s.authService.CanManageBudgets(userID, team)
	if err != nil {
		return err
	}
	if manager {
		return nil
	}
	owner, err := s.repo.TransactionOwner(receipt.ID)
	if err != nil {
		return err
	}
	if owner != userID {
		return orgErrors.NewPermissionError("You do not have access to this receipt")
	}
	return nil
}

func (s *ReceiptService) attachURL(receipt *domain.Receipt) {
	if receipt.FileID == nil {
		return
	}
	url, err := s.storage.GetURL(*receipt.FileID)
	if err != nil {
		return
	}
	receipt.URL = url
}

func validateReceiptUpload(upload files.Upload) error {
	if upload.Size == 0 {
		return orgErrors.NewValidationError("File is required")
	}
	if upload.Size > maxReceiptFileSize {
		return orgErrors.NewValidationError("File must be at most 10MB")
	}
	ext := strings.ToLower(filepath.Ext(upload.Name))
	if !allowedReceiptExtensions[ext] {
		return orgErrors.NewValidationError("File must be a PDF, JPG, JPEG, or PNG")
	}
	return nil
}
