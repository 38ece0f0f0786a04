package application

import (
	"database/sql"
	"time"

	emailService "github.com/quickreceipt/quickreceipt/internal/email"
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

type MockMembershipRepository struct {
	TeamMembers []domain.TeamMember
	OrgMembers  []domain.OrgMember
	MemberInfos []domain.TeamMemberInfo

	SavedOrgMembers  []*domain.OrgMember
	SavedTeamMembers []*domain.TeamMember
}

func (m *MockMembershipRepository) HasTeamMembership(teamID int64, userID string) (bool, error) {
	for _, member := range m.TeamMembers {
		if member.TeamID == teamID && member.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockMembershipRepository) HasTeamRole(teamID int64, userID, role string) (bool, error) {
	for _, member := range m.TeamMembers {
		if member.TeamID == teamID && member.UserID == userID && member.TeamRole == role {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockMembershipRepository) HasOrgMembership(orgID int64, userID string) (bool, error) {
	for _, member := range m.OrgMembers {
		if member.OrgID == orgID && member.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockMembershipRepository) HasOrgRole(orgID int64, userID, role string) (bool, error) {
	for _, member := range m.OrgMembers {
		if member.OrgID == orgID && member.UserID == userID && member.GlobalRole == role {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockMembershipRepository) FirstOrgMembershipWithRole(userID, role string) (*domain.OrgMember, error) {
	for _, member := range m.OrgMembers {
		if member.UserID == userID && member.GlobalRole == role {
			found := member
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockMembershipRepository) FirstOrgMembership(userID string) (*domain.OrgMember, error) {
	for _, member := range m.OrgMembers {
		if member.UserID == userID {
			found := member
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockMembershipRepository) SaveOrgMember(member *domain.OrgMember) error {
	member.ID = int64(len(m.OrgMembers) + 1)
	m.OrgMembers = append(m.OrgMembers, *member)
	m.SavedOrgMembers = append(m.SavedOrgMembers, member)
	return nil
}

func (m *MockMembershipRepository) SaveOrgMemberWithTransaction(member *domain.OrgMember, tx *sql.Tx) error {
	return m.SaveOrgMember(member)
}

func (m *MockMembershipRepository) SaveTeamMember(member *domain.TeamMember) error {
	member.ID = int64(len(m.TeamMembers) + 1)
	m.TeamMembers = append(m.TeamMembers, *member)
	m.SavedTeamMembers = append(m.SavedTeamMembers, member)
	return nil
}

func (m *MockMembershipRepository) SaveTeamMemberWithTransaction(member *domain.TeamMember, tx *sql.Tx) error {
	return m.SaveTeamMember(member)
}

func (m *MockMembershipRepository) DeleteTeamMembersWithTransaction(teamID int64, tx *sql.Tx) error {
	kept := m.TeamMembers[:0]
	for _, member := range m.TeamMembers {
		if member.TeamID != teamID {
			kept = append(kept, member)
		}
	}
	m.TeamMembers = kept
	return nil
}

func (m *MockMembershipRepository) ListTeamMembers(teamID int64) ([]domain.TeamMemberInfo, error) {
	var infos []domain.TeamMemberInfo
	for _, info := range m.MemberInfos {
		if info.TeamID == teamID {
			infos = append(infos, info)
		}
	}
	return infos, nil
}

type MockTeamRepository struct {
	Teams []domain.Team
}

func (m *MockTeamRepository) Save(team *domain.Team) error {
	team.ID = int64(len(m.Teams) + 1)
	m.Teams = append(m.Teams, *team)
	return nil
}

func (m *MockTeamRepository) SaveWithTransaction(team *domain.Team, tx *sql.Tx) error {
	return m.Save(team)
}

func (m *MockTeamRepository) FindByID(teamID int64) (*domain.Team, error) {
	for _, team := range m.Teams {
		if team.ID == teamID {
			found := team
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockTeamRepository) FindByOrg(orgID int64) ([]domain.Team, error) {
	var teams []domain.Team
	for _, team := range m.Teams {
		if team.OrgID == orgID {
			teams = append(teams, team)
		}
	}
	return teams, nil
}

func (m *MockTeamRepository) Update(team *domain.Team) error {
	for i, existing := range m.Teams {
		if existing.ID == team.ID {
			m.Teams[i] = *team
			return nil
		}
	}
	return nil
}

func (m *MockTeamRepository) DeleteWithTransaction(teamID int64, tx *sql.Tx) error {
	kept := m.Teams[:0]
	for _, team := range m.Teams {
		if team.ID != teamID {
			kept = append(kept, team)
		}
	}
	m.Teams = kept
	return nil
}

func (m *MockTeamRepository) BeginTransaction() (*sql.Tx, error) {
	panic("implement me")
}

type MockBudgetRepository struct {
	Budgets []domain.Budget
}

func (m *MockBudgetRepository) Save(budget *domain.Budget) error {
	budget.ID = int64(len(m.Budgets) + 1)
	m.Budgets = append(m.Budgets, *budget)
	return nil
}

func (m *MockBudgetRepository) FindByID(budgetID int64) (*domain.Budget, error) {
	for _, budget := range m.Budgets {
		if budget.ID == budgetID {
			found := budget
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockBudgetRepository) FindByTeam(teamID int64) ([]domain.Budget, error) {
	var budgets []domain.Budget
	for _, budget := range m.Budgets {
		if budget.TeamID == teamID {
			budgets = append(budgets, budget)
		}
	}
	return budgets, nil
}

func (m *MockBudgetRepository) Update(budget *domain.Budget) error {
	for i, existing := range m.Budgets {
		if existing.ID == budget.ID {
			m.Budgets[i] = *budget
			return nil
		}
	}
	return nil
}

func (m *MockBudgetRepository) Delete(budgetID int64) error {
	kept := m.Budgets[:0]
	for _, budget := range m.Budgets {
		if budget.ID != budgetID {
			kept = append(kept, budget)
		}
	}
	m.Budgets = kept
	return nil
}

// MockTransactionRepository counts query calls so tests can assert that
// validation failures never reach the data layer.
type MockTransactionRepository struct {
	Transactions  []domain.Transaction
	ExistingCodes map[string]bool

	QueryCalls  int
	LastFilters domain.TransactionFilters
}

func (m *MockTransactionRepository) Save(transaction *domain.Transaction) error {
	transaction.ID = int64(len(m.Transactions) + 1)
	m.Transactions = append(m.Transactions, *transaction)
	return nil
}

func (m *MockTransactionRepository) FindByID(transactionID int64) (*domain.Transaction, error) {
	for _, transaction := range m.Transactions {
		if transaction.ID == transactionID {
			found := transaction
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockTransactionRepository) FindByBudget(budgetID int64, filters domain.TransactionFilters) ([]domain.Transaction, error) {
	m.QueryCalls++
	m.LastFilters = filters
	var result []domain.Transaction
	for _, transaction := range m.Transactions {
		if transaction.BudgetID != budgetID {
			continue
		}
		if filters.UserID != "" && transaction.UserID != filters.UserID {
			continue
		}
		if filters.Type != "" && transaction.Type != filters.Type {
			continue
		}
		if filters.CategoryID != nil && transaction.CategoryID != *filters.CategoryID {
			continue
		}
		result = append(result, transaction)
	}
	return result, nil
}

func (m *MockTransactionRepository) FindByBudgetInDateRange(budgetID int64, start, end time.Time) ([]domain.Transaction, error) {
	m.QueryCalls++
	var result []domain.Transaction
	for _, transaction := range m.Transactions {
		if transaction.BudgetID != budgetID {
			continue
		}
		if transaction.Date.Before(start) || transaction.Date.After(end) {
			continue
		}
		result = append(result, transaction)
	}
	return result, nil
}

func (m *MockTransactionRepository) FindByBudgetInYear(budgetID int64, year int) ([]domain.Transaction, error) {
	m.QueryCalls++
	var result []domain.Transaction
	for _, transaction := range m.Transactions {
		if transaction.BudgetID == budgetID && transaction.Date.Year() == year {
			result = append(result, transaction)
		}
	}
	return result, nil
}

func (m *MockTransactionRepository) Update(transaction *domain.Transaction) error {
	for i, existing := range m.Transactions {
		if existing.ID == transaction.ID {
			m.Transactions[i] = *transaction
			return nil
		}
	}
	return nil
}

func (m *MockTransactionRepository) Delete(transactionID int64) error {
	kept := m.Transactions[:0]
	for _, transaction := range m.Transactions {
		if transaction.ID != transactionID {
			kept = append(kept, transaction)
		}
	}
	m.Transactions = kept
	return nil
}

func (m *MockTransactionRepository) ReferenceCodeExists(code string) (bool, error) {
	return m.ExistingCodes[code], nil
}

func (m *MockTransactionRepository) SetReceiptWithTransaction(transactionID int64, receiptID *int64, tx *sql.Tx) error {
	for i, transaction := range m.Transactions {
		if transaction.ID == transactionID {
			m.Transactions[i].ReceiptID = receiptID
		}
	}
	return nil
}

func (m *MockTransactionRepository) BeginTransaction() (*sql.Tx, error) {
	panic("implement me")
}

type MockCategoryRepository struct {
	Categories []domain.Category
}

func (m *MockCategoryRepository) Save(category *domain.Category) error {
	category.ID = int64(len(m.Categories) + 1)
	m.Categories = append(m.Categories, *category)
	return nil
}

func (m *MockCategoryRepository) FindByOrg(orgID int64) ([]domain.Category, error) {
	var categories []domain.Category
	for _, category := range m.Categories {
		if category.OrgID == orgID {
			categories = append(categories, category)
		}
	}
	return categories, nil
}

func (m *MockCategoryRepository) ExistsInOrg(categoryID, orgID int64) (bool, error) {
	for _, category := range m.Categories {
		if category.ID == categoryID && category.OrgID == orgID {
			return true, nil
		}
	}
	return false, nil
}

type MockReceiptRepository struct {
	Receipts []domain.Receipt
	Owners   map[int64]string

	LastFilters domain.ReceiptFilters
}

func (m *MockReceiptRepository) Save(receipt *domain.Receipt) error {
	receipt.ID = int64(len(m.Receipts) + 1)
	m.Receipts = append(m.Receipts, *receipt)
	return nil
}

func (m *MockReceiptRepository) SaveWithTransaction(receipt *domain.Receipt, tx *sql.Tx) error {
	return m.Save(receipt)
}

func (m *MockReceiptRepository) FindByID(receiptID int64) (*domain.Receipt, error) {
	for _, receipt := range m.Receipts {
		if receipt.ID == receiptID {
			found := receipt
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockReceiptRepository) FindByBudget(budgetID int64, filters domain.ReceiptFilters) ([]domain.Receipt, error) {
	m.LastFilters = filters
	var result []domain.Receipt
	for _, receipt := range m.Receipts {
		if receipt.BudgetID != budgetID {
			continue
		}
		if filters.UserID != "" && m.Owners[receipt.ID] != filters.UserID {
			continue
		}
		if filters.HasFile != nil && *filters.HasFile != (receipt.FileID != nil) {
			continue
		}
		if filters.TransactionID != nil && (receipt.TransactionID == nil || *receipt.TransactionID != *filters.TransactionID) {
			continue
		}
		result = append(result, receipt)
	}
	return result, nil
}

func (m *MockReceiptRepository) UpdateFileWithTransaction(receiptID int64, fileID *int64, tx *sql.Tx) error {
	for i, receipt := range m.Receipts {
		if receipt.ID == receiptID {
			m.Receipts[i].FileID = fileID
		}
	}
	return nil
}

func (m *MockReceiptRepository) DeleteWithTransaction(receiptID int64, tx *sql.Tx) error {
	kept := m.Receipts[:0]
	for _, receipt := range m.Receipts {
		if receipt.ID != receiptID {
			kept = append(kept, receipt)
		}
	}
	m.Receipts = kept
	return nil
}

func (m *MockReceiptRepository) TransactionOwner(receiptID int64) (string, error) {
	return m.Owners[receiptID], nil
}

func (m *MockReceiptRepository) BeginTransaction() (*sql.Tx, error) {
	panic("implement me")
}

type MockInvitationRepository struct {
	Invitations  []domain.Invitation
	DeletedCount int64
}

func (m *MockInvitationRepository) Save(invitation *domain.Invitation) error {
	invitation.ID = int64(len(m.Invitations) + 1)
	m.Invitations = append(m.Invitations, *invitation)
	return nil
}

func (m *MockInvitationRepository) FindPendingByToken(token string) (*domain.Invitation, error) {
	for _, invitation := range m.Invitations {
		if invitation.Token == token && invitation.AcceptedAt == nil {
			found := invitation
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockInvitationRepository) MarkAcceptedWithTransaction(invitationID int64, acceptedAt time.Time, tx *sql.Tx) error {
	for i, invitation := range m.Invitations {
		if invitation.ID == invitationID {
			accepted := acceptedAt
			m.Invitations[i].AcceptedAt = &accepted
		}
	}
	return nil
}

func (m *MockInvitationRepository) DeleteExpired(olderThan time.Time) (int64, error) {
	var deleted int64
	kept := m.Invitations[:0]
	for _, invitation := range m.Invitations {
		if invitation.AcceptedAt == nil && invitation.ExpiresAt.Before(olderThan) {
			deleted++
			continue
		}
		kept = append(kept, invitation)
	}
	m.Invitations = kept
	m.DeletedCount = deleted
	return deleted, nil
}

func (m *MockInvitationRepository) BeginTransaction() (*sql.Tx, error) {
	panic("implement me")
}

type MockOrgRepository struct {
	Orgs []domain.Org
}

func (m *MockOrgRepository) Create(name string) (*domain.Org, error) {
	org := domain.Org{ID: int64(len(m.Orgs) + 1), Name: name}
	m.Orgs = append(m.Orgs, org)
	return &org, nil
}

func (m *MockOrgRepository) CreateWithTransaction(name string, tx *sql.Tx) (*domain.Org, error) {
	return m.Create(name)
}

func (m *MockOrgRepository) FindByID(id int64) (*domain.Org, error) {
	for _, org := range m.Orgs {
		if org.ID == id {
			found := org
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockOrgRepository) BeginTransaction() (*sql.Tx, error) {
	panic("implement me")
}

type MockUserDirectory struct {
	IDsByEmail   map[string]string
	CreatedUsers []string
}

func (m *MockUserDirectory) FindUserIDByEmail(email string) (string, error) {
	return m.IDsByEmail[email], nil
}

func (m *MockUserDirectory) CreateVerifiedUserWithTransaction(name, email, password string, tx *sql.Tx) (string, error) {
	id := "user-" + email
	m.CreatedUsers = append(m.CreatedUsers, email)
	return id, nil
}

type queuedEmail struct {
	To   string
	Data emailService.EmailData
}

type MockEmailSender struct {
	Queued []queuedEmail
}

func (m *MockEmailSender) QueueEmail(to string, data emailService.EmailData) {
	m.Queued = append(m.Queued, queuedEmail{To: to, Data: data})
}
