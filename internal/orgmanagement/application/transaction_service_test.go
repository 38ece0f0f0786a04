package application

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
	orgErrors "github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

func newTransactionFixture() (*TransactionService, *MockTransactionRepository) {
	memberships := &MockMembershipRepository{
		TeamMembers: []domain.TeamMember{
			{TeamID: 1, UserID: "team-admin", TeamRole: domain.RoleAdmin},
			{TeamID: 1, UserID: "member-user", TeamRole: domain.RoleMember},
			{TeamID: 1, UserID: "other-member", TeamRole: domain.RoleMember},
		},
	}
	teams := &MockTeamRepository{
		Teams: []domain.Team{{ID: 1, OrgID: 10, Name: "Engineering"}},
	}
	budgets := &MockBudgetRepository{
		Budgets: []domain.Budget{{ID: 1, TeamID: 1, Year: 2025, TotalLimitCents: 1_200_000, Status: domain.BudgetStatusActive}},
	}
	categories := &MockCategoryRepository{
		Categories: []domain.Category{
			{ID: 5, OrgID: 10, Name: "Travel"},
			{ID: 6, OrgID: 99, Name: "Other org category"},
		},
	}
	transactions := &MockTransactionRepository{}
	service := NewTransactionService(transactions, budgets, teams, categories, NewAuthorizationService(memberships))
	return service, transactions
}

func validTransactionInput() TransactionInput {
	return TransactionInput{
		Type:       domain.TransactionTypeExpense,
		Amount:     42.50,
		Date:       "2025-06-15",
		Vendor:     "Acme Travel",
		CategoryID: 5,
	}
}

func TestCreateTransaction_Success(t *testing.T) {
	service, transactions := newTransactionFixture()

	transaction, err := service.CreateTransaction("member-user", 1, validTransactionInput())
	assert.NoError(t, err)
	assert.Equal(t, int64(4250), transaction.AmountCents)
	assert.Equal(t, int64(10), transaction.OrgID)
	assert.Equal(t, "member-user", transaction.UserID)
	assert.Equal(t, domain.PaymentTypeOrgCard, transaction.PaymentType)
	assert.Len(t, transactions.Transactions, 1)
}

func TestCreateTransaction_ReferenceCodeShape(t *testing.T) {
	service, _ := newTransactionFixture()

	transaction, err := service.CreateTransaction("member-user", 1, validTransactionInput())
	assert.NoError(t, err)

	code := transaction.ReferenceCode
	assert.True(t, strings.HasPrefix(code, "TXN"))
	assert.Len(t, code, 11)
	for _, c := range code[3:] {
		assert.Contains(t, referenceCodeCharset, string(c))
	}
}

func TestCreateTransaction_CategoryOutsideOrg(t *testing.T) {
	service, transactions := newTransactionFixture()

	input := validTransactionInput()
	input.CategoryID = 6
	_, err := service.CreateTransaction("member-user", 1, input)
	assert.Error(t, err)
	assert.True(t, orgErrors.IsNotFoundError(err))
	assert.Equal(t, "Category does not belong to this organization", err.Error())
	assert.Empty(t, transactions.Transactions)
}

func TestCreateTransaction_InvalidDate(t *testing.T) {
	service, _ := newTransactionFixture()

	input := validTransactionInput()
	input.Date = "15/06/2025"
	_, err := service.CreateTransaction("member-user", 1, input)
	assert.Error(t, err)
	assert.True(t, orgErrors.IsValidationError(err))
}

func TestCreateTransaction_StrangerDenied(t *testing.T) {
	service, _ := newTransactionFixture()

	_, err := service.CreateTransaction("stranger", 1, validTransactionInput())
	assert.Error(t, err)
	assert.True(t, orgErrors.IsPermissionError(err))
}

func TestGetBudgetTransactions_MemberSeesOnlyOwn(t *testing.T) {
	service, transactions := newTransactionFixture()
	transactions.Transactions = []domain.Transaction{
		{ID: 1, BudgetID: 1, UserID: "member-user", Type: domain.TransactionTypeExpense},
		{ID: 2, BudgetID: 1, UserID: "other-member", Type: domain.TransactionTypeExpense},
	}

	listed, err := service.GetBudgetTransactions("member-user", 1, domain.TransactionFilters{})
	assert.NoError(t, err)
	assert.Len(t, listed, 1)
	assert.Equal(t, "member-user", listed[0].UserID)
	// The service forces the filter; handlers cannot widen it.
	assert.Equal(t, "member-user", transactions.LastFilters.UserID)
}

func TestGetBudgetTransactions_ManagerSeesAll(t *testing.T) {
	service, transactions := newTransactionFixture()
	transactions.Transactions = []domain.Transaction{
		{ID: 1, BudgetID: 1, UserID: "member-user", Type: domain.TransactionTypeExpense},
		{ID: 2, BudgetID: 1, UserID: "other-member", Type: domain.TransactionTypeExpense},
	}

	listed, err := service.GetBudgetTransactions("team-admin", 1, domain.TransactionFilters{})
	assert.NoError(t, err)
	assert.Len(t, listed, 2)
	assert.Equal(t, "", transactions.LastFilters.UserID)
}

func TestGetTransaction_MemberCannotSeeOthers(t *testing.T) {
	service, transactions := newTransactionFixture()
	transactions.Transactions = []domain.Transaction{
		{ID: 1, BudgetID: 1, UserID: "other-member", Type: domain.TransactionTypeExpense},
	}

	_, err := service.GetTransaction("member-user", 1, 1)
	assert.Error(t, err)
	assert.True(t, orgErrors.IsPermissionError(err))

	// The manager and the owner both get through.
	_, err = service.GetTransaction("team-admin", 1, 1)
	assert.NoError(t, err)
	_, err = service.GetTransaction("other-member", 1, 1)
	assert.NoError(t, err)
}

func TestGetTransaction_WrongBudget(t *testing.T) {
	service, transactions := newTransactionFixture()
	transactions.Transactions = []domain.Transaction{
		{ID: 1, BudgetID: 77, UserID: "member-user", Type: domain.TransactionTypeExpense},
	}

	_, err := service.GetTransaction("member-user", 1, 1)
	assert.Error(t, err)
	assert.True(t, orgErrors.IsNotFoundError(err))
	assert.Equal(t, "Transaction does not belong to this budget", err.Error())
}

func TestUpdateTransaction_PatchSemantics(t *testing.T) {
	service, transactions := newTransactionFixture()
	memo := "team dinner"
	transactions.Transactions = []domain.Transaction{
		{
			ID: 1, BudgetID: 1, UserID: "member-user",
			Type: domain.TransactionTypeExpense, AmountCents: 1000,
			Date: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			Vendor: "Old Vendor", Memo: &memo, CategoryID: 5,
			PaymentType: domain.PaymentTypeOrgCard,
		},
	}

	newAmount := 25.00
	updated, err := service.UpdateTransaction("member-user", 1, 1, TransactionUpdateInput{Amount: &newAmount})
	assert.NoError(t, err)
	assert.Equal(t, int64(2500), updated.AmountCents)
	// Untouched fields survive the patch.
	assert.Equal(t, "Old Vendor", updated.Vendor)
	assert.Equal(t, "team dinner", *updated.Memo)
}

func TestUpdateTransaction_MemberCannotEditOthers(t *testing.T) {
	service, transactions := newTransactionFixture()
	transactions.Transactions = []domain.Transaction{
		{
			ID: 1, BudgetID: 1, UserID: "other-member",
			Type: domain.TransactionTypeExpense, AmountCents: 1000,
			Date:   time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			Vendor: "Vendor", CategoryID: 5, PaymentType: domain.PaymentTypeOrgCard,
		},
	}

	newAmount := 1.00
	_, err := service.UpdateTransaction("member-user", 1, 1, TransactionUpdateInput{Amount: &newAmount})
	assert.Error(t, err)
	assert.True(t, orgErrors.IsPermissionError(err))
	assert.Equal(t, "You may only modify your own transactions", err.Error())
}

func TestDeleteTransaction_ManagerMayDeleteAny(t *testing.T) {
	service, transactions := newTransactionFixture()
	transactions.Transactions = []domain.Transaction{
		{ID: 1, BudgetID: 1, UserID: "member-user", Type: domain.TransactionTypeExpense},
	}

	err := service.DeleteTransaction("team-admin", 1, 1)
	assert.NoError(t, err)
	assert.Empty(t, transactions.Transactions)
}

func TestRandomReferenceCode_Charset(t *testing.T) {
	code, err := randomReferenceCode()
	assert.NoError(t, err)
	assert.Len(t, code, 11)
	assert.True(t, strings.HasPrefix(code, "TXN"))
	for _, c := range code[3:] {
		assert.Contains(t, referenceCodeCharset, string(c))
	}
}

func TestParseTransactionDate(t *testing.T) {
	date, err := parseTransactionDate("2025-06-15")
	assert.NoError(t, err)
	assert.Equal(t, 2025, date.Year())

	_, err = parseTransactionDate("")
	assert.Error(t, err)
	assert.True(t, orgErrors.IsValidationError(err))

	_, err = parseTransactionDate("June 15, 2025")
	assert.Error(t, err)
	assert.True(t, orgErrors.IsValidationError(err))
}
