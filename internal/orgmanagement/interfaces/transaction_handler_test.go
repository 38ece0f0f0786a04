package interfaces

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
	orgErrors "github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

func TestListTransactions_FilterParsing(t *testing.T) {
	service := &MockTransactionService{}
	handler := NewTransactionHandler(service, respondJSON, respondError)

	target := "/api/protected/budgets/1/transactions?category_id=5&type=expense&date_from=2025-06-01&date_to=2025-06-30&vendor=Acme"
	req := newAuthedRequest(http.MethodGet, target, nil, map[string]string{"budgetID": "1"})
	rr := httptest.NewRecorder()
	handler.ListTransactions(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotNil(t, service.LastFilters.CategoryID)
	assert.Equal(t, int64(5), *service.LastFilters.CategoryID)
	assert.Equal(t, domain.TransactionTypeExpense, service.LastFilters.Type)
	assert.Equal(t, "Acme", service.LastFilters.Vendor)
	assert.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), *service.LastFilters.DateFrom)
	assert.Equal(t, time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC), *service.LastFilters.DateTo)
}

func TestListTransactions_InvalidFilterValues(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{}, respondJSON, respondError)

	cases := []struct {
		query   string
		message string
	}{
		{"?type=refund", "Invalid filter value for type"},
		{"?category_id=abc", "Invalid filter value for category_id"},
		{"?date_from=junk", "Invalid filter value for date_from"},
		{"?date_to=31-12-2025", "Invalid filter value for date_to"},
	}
	for _, tc := range cases {
		req := newAuthedRequest(http.MethodGet, "/api/protected/budgets/1/transactions"+tc.query, nil,
			map[string]string{"budgetID": "1"})
		rr := httptest.NewRecorder()
		handler.ListTransactions(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		payload := decodeBody(t, rr)
		assert.Equal(t, tc.message, payload["message"])
	}
}

func TestCreateTransaction_Created(t *testing.T) {
	service := &MockTransactionService{}
	handler := NewTransactionHandler(service, respondJSON, respondError)

	body := strings.NewReader(`{"type":"expense","amount":42.50,"date":"2025-06-15","vendor":"Acme Travel","category_id":5}`)
	req := newAuthedRequest(http.MethodPost, "/api/protected/budgets/1/transactions", body,
		map[string]string{"budgetID": "1"})
	rr := httptest.NewRecorder()
	handler.CreateTransaction(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	payload := decodeBody(t, rr)
	assert.Equal(t, "Transaction successfully created.", payload["message"])
	assert.Len(t, service.Transactions, 1)
	assert.Equal(t, "test-user", service.Transactions[0].UserID)
}

func TestCreateTransaction_ValidationErrorMapped(t *testing.T) {
	service := &MockTransactionService{Err: orgErrors.NewValidationError("Date must be in YYYY-MM-DD format")}
	handler := NewTransactionHandler(service, respondJSON, respondError)

	body := strings.NewReader(`{"type":"expense","amount":42.50,"date":"15/06/2025","vendor":"Acme","category_id":5}`)
	req := newAuthedRequest(http.MethodPost, "/api/protected/budgets/1/transactions", body,
		map[string]string{"budgetID": "1"})
	rr := httptest.NewRecorder()
	handler.CreateTransaction(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	payload := decodeBody(t, rr)
	assert.Equal(t, "Date must be in YYYY-MM-DD format", payload["message"])
}

func TestGetTransaction_NotFoundMapped(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{}, respondJSON, respondError)

	req := newAuthedRequest(http.MethodGet, "/api/protected/budgets/1/transactions/42", nil,
		map[string]string{"budgetID": "1", "transactionID": "42"})
	rr := httptest.NewRecorder()
	handler.GetTransaction(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	payload := decodeBody(t, rr)
	assert.Equal(t, "Transaction not found", payload["message"])
}

func TestDeleteTransaction_Success(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{}, respondJSON, respondError)

	req := newAuthedRequest(http.MethodDelete, "/api/protected/budgets/1/transactions/1", nil,
		map[string]string{"budgetID": "1", "transactionID": "1"})
	rr := httptest.NewRecorder()
	handler.DeleteTransaction(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	payload := decodeBody(t, rr)
	assert.Equal(t, "Transaction successfully deleted.", payload["message"])
}

func TestGetTransaction_InvalidPathID(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{}, respondJSON, respondError)

	req := newAuthedRequest(http.MethodGet, "/api/protected/budgets/1/transactions/zero", nil,
		map[string]string{"budgetID": "1", "transactionID": "zero"})
	rr := httptest.NewRecorder()
	handler.GetTransaction(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
