package interfaces

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/application"
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

type TransactionServiceInterface interface {
	GetBudgetTransactions(userID string, budgetID int64, filters domain.TransactionFilters) ([]domain.Transaction, error)
	GetTransaction(userID string, budgetID, transactionID int64) (*domain.Transaction, error)
	CreateTransaction(userID string, budgetID int64, input application.TransactionInput) (*domain.Transaction, error)
	UpdateTransaction(userID string, budgetID, transactionID int64, input application.TransactionUpdateInput) (*domain.Transaction, error)
	DeleteTransaction(userID string, budgetID, transactionID int64) error
}

type TransactionHandler struct {
	service      TransactionServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewTransactionHandler(
	service TransactionServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *TransactionHandler {
	if service == nil {
		log.Fatal("Service must not be nil")
		return nil
	}
	return &TransactionHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	budgetID, ok := parsePathID(r, "budgetID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Budget not found")
		return
	}
	filters, err := parseTransactionFilters(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	transactions, err := h.service.GetBudgetTransactions(userID, budgetID, filters)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to retrieve transactions")
		return
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Transactions retrieved successfully.",
		"data":    transactions,
	})
}

func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	budgetID, ok := parsePathID(r, "budgetID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Budget not found")
		return
	}
	var input application.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	transaction, err := h.service.CreateTransaction(userID, budgetID, input)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to create transaction")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Transaction successfully created.",
		"data":    transaction,
	})
}

func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	budgetID, ok := parsePathID(r, "budgetID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Budget not found")
		return
	}
	transactionID, ok := parsePathID(r, "transactionID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	transaction, err := h.service.GetTransaction(userID, budgetID, transactionID)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to retrieve transaction")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Transaction retrieved successfully.",
		"data":    transaction,
	})
}

func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	budgetID, ok := parsePathID(r, "budgetID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Budget not found")
		return
	}
	transactionID, ok := parsePathID(r, "transactionID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	var input application.TransactionUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	transaction, err := h.service.UpdateTransaction(userID, budgetID, transactionID, input)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to update transaction")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Transaction successfully updated.",
		"data":    transaction,
	})
}

func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	budgetID, ok := parsePathID(r, "budgetID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Budget not found")
		return
	}
	transactionID, ok := parsePathID(r, "transactionID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	if err := h.service.DeleteTransaction(userID, budgetID, transactionID); err != nil {
		writeServiceError(h.respondError, w, err, "Failed to delete transaction")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Transaction successfully deleted.",
	})
}

func parseTransactionFilters(r *http.Request) (domain.TransactionFilters, error) {
	var filters domain.TransactionFilters
	query := r.URL.Query()

	if raw := query.Get("category_id"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filters, errInvalidFilter("category_id")
		}
		filters.CategoryID = &categoryID
	}
	if raw := query.Get("type"); raw != "" {
		if raw != domain.TransactionTypeExpense && raw != domain.TransactionTypeIncome {
			return filters, errInvalidFilter("type")
		}
		filters.Type = raw
	}
	if raw := query.Get("date_from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filters, errInvalidFilter("date_from")
		}
		filters.DateFrom = &from
	}
	if raw := query.Get("date_to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filters, errInvalidFilter("date_to")
		}
		filters.DateTo = &to
	}
	filters.Vendor = query.Get("vendor")
	return filters, nil
}

type invalidFilterError struct {
	field string
}

func (e invalidFilterError) Error() string {
	return "Invalid filter value for " + e.field
}

func errInvalidFilter(field string) error {
	return invalidFilterError{field: field}
}
