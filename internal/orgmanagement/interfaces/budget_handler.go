package interfaces

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/application"
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

type BudgetServiceInterface interface {
	GetTeamBudgets(userID string, teamID int64) ([]domain.Budget, error)
	GetBudget(userID string, teamID, budgetID int64) (*domain.Budget, error)
	CreateBudget(userID string, teamID int64, input application.BudgetInput) (*domain.Budget, error)
	UpdateBudget(userID string, teamID, budgetID int64, input application.BudgetUpdateInput) (*domain.Budget, error)
	DeleteBudget(userID string, teamID, budgetID int64) error
	ToggleBudgetStatus(userID string, teamID, budgetID int64) (*domain.Budget, error)
	GetBudgetSummary(userID string, teamID, budgetID int64, period string, asOf time.Time) (*application.BudgetSummary, error)
}

type BudgetHandler struct {
	service      BudgetServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewBudgetHandler(
	service BudgetServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *BudgetHandler {
	if service == nil {
		log.Fatal("Service must not be nil")
		return nil
	}
	return &BudgetHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *BudgetHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	teamID, ok := parsePathID(r, "teamID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Team not found")
		return
	}

	budgets, err := h.service.GetTeamBudgets(userID, teamID)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to retrieve budgets")
		return
	}
	if budgets == nil {
		budgets = []domain.Budget{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Budgets retrieved successfully.",
		"data":    budgets,
	})
}

func (h *BudgetHandler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	teamID, ok := parsePathID(r, "teamID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Team not found")
		return
	}
	var input application.BudgetInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	budget, err := h.service.CreateBudget(userID, teamID, input)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to create budget")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Budget successfully created.",
		"data":    budget,
	})
}

func (h *BudgetHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	teamID, ok := parsePathID(r, "teamID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Team not found")
		return
	}
	budgetID, ok := parsePathID(r, "budgetID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Budget not found")
		return
	}

	budget, err := h.service.GetBudget(userID, teamID, budgetID)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to retrieve budget")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Budget retrieved successfully.",
		"data":    budget,
	})
}

func (h *BudgetHandler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	teamID, ok := parsePathID(r, "teamID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Team not found")
		return
	}
	budgetID, ok := parsePathID(r, "budgetID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Budget not found")
		return
	}
	var input application.BudgetUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	budget, err := h.service.UpdateBudget(userID, teamID, budgetID, input)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to update budget")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Budget successfully updated.",
		"data":    budget,
	})
}

func (h *BudgetHandler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	teamID, ok := parsePathID(r, "teamID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Team not found")
		return
	}
	budgetID, ok := parsePathID(r, "budgetID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Budget not found")
		return
	}

	if err := h.service.DeleteBudget(userID, teamID, budgetID); err != nil {
		writeServiceError(h.respondError, w, err, "Failed to delete budget")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Budget successfully deleted.",
	})
}

func (h *BudgetHandler) ToggleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	teamID, ok := parsePathID(r, "teamID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Team not found")
		return
	}
	budgetID, ok := parsePathID(r, "budgetID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Budget not found")
		return
	}

	budget, err := h.service.ToggleBudgetStatus(userID, teamID, budgetID)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to update budget status")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Budget status successfully updated.",
		"data":    budget,
	})
}

// GetBudgetSummary serves the period report; ?period= defaults to month.
func (h *BudgetHandler) GetBudgetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	teamID, ok := parsePathID(r, "teamID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Team not found")
		return
	}
	budgetID, ok := parsePathID(r, "budgetID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Budget not found")
		return
	}
	period := r.URL.Query().Get("period")

	summary, err := h.service.GetBudgetSummary(userID, teamID, budgetID, period, time.Now())
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to retrieve budget summary")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Budget summary retrieved successfully.",
		"data":    summary,
	})
}
