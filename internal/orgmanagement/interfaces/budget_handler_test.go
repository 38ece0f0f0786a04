package interfaces

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/application"
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
	orgErrors "github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

func newAuthedRequest(method, target string, body io.Reader, pathValues map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req = req.WithContext(context.WithValue(req.Context(), "userID", "test-user"))
	for name, value := range pathValues {
		req.SetPathValue(name, value)
	}
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	err := json.NewDecoder(rr.Body).Decode(&payload)
	assert.NoError(t, err)
	return payload
}

func TestGetBudgetSummary_Success(t *testing.T) {
	service := &MockBudgetService{Summary: &application.BudgetSummary{
		Budget:         domain.Budget{ID: 1, TeamID: 1, Year: 2025, TotalLimitCents: 1_200_000, Status: domain.BudgetStatusActive},
		Period:         application.PeriodInfo{Type: "month", Name: "June 2025"},
		PercentageUsed: 80,
		SpendingStatus: "Under Budget",
	}}
	handler := NewBudgetHandler(service, respondJSON, respondError)

	req := newAuthedRequest(http.MethodGet, "/api/protected/teams/1/budgets/1/summary?period=month", nil,
		map[string]string{"teamID": "1", "budgetID": "1"})
	rr := httptest.NewRecorder()
	handler.GetBudgetSummary(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	payload := decodeBody(t, rr)
	assert.Equal(t, "success", payload["status"])
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, float64(80), data["percentage_used"])
	assert.Equal(t, "Under Budget", data["spending_status"])

	budget := data["budget"].(map[string]interface{})
	assert.Equal(t, float64(1_200_000), budget["total_limit_cents"])
	assert.Equal(t, "active", budget["status"])
}

func TestGetBudgetSummary_InvalidPeriod(t *testing.T) {
	service := &MockBudgetService{Summary: &application.BudgetSummary{}}
	handler := NewBudgetHandler(service, respondJSON, respondError)

	req := newAuthedRequest(http.MethodGet, "/api/protected/teams/1/budgets/1/summary?period=week", nil,
		map[string]string{"teamID": "1", "budgetID": "1"})
	rr := httptest.NewRecorder()
	handler.GetBudgetSummary(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	payload := decodeBody(t, rr)
	assert.Equal(t, "Invalid period. Must be one of: month, quarter, year", payload["message"])
}

func TestCreateBudget_Success(t *testing.T) {
	service := &MockBudgetService{}
	handler := NewBudgetHandler(service, respondJSON, respondError)

	body := strings.NewReader(`{"year": 2025, "total_limit": 12000.00}`)
	req := newAuthedRequest(http.MethodPost, "/api/protected/teams/1/budgets", body,
		map[string]string{"teamID": "1"})
	rr := httptest.NewRecorder()
	handler.CreateBudget(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	payload := decodeBody(t, rr)
	assert.Equal(t, "Budget successfully created.", payload["message"])
	assert.Len(t, service.Budgets, 1)
	assert.Equal(t, 2025, service.Budgets[0].Year)
}

func TestCreateBudget_InvalidBody(t *testing.T) {
	handler := NewBudgetHandler(&MockBudgetService{}, respondJSON, respondError)

	req := newAuthedRequest(http.MethodPost, "/api/protected/teams/1/budgets", strings.NewReader("{not json"),
		map[string]string{"teamID": "1"})
	rr := httptest.NewRecorder()
	handler.CreateBudget(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	payload := decodeBody(t, rr)
	assert.Equal(t, "Invalid request body", payload["message"])
}

func TestCreateBudget_PermissionErrorMapped(t *testing.T) {
	service := &MockBudgetService{Err: orgErrors.NewPermissionError("You must be a team admin or organization admin to manage budgets")}
	handler := NewBudgetHandler(service, respondJSON, respondError)

	body := strings.NewReader(`{"year": 2025, "total_limit": 12000.00}`)
	req := newAuthedRequest(http.MethodPost, "/api/protected/teams/1/budgets", body,
		map[string]string{"teamID": "1"})
	rr := httptest.NewRecorder()
	handler.CreateBudget(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	payload := decodeBody(t, rr)
	assert.Equal(t, "You must be a team admin or organization admin to manage budgets", payload["message"])
}

func TestListBudgets_InvalidTeamID(t *testing.T) {
	handler := NewBudgetHandler(&MockBudgetService{}, respondJSON, respondError)

	req := newAuthedRequest(http.MethodGet, "/api/protected/teams/abc/budgets", nil,
		map[string]string{"teamID": "abc"})
	rr := httptest.NewRecorder()
	handler.ListBudgets(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	payload := decodeBody(t, rr)
	assert.Equal(t, "Team not found", payload["message"])
}

func TestListBudgets_EmptyListIsArray(t *testing.T) {
	handler := NewBudgetHandler(&MockBudgetService{}, respondJSON, respondError)

	req := newAuthedRequest(http.MethodGet, "/api/protected/teams/1/budgets", nil,
		map[string]string{"teamID": "1"})
	rr := httptest.NewRecorder()
	handler.ListBudgets(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	payload := decodeBody(t, rr)
	data, ok := payload["data"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, data, 0)
}

func TestListBudgets_Unauthorized(t *testing.T) {
	handler := NewBudgetHandler(&MockBudgetService{Budgets: []domain.Budget{{ID: 1}}}, respondJSON, respondError)

	req := httptest.NewRequest(http.MethodGet, "/api/protected/teams/1/budgets", nil)
	req.SetPathValue("teamID", "1")
	rr := httptest.NewRecorder()
	handler.ListBudgets(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
