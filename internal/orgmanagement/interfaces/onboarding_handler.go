package interfaces

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/application"
)

type OnboardingServiceInterface interface {
	OnboardOrganization(input application.OnboardingInput) (*application.OnboardingResult, error)
}

type OnboardingHandler struct {
	service      OnboardingServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewOnboardingHandler(
	service OnboardingServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *OnboardingHandler {
	if service == nil {
		log.Fatal("Service must not be nil")
		return nil
	}
	return &OnboardingHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *OnboardingHandler) OnboardOrganization(w http.ResponseWriter, r *http.Request) {
	var input application.OnboardingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.OnboardOrganization(input)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to onboard organization")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Organization successfully created.",
		"data":    result,
	})
}
