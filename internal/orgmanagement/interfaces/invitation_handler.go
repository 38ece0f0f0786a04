package interfaces

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/application"
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

type InvitationServiceInterface interface {
	InviteTeamLead(userID string, input application.LeadInvitationInput) (*domain.Invitation, error)
	InviteExistingUser(userID string, input application.ExistingUserInvitationInput) error
}

type InvitationHandler struct {
	service      InvitationServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewInvitationHandler(
	service InvitationServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *InvitationHandler {
	if service == nil {
		log.Fatal("Service must not be nil")
		return nil
	}
	return &InvitationHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

// InviteTeamLead handles an org admin inviting someone to run a team. The
// invitee may or may not have an account yet.
func (h *InvitationHandler) InviteTeamLead(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var input application.LeadInvitationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	invitation, err := h.service.InviteTeamLead(userID, input)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to send invitation")
		return
	}
	if invitation == nil {
		h.respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "success",
			"message": "User added to the team.",
		})
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Invitation sent.",
		"data":    invitation,
	})
}

func (h *InvitationHandler) InviteExistingUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var input application.ExistingUserInvitationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.InviteExistingUser(userID, input); err != nil {
		writeServiceError(h.respondError, w, err, "Failed to add user to team")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "User added to the team.",
	})
}
