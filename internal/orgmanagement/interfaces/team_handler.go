package interfaces

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/application"
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

type TeamServiceInterface interface {
	CreateTeam(userID string, input application.TeamInput) (*application.TeamWithMembers, error)
	GetAllTeams(userID string) ([]application.TeamWithMembers, error)
	GetTeamDetails(userID string, teamID int64) (*application.TeamDetails, error)
	UpdateTeam(userID string, teamID int64, input application.TeamUpdateInput) (*domain.Team, error)
	DeleteTeam(userID string, teamID int64) error
}

type TeamHandler struct {
	service      TeamServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewTeamHandler(
	service TeamServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *TeamHandler {
	if service == nil {
		log.Fatal("Service must not be nil")
		return nil
	}
	return &TeamHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	teams, err := h.service.GetAllTeams(userID)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to retrieve teams")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Teams retrieved successfully.",
		"data":    teams,
	})
}

func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var input application.TeamInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	team, err := h.service.CreateTeam(userID, input)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to create team")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Team successfully created.",
		"data":    team,
	})
}

func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
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

	details, err := h.service.GetTeamDetails(userID, teamID)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to retrieve team")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Team retrieved successfully.",
		"data":    details,
	})
}

func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
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
	var input application.TeamUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	team, err := h.service.UpdateTeam(userID, teamID, input)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to update team")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Team successfully updated.",
		"data":    team,
	})
}

func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.DeleteTeam(userID, teamID); err != nil {
		writeServiceError(h.respondError, w, err, "Failed to delete team")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Team successfully deleted.",
	})
}
