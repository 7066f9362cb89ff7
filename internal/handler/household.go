package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/avelasquez/burrow/internal/auth"
	"github.com/avelasquez/burrow/internal/model"
	"github.com/avelasquez/burrow/internal/store"
)

type HouseholdHandler struct {
	householdStore *store.HouseholdStore
	userStore      *store.UserStore
	sessionStore   *store.SessionStore
	logger         *slog.Logger
}

func NewHouseholdHandler(hs *store.HouseholdStore, us *store.UserStore, ss *store.SessionStore, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{
		householdStore: hs,
		userStore:      us,
		sessionStore:   ss,
		logger:         logger,
	}
}

type householdRequest struct {
	Name string `json:"name"`
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req householdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	household, err := h.householdStore.Create(req.Name, ac.UserID)
	if err != nil {
		h.logger.Error("create household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create household")
		return
	}

	// Point the current session at the new household.
	if err := h.sessionStore.SwitchHousehold(ac.SessionID, household.ID); err != nil {
		h.logger.Error("switch household", "error", err, "session_id", ac.SessionID)
	}

	writeJSON(w, http.StatusCreated, household)
}

func (h *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	households, err := h.householdStore.ListForUser(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list households")
		return
	}
	if households == nil {
		households = []model.Household{}
	}
	writeJSON(w, http.StatusOK, households)
}

// Rename changes the current household's name. Owner only (enforced by
// middleware); the id must match the session household.
func (h *HouseholdHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if id != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}

	var req householdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	household, err := h.householdStore.Rename(id, req.Name)
	if err != nil {
		h.logger.Error("rename household", "error", err, "household_id", id)
		writeError(w, http.StatusInternalServerError, "failed to rename household")
		return
	}
	writeJSON(w, http.StatusOK, household)
}

// Delete removes the current household and everything in it. Owner only.
func (h *HouseholdHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if id != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}

	if err := h.householdStore.Delete(id); err != nil {
		h.logger.Error("delete household", "error", err, "household_id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete household")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type joinRequest struct {
	InviteCode string `json:"invite_code"`
}

// Join enrolls the caller into the household matching the invite code and
// switches the session to it.
func (h *HouseholdHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.InviteCode) == "" {
		writeError(w, http.StatusBadRequest, "invite code is required")
		return
	}

	household, err := h.householdStore.GetByInviteCode(req.InviteCode)
	if err != nil {
		h.logger.Error("lookup invite code", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join household")
		return
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "invite code not found")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if _, err := h.householdStore.AddMember(household.ID, ac.UserID, "member"); err != nil {
		if errors.Is(err, store.ErrAlreadyMember) {
			writeError(w, http.StatusConflict, "already a member")
			return
		}
		h.logger.Error("add member", "error", err, "household_id", household.ID)
		writeError(w, http.StatusInternalServerError, "failed to join household")
		return
	}
	if err := h.sessionStore.SwitchHousehold(ac.SessionID, household.ID); err != nil {
		h.logger.Error("switch household", "error", err, "session_id", ac.SessionID)
	}

	h.logger.Info("member joined", "household_id", household.ID, "user_id", ac.UserID)
	writeJSON(w, http.StatusOK, household)
}

// Switch repoints the session at another household the caller belongs to.
func (h *HouseholdHandler) Switch(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	member, err := h.householdStore.GetMember(id, ac.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to switch household")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}
	if err := h.sessionStore.SwitchHousehold(ac.SessionID, id); err != nil {
		h.logger.Error("switch household", "error", err, "session_id", ac.SessionID)
		writeError(w, http.StatusInternalServerError, "failed to switch household")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"household_id": id})
}

type memberResponse struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Emoji       string `json:"emoji"`
	Role        string `json:"role"`
}

// Members lists a household's members with profile details. The caller must
// belong to the household.
func (h *HouseholdHandler) Members(w http.ResponseWriter, r *http.Request) {
	householdID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	self, err := h.householdStore.GetMember(householdID, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if self == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}

	members, err := h.householdStore.ListMembers(householdID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}

	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		mr := memberResponse{UserID: m.UserID, Role: m.Role}
		if u, err := h.userStore.GetByID(m.UserID); err == nil && u != nil {
			mr.DisplayName = u.DisplayName
			mr.Emoji = u.Emoji
		}
		out = append(out, mr)
	}
	writeJSON(w, http.StatusOK, out)
}
