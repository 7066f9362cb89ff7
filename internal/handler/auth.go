package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/avelasquez/burrow/internal/auth"
	"github.com/avelasquez/burrow/internal/middleware"
	"github.com/avelasquez/burrow/internal/store"
)

const (
	minPasswordLen  = 8
	cookieMaxAgeSec = 30 * 24 * 60 * 60
)

type AuthHandler struct {
	userStore      *store.UserStore
	householdStore *store.HouseholdStore
	sessionStore   *store.SessionStore
	logger         *slog.Logger
}

func NewAuthHandler(us *store.UserStore, hs *store.HouseholdStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore:      us,
		householdStore: hs,
		sessionStore:   ss,
		logger:         logger,
	}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Emoji       string `json:"emoji"`
}

// Register creates a user, a starter household owned by them, and a session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "valid email is required")
		return
	}
	if len(req.Password) < minPasswordLen {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "display name is required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	user, err := h.userStore.Create(req.Email, req.DisplayName, req.Emoji, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	household, err := h.householdStore.Create(req.DisplayName+"'s Household", user.ID)
	if err != nil {
		h.logger.Error("create household", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	sess, err := h.sessionStore.Create(user.ID, household.ID)
	if err != nil {
		h.logger.Error("create session", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	h.setSessionCookie(w, r, sess.Token)

	h.logger.Info("user registered", "user_id", user.ID, "household_id", household.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":      user,
		"household": household,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.userStore.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		h.logger.Error("lookup user", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	hash, err := h.userStore.PasswordHash(user.ID)
	if err != nil {
		h.logger.Error("lookup password hash", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	households, err := h.householdStore.ListForUser(user.ID)
	if err != nil {
		h.logger.Error("list households", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if len(households) == 0 {
		// Registration always creates one, but the user may have been removed.
		writeError(w, http.StatusForbidden, "no household membership")
		return
	}

	sess, err := h.sessionStore.Create(user.ID, households[0].ID)
	if err != nil {
		h.logger.Error("create session", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	h.setSessionCookie(w, r, sess.Token)

	writeJSON(w, http.StatusOK, map[string]any{
		"user":       user,
		"households": households,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessionStore.DeleteByToken(cookie.Value); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user and the household the session points at.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.userStore.GetByID(ac.UserID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":         user,
		"household_id": ac.HouseholdID,
		"role":         ac.Role,
	})
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
	Emoji       string `json:"emoji"`
}

// UpdateProfile changes the authenticated user's display name and emoji.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "display name is required")
		return
	}

	user, err := h.userStore.UpdateProfile(auth.UserID(r.Context()), req.DisplayName, req.Emoji)
	if err != nil {
		h.logger.Error("update profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   cookieMaxAgeSec,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}
