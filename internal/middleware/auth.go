package middleware

import (
	"net/http"

	"github.com/avelasquez/burrow/internal/auth"
	"github.com/avelasquez/burrow/internal/store"
)

const SessionCookieName = "burrow_session"

// RequireAuth validates the session cookie, checks that the session's user
// is still a member of the session's household, and populates AuthContext.
// API clients get a JSON 401 rather than a redirect.
func RequireAuth(sessionStore *store.SessionStore, householdStore *store.HouseholdStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			member, err := householdStore.GetMember(sess.HouseholdID, sess.UserID)
			if err != nil || member == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				UserID:      sess.UserID,
				HouseholdID: sess.HouseholdID,
				Role:        member.Role,
				SessionID:   sess.ID,
			}

			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// RequireOwner checks that the authenticated user owns the current household.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsOwner(r.Context()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"forbidden"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized"}`))
}
