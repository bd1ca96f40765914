package middleware

import (
	"encoding/json"
	"net/http"
)

// SessionChecker reports whether an operator is logged in on this terminal.
// Satisfied by *auth.Session.
type SessionChecker interface {
	Active() bool
}

// RequireSession rejects requests made before login or after logout.
func RequireSession(sess SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sess.Active() {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
