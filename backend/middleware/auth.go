package middleware

import (
	"encoding/json"
	"net/http"
	"salud-backend/backend/handlers"
)

// RequireAuth requires an authenticated session and answers 401 in the API
// envelope otherwise.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := handlers.GetCurrentUser(r)
		if user == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"message": "No autenticado",
			})
			return
		}
		next(w, r)
	}
}
