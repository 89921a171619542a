package auth

import (
	"encoding/json"
	"log"
	"net/http"
)

// RequireRole rejects requests that do not carry a valid token with role.
// The token is read from the Authorization header, or from the token query
// parameter for clients that cannot set headers.
func RequireRole(issuer *Issuer, role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !issuer.Enabled() {
			writeError(w, http.StatusServiceUnavailable, "admin endpoints are disabled")
			return
		}

		claims, err := extractAndValidateToken(issuer, r)
		if err != nil {
			log.Printf("Token validation error: %v", err)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if claims.Role != role {
			writeError(w, http.StatusForbidden, "insufficient role")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractAndValidateToken(issuer *Issuer, r *http.Request) (*Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("token"); token != "" {
			authHeader = "Bearer " + token
		}
	}

	tokenString, err := ExtractTokenFromHeader(authHeader)
	if err != nil {
		return nil, err
	}
	return issuer.ValidateToken(tokenString)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
}
