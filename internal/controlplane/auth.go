package controlplane

import (
	"net/http"
	"strings"
)

// healthPaths are exempt from bearer-token auth per §4.6's "narrow health
// surface" exception.
var healthPaths = map[string]bool{
	"/health": true,
}

// AuthMiddleware enforces "Authorization: Bearer <token>" on every route
// except healthPaths, when a non-empty token is configured. With an empty
// token, auth is disabled entirely (matching the teacher's pattern of an
// Enabled-gated auth middleware in internal/api/server.go).
func AuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		expected := "Bearer " + token
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if healthPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			if strings.TrimSpace(r.Header.Get("Authorization")) != expected {
				writeText(w, http.StatusUnauthorized, "missing or invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
