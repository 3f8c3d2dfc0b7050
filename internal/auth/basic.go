// Package auth guards the dashboard API with HTTP basic auth.
package auth

import (
	"crypto/subtle"
	"net/http"
)

const userHeader = "X-Scaffold-User"

// BasicAuth rejects requests whose credentials do not match. /health stays
// open for load balancers.
func BasicAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			user, pass, ok := r.BasicAuth()
			if !ok || subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 || subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="Scaffold"`)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"success":false,"error":"unauthorized"}`))
				return
			}
			r.Header.Set(userHeader, user)
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromRequest returns the authenticated dashboard user, empty when auth
// is disabled.
func UserFromRequest(r *http.Request) string {
	return r.Header.Get(userHeader)
}
