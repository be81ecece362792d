package server

import (
	"net/http"
	"strings"
)

// auth enforces the static bearer token. With no token configured every
// request passes, a deliberately weak default for local setups.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing API token.")
			return
		}

		if strings.TrimPrefix(header, "Bearer ") != s.token {
			writeError(w, http.StatusForbidden, "Invalid API token.")
			return
		}

		next.ServeHTTP(w, r)
	})
}
