package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-pkgz/lgr"
)

// authMiddleware requires "Authorization: Bearer <secret>" matching the configured ingest secret.
// An empty configured secret rejects every request.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			lgr.Printf("[WARN] unauthorized %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
			renderJSON(w, r, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.IngestSecret == "" {
		return false
	}
	// auth scheme is case-insensitive
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.cfg.IngestSecret)) == 1
}
