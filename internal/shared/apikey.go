package shared

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// APIKeyGuard verifies a bearer key against a bcrypt hash. Full authn lives
// outside this service; export endpoints only need a shared operator key.
type APIKeyGuard struct {
	hash []byte
}

// NewAPIKeyGuard constructs the guard from a bcrypt hash string.
func NewAPIKeyGuard(hash string) *APIKeyGuard {
	return &APIKeyGuard{hash: []byte(hash)}
}

// Middleware rejects requests lacking a valid bearer key.
func (g *APIKeyGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g == nil || len(g.hash) == 0 {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		key := bearerToken(r)
		if key == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if err := bcrypt.CompareHashAndPassword(g.hash, []byte(key)); err != nil {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
