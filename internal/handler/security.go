package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
)

// AdminKeyHeader carries the staff API key.
const AdminKeyHeader = "X-Admin-Key"

// AdminGuard authenticates staff requests by comparing the HMAC-SHA256 of
// the presented key with that of the configured key in constant time.
type AdminGuard struct {
	digest []byte
	pepper []byte
}

// NewAdminGuard returns a guard for key. An empty key rejects every request.
func NewAdminGuard(key string, pepper []byte) *AdminGuard {
	g := &AdminGuard{pepper: pepper}
	if key != "" {
		g.digest = g.sum(key)
	}
	return g
}

func (g *AdminGuard) sum(key string) []byte {
	mac := hmac.New(sha256.New, g.pepper)
	mac.Write([]byte(key))
	return mac.Sum(nil)
}

// Allow reports whether key matches the configured admin key.
func (g *AdminGuard) Allow(key string) bool {
	if g.digest == nil || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare(g.sum(key), g.digest) == 1
}

// Middleware rejects requests without a valid admin key with 401.
func (g *AdminGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Allow(r.Header.Get(AdminKeyHeader)) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
