// Package auth guards the MCP endpoint with a static bearer token.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// NewAuthMiddleware wraps a handler with bearer-token enforcement. An
// empty configured token disables the check entirely, which is how the
// server runs before an auth token has been set or generated.
//
// When enforcing, the request must carry exactly:
//
//	Authorization: Bearer <token>
//
// The prefix is case-sensitive and followed by a single space and a
// non-empty token. Anything else (missing header, wrong value, lowercase
// prefix, doubled spaces) gets a 401 and the wrapped handler never runs.
// Token comparison is constant-time.
func NewAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			const prefix = "Bearer "
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, prefix) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			provided := header[len(prefix):]
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
