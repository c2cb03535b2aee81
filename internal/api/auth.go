package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// Authenticator decides whether a request comes from staff allowed to issue tokens.
type Authenticator interface {
	Authenticate(r *http.Request) bool
}

// APIKeyAuth accepts "Authorization: Bearer <key>" or "X-API-Key: <key>".
type APIKeyAuth struct {
	key []byte
}

func NewAPIKeyAuth(key string) *APIKeyAuth {
	return &APIKeyAuth{key: []byte(key)}
}

func (a *APIKeyAuth) Authenticate(r *http.Request) bool {
	if len(a.key) == 0 {
		return false
	}
	got := r.Header.Get("X-API-Key")
	if bearer := r.Header.Get("Authorization"); got == "" && len(bearer) > 7 && strings.EqualFold(bearer[:7], "bearer ") {
		got = strings.TrimSpace(bearer[7:])
	}
	if got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), a.key) == 1
}

type denyAll struct{}

func (denyAll) Authenticate(*http.Request) bool { return false }

// RequireAuth rejects unauthenticated requests with 401. A nil auth rejects everything.
func RequireAuth(auth Authenticator, next http.HandlerFunc) http.HandlerFunc {
	if auth == nil {
		auth = denyAll{}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.Authenticate(r) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="staff"`)
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{
				Error:     "authentication required",
				Reason:    "unauthorized",
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
		next(w, r)
	}
}
