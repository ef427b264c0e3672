package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Keys holds the configured API keys. With no keys at all the API runs
// open, which is how local development works.
type Keys struct {
	Public []string
	Admin  []string
}

type role int

const (
	roleNone role = iota
	rolePublic
	roleAdmin
)

func (k Keys) roleOf(key string) role {
	if key == "" {
		return roleNone
	}
	if contains(k.Admin, key) {
		return roleAdmin
	}
	if contains(k.Public, key) {
		return rolePublic
	}
	return roleNone
}

func contains(set []string, key string) bool {
	for _, s := range set {
		if subtle.ConstantTimeCompare([]byte(s), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

// presentedKey reads "Authorization: Bearer <key>" or "X-API-Key".
func presentedKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func deny(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

func require(enabled bool, min role, keys Keys) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := presentedKey(r)
			got := keys.roleOf(key)
			switch {
			case got >= min:
				next.ServeHTTP(w, r)
			case key == "" || got == roleNone:
				deny(w, http.StatusUnauthorized, "unauthorized")
			default:
				deny(w, http.StatusForbidden, "forbidden")
			}
		})
	}
}

// RequireAny admits public and admin keys.
func RequireAny(keys Keys) func(http.Handler) http.Handler {
	return require(len(keys.Public) > 0 || len(keys.Admin) > 0, rolePublic, keys)
}

// RequireAdmin admits admin keys only: 401 without a known key, 403 for a
// public key. Without admin keys configured it admits everyone.
func RequireAdmin(keys Keys) func(http.Handler) http.Handler {
	return require(len(keys.Admin) > 0, roleAdmin, keys)
}
