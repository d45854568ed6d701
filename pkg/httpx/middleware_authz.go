package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/worklog/pkg/jwtx"
)

// RequireAnyScope admits callers holding at least one of required.
func RequireAnyScope(required ...string) Middleware {
	return requireScopes(required, func(c jwtx.Claims) bool {
		for _, s := range required {
			if c.HasScope(s) {
				return true
			}
		}
		return false
	})
}

// RequireAllScopes admits callers holding every scope in required.
func RequireAllScopes(required ...string) Middleware {
	return requireScopes(required, func(c jwtx.Claims) bool {
		for _, s := range required {
			if !c.HasScope(s) {
				return false
			}
		}
		return true
	})
}

func requireScopes(required []string, allowed func(jwtx.Claims) bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := ClaimsFromContext(r.Context())
			if !allowed(claims) {
				writeBearerScopeError(w, claims.PasswordResetRequired, required...)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeBearerScopeError answers 403. Sessions still on a temporary password
// are told to change it, since that is why their scopes are limited.
func writeBearerScopeError(w http.ResponseWriter, resetRequired bool, required ...string) {
	scope := strings.Join(required, " ")
	w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+scope+`"`)

	msg := "This action requires: " + scope
	if resetRequired {
		msg = "Change your password before continuing"
	}
	WriteError(w, http.StatusForbidden, "insufficient_scope", msg)
}
