package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/worklog/pkg/cryptox"
	"github.com/aussiebroadwan/worklog/pkg/httpx"
	"github.com/aussiebroadwan/worklog/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "handler"}, order)
}

func newSignerAndVerifier(t *testing.T) (jwtx.Signer, jwtx.Verifier) {
	t.Helper()
	key, err := cryptox.LoadOrCreateEd25519Key("")
	require.NoError(t, err)
	signer, err := jwtx.NewEdDSASignerFromKey("", key)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))
	return signer, jwtx.NewCommonEdDSA(keys, "worklog-auth", nil)
}

func TestAuthnMiddleware(t *testing.T) {
	signer, verifier := newSignerAndVerifier(t)

	token, err := signer.Sign(jwtx.NewAccessClaims(jwtx.AccessClaimsParams{
		Subject: "user-1",
		Role:    "user",
		Scopes:  []string{"profile:read"},
		Issuer:  "worklog-auth",
		TTL:     time.Minute,
	}))
	require.NoError(t, err)

	var gotID string
	var gotClaims jwtx.Claims
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = httpx.UserIDFromContext(r.Context())
		gotClaims, _ = httpx.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), httpx.AuthnMiddleware(verifier), httpx.RequireAnyScope("profile:read"))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				require.True(t, strings.HasPrefix(rec.Header().Get("WWW-Authenticate"), `Bearer error="invalid_token"`))
			}
		})
	}

	require.Equal(t, "user-1", gotID)
	require.Equal(t, "user", gotClaims.Role)
}

func TestScopeMiddleware(t *testing.T) {
	ctxWith := func(scopes ...string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(httpx.ContextWithClaims(req.Context(), jwtx.Claims{Scopes: scopes}))
	}

	tests := []struct {
		name   string
		mw     httpx.Middleware
		scopes []string
		want   int
	}{
		{"any: has one", httpx.RequireAnyScope("users:read", "users:write"), []string{"users:write"}, http.StatusOK},
		{"any: has none", httpx.RequireAnyScope("users:read"), []string{"profile:read"}, http.StatusForbidden},
		{"any: no scopes", httpx.RequireAnyScope("users:read"), nil, http.StatusForbidden},
		{"all: has all", httpx.RequireAllScopes("a", "b"), []string{"b", "a", "c"}, http.StatusOK},
		{"all: missing one", httpx.RequireAllScopes("a", "b"), []string{"a"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.mw(okHandler).ServeHTTP(rec, ctxWith(tt.scopes...))
			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				require.Contains(t, rec.Header().Get("WWW-Authenticate"), "insufficient_scope")
			}
		})
	}
}

func TestScopeMiddlewarePasswordResetHint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	req = req.WithContext(httpx.ContextWithClaims(req.Context(), jwtx.Claims{
		Scopes:                []string{"password:change"},
		PasswordResetRequired: true,
	}))

	rec := httptest.NewRecorder()
	httpx.RequireAnyScope("users:read")(okHandler).ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Change your password")
}

func TestUserIDKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, httpx.UserIDKeyExtractor(req))

	req = req.WithContext(httpx.ContextWithClaims(req.Context(), jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-9"}}))
	require.Equal(t, "user-9", httpx.UserIDKeyExtractor(req))
}
