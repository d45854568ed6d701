package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/worklog/internal/auth/domain"
	"github.com/aussiebroadwan/worklog/internal/auth/service"
	"github.com/aussiebroadwan/worklog/internal/auth/store"
	"github.com/aussiebroadwan/worklog/pkg/httpx"
	"github.com/aussiebroadwan/worklog/pkg/jwtx"
	"github.com/aussiebroadwan/worklog/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/worklog/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService      *service.AuthService
	PasswordService  *service.PasswordService
	UserService      *service.UserService
	BootstrapService *service.BootstrapService

	// RateLimits defaults to httpx.DefaultRateLimitProfiles.
	RateLimits httpx.RateLimitProfiles
	Metrics    *service.Metrics
	// MetricsHandler serves /metrics; nil uses promhttp.Handler.
	MetricsHandler http.Handler
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		RateLimits:   httpx.DefaultRateLimitProfiles(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPassword()
	r.registerUsers()
	r.registerBootstrap()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Work-log Identity Service API
//	@version		0.1.0
//	@description	Credential login, password reset and user administration for the work-log application.
//	@description
//	@description				Access tokens are EdDSA-signed JWTs and can be verified with the JWKS endpoint.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/worklog
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// handle registers h under pattern with request metrics outermost.
func (r *Router) handle(pattern string, h http.Handler, mws ...httpx.Middleware) {
	r.Mux.Handle(pattern, httpx.Chain(h, append([]httpx.Middleware{instrument(r.Metrics, pattern)}, mws...)...))
}

// secured prefixes mws with bearer authentication and a scope check.
func (r *Router) secured(scope string, mws ...httpx.Middleware) []httpx.Middleware {
	return append([]httpx.Middleware{
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope(scope),
	}, mws...)
}

func (r *Router) registerAuth() {
	// Keyed by IP and the submitted email.
	r.handle("POST /v1/auth/login", &LoginHandler{AuthService: r.AuthService},
		httpx.RateLimitByIPAndFormField(r.RateLimits.Strict, "email"),
	)
}

func (r *Router) registerPassword() {
	h := &PasswordHandler{PasswordService: r.PasswordService}

	r.handle("POST /v1/password/forgot", http.HandlerFunc(h.HandleForgot),
		httpx.RateLimitByIP(r.RateLimits.Strict),
	)
	r.handle("GET /v1/password/reset", http.HandlerFunc(h.HandleCheckToken),
		httpx.RateLimitByIP(r.RateLimits.Moderate),
	)
	r.handle("POST /v1/password/reset", http.HandlerFunc(h.HandleReset),
		httpx.RateLimitByIP(r.RateLimits.Strict),
	)
	r.handle("POST /v1/password/strength", http.HandlerFunc(h.HandleStrength),
		httpx.RateLimitByIP(r.RateLimits.Lenient),
	)
	r.handle("POST /v1/password/change", http.HandlerFunc(h.HandleChange),
		r.secured(domain.ScopePasswordChange, httpx.RateLimitByUser(r.RateLimits.Strict))...,
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	r.handle("GET /v1/me", http.HandlerFunc(h.HandleMe),
		r.secured(domain.ScopeProfileRead, httpx.RateLimitByUser(r.RateLimits.Lenient))...,
	)

	// Admin writes share one limiter per caller.
	read := r.secured(domain.ScopeUsersRead, httpx.RateLimitByUser(r.RateLimits.Moderate))
	write := r.secured(domain.ScopeUsersWrite, httpx.RateLimitByUser(r.RateLimits.Moderate))

	r.handle("GET /v1/users", http.HandlerFunc(h.HandleList), read...)
	r.handle("POST /v1/users", http.HandlerFunc(h.HandleCreate), write...)
	r.handle("POST /v1/users/{id}/require-password-reset", http.HandlerFunc(h.HandleRequirePasswordReset), write...)
	r.handle("POST /v1/users/{id}/temporary-password", http.HandlerFunc(h.HandleTemporaryPassword), write...)
	r.handle("POST /v1/users/{id}/deactivate", http.HandlerFunc(h.HandleDeactivate), write...)
	r.handle("POST /v1/users/{id}/activate", http.HandlerFunc(h.HandleActivate), write...)
}

func (r *Router) registerBootstrap() {
	r.handle("POST /v1/bootstrap", &BootstrapHandler{BootstrapService: r.BootstrapService},
		httpx.RateLimitByIP(r.RateLimits.Strict),
	)
}

func (r *Router) registerSystem() {
	r.handle("GET /.well-known/jwks.json", JWKSHandler(r.keys),
		httpx.RateLimitByIP(r.RateLimits.Public),
	)
	r.handle("GET /livez", LivezHandler(r.startTime, r.buildVersion),
		httpx.RateLimitByIP(r.RateLimits.Lenient),
	)
	r.handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
		httpx.RateLimitByIP(r.RateLimits.Lenient),
	)

	metrics := r.MetricsHandler
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.Mux.Handle("GET /metrics", metrics)
}
