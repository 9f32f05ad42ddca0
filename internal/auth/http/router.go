package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/daybook/internal/auth/cookies"
	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/internal/auth/service"
	"github.com/aussiebroadwan/daybook/internal/auth/store"
	"github.com/aussiebroadwan/daybook/pkg/httpx"
	"github.com/aussiebroadwan/daybook/pkg/jwtx"
	"github.com/aussiebroadwan/daybook/pkg/slogx"

	_ "github.com/aussiebroadwan/daybook/api/auth" // Swagger docs
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys           *jwtx.KeySet
	buildVersion   string
	startTime      time.Time
	logger         *slog.Logger
	logoutRedirect string

	store        store.Store
	Cookies      *cookies.Transport
	Guard        *service.Guard
	TokenService *service.TokenService
	UserService  *service.UserService
	ResetService *service.ResetService
}

func NewRouter(
	keys *jwtx.KeySet,
	buildVersion, logoutRedirect string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:            http.NewServeMux(),
		keys:           keys,
		buildVersion:   buildVersion,
		startTime:      time.Now(),
		logger:         logger,
		logoutRedirect: logoutRedirect,
		store:          st,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recoverer,
	}

	return r
}

// Use prepends mw to the global chain, making it the outermost wrapper.
func (r *Router) Use(mw httpx.Middleware) {
	r.middlewares = append([]httpx.Middleware{mw}, r.middlewares...)
}

func (r *Router) ApplyRoutes() {
	r.registerSession()
	r.registerPassword()
	r.registerAdmin()
	r.registerBilling()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Daybook Authentication Service API
//	@version		0.1.0
//	@description	Session authentication for daybook. Browsers hold an access and a refresh
//	@description	token in HttpOnly cookies; refresh tokens rotate on every use and are
//	@description	revoked server side.
//	@description
//	@description	Tokens are signed with EdDSA by default and can be verified using the JWKS endpoint.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/daybook
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSession() {
	h := &SessionHandler{
		TokenService:   r.TokenService,
		UserService:    r.UserService,
		Cookies:        r.Cookies,
		LogoutRedirect: r.logoutRedirect,
	}

	// Password checks - strict, keyed on IP and the submitted email
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIPAndJSONField(httpx.CredentialLimit, "email"),
		),
	)
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.CredentialLimit, "email"),
		),
	)

	r.Mux.Handle("POST /auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.SessionLimit),
		),
	)

	logout := httpx.Chain(http.HandlerFunc(h.HandleLogout),
		httpx.RateLimitByIP(httpx.SessionLimit),
	)
	r.Mux.Handle("GET /auth/logout", logout)
	r.Mux.Handle("POST /auth/logout", logout)

	r.Mux.Handle("GET /auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			r.Guard.Middleware(),
			httpx.RateLimitByUser(httpx.SessionLimit),
		),
	)
}

func (r *Router) registerPassword() {
	h := &PasswordHandler{ResetService: r.ResetService}

	// Sends mail - very strict by IP + email
	r.Mux.Handle("POST /auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgot),
			httpx.RateLimitByIPAndJSONField(httpx.RecoveryLimit, "email"),
		),
	)
	r.Mux.Handle("POST /auth/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleReset),
			httpx.RateLimitByIP(httpx.CredentialLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{
		UserService:  r.UserService,
		TokenService: r.TokenService,
	}

	r.Mux.Handle("PUT /admin/users/{id}/role",
		httpx.Chain(http.HandlerFunc(h.HandleSetRole),
			r.Guard.Middleware(domain.RoleAdmin),
			httpx.RateLimitByUser(httpx.AdminLimit),
		),
	)
	r.Mux.Handle("POST /admin/users/{id}/signout",
		httpx.Chain(http.HandlerFunc(h.HandleSignOut),
			r.Guard.Middleware(domain.RoleAdmin),
			httpx.RateLimitByUser(httpx.AdminLimit),
		),
	)
}

func (r *Router) registerBilling() {
	h := &BillingHandler{UserService: r.UserService}

	r.Mux.Handle("POST /billing/cancel",
		httpx.Chain(http.HandlerFunc(h.HandleCancel),
			r.Guard.Middleware(domain.RoleUser),
			httpx.RateLimitByUser(httpx.AdminLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Probes and scrapes are not rate limited; the orchestrator owns them.
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys))
	r.Mux.Handle("GET /metrics", promhttp.Handler())

	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.SessionLimit),
		),
	)
}
