package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/oncreesaas/oncree/internal/auth/devotp"
	"github.com/oncreesaas/oncree/internal/auth/service"
	"github.com/oncreesaas/oncree/internal/auth/store"
	"github.com/oncreesaas/oncree/pkg/httpx"
	"github.com/oncreesaas/oncree/pkg/jwtx"
	"github.com/oncreesaas/oncree/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/oncreesaas/oncree/api/auth" // Swagger docs
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

	store            store.Store
	PasswordService  *service.PasswordService
	LoginService     *service.LoginService
	MFAService       *service.MFAService
	UserService      *service.UserService
	ChallengeService *service.ChallengeService

	// DevOTP mounts GET /dev/otp when set. Only wired outside production.
	DevOTP devotp.Store

	// CooldownPing adds the cooldown backend to the readiness report.
	CooldownPing func(context.Context) error

	// Metrics defaults to the default Prometheus registry.
	Metrics http.Handler

	// RateLimitStore holds the rate limit buckets. Nil keeps them in memory.
	RateLimitStore httpx.RateLimitStore
	limits         *httpx.RateLimiter
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
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.limits = httpx.NewRateLimiter(r.RateLimitStore)

	r.registerPassword()
	r.registerLogin()
	r.registerAccount()
	r.registerAdmin()
	r.registerDev()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			OncreeSaaS Authentication Service API
//	@version		0.1.0
//	@description	Password login with an optional second factor, and password recovery, both built on six digit one-time codes.
//	@description
//	@description				Access tokens are EdDSA signed JWTs and can be verified using the JWKS endpoint.
//
//	@contact.name				OncreeSaaS
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

func (r *Router) registerPassword() {
	h := &PasswordHandler{PasswordService: r.PasswordService}

	// Code endpoints are limited per IP and per target email, so neither a
	// single client nor a distributed guesser can hammer one account.
	r.Mux.Handle("POST /password/send-code",
		httpx.Chain(http.HandlerFunc(h.HandleSendCode),
			r.limits.ByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /password/verify-code",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyCode),
			r.limits.ByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /password/reset",
		httpx.Chain(http.HandlerFunc(h.HandleReset),
			r.limits.ByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
}

func (r *Router) registerLogin() {
	h := &LoginHandler{LoginService: r.LoginService}

	r.Mux.Handle("POST /login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			r.limits.ByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /mfa/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			r.limits.ByIPAndJSONField(httpx.StrictLimit, "challenge_id"),
		),
	)
	r.Mux.Handle("POST /mfa/resend",
		httpx.Chain(http.HandlerFunc(h.HandleResend),
			r.limits.ByIPAndJSONField(httpx.StrictLimit, "challenge_id"),
		),
	)
}

func (r *Router) registerAccount() {
	h := &MeHandler{UserService: r.UserService, MFAService: r.MFAService}

	authed := func(fn http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(fn,
			httpx.AuthnMiddleware(r.verifier),
			r.limits.ByUser(limit),
		)
	}

	r.Mux.Handle("GET /v1/me", authed(h.HandleMe, httpx.LenientLimit))
	r.Mux.Handle("PUT /v1/me/mfa", authed(h.HandleSetMFA, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/me/mfa/totp/enroll", authed(h.HandleEnrollTOTP, httpx.ModerateLimit))

	// TOTP codes can be brute forced like any other code.
	r.Mux.Handle("POST /v1/me/mfa/totp/confirm", authed(h.HandleConfirmTOTP, httpx.StrictLimit))
	r.Mux.Handle("DELETE /v1/me/mfa/totp", authed(h.HandleDisableTOTP, httpx.StrictLimit))
}

func (r *Router) registerAdmin() {
	h := &ChallengesHandler{ChallengeService: r.ChallengeService}

	r.Mux.Handle("GET /v1/admin/challenges",
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAccountType("admin"),
			httpx.RequireMFA(),
			r.limits.ByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerDev() {
	if r.DevOTP == nil {
		return
	}
	r.logger.Warn("dev otp endpoint enabled, codes are readable over http")

	r.Mux.Handle("GET /dev/otp",
		httpx.Chain(&DevOTPHandler{Store: r.DevOTP},
			r.limits.ByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			r.limits.ByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys, r.CooldownPing),
			r.limits.ByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			r.limits.ByIP(httpx.PublicLimit),
		),
	)

	metrics := r.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.Mux.Handle("GET /metrics", metrics)
}
