package http

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/aussiebroadwan/chatgate/api/gateway" // Swagger docs
	"github.com/aussiebroadwan/chatgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/chatgate/internal/gateway/service"
	"github.com/aussiebroadwan/chatgate/internal/gateway/store"
	"github.com/aussiebroadwan/chatgate/pkg/httpx"
	"github.com/aussiebroadwan/chatgate/pkg/keyx"
	"github.com/aussiebroadwan/chatgate/pkg/slogx"
)

// PublicPaths never require an API key. Entries ending in "/" are prefixes.
var PublicPaths = []string{
	"/swagger/",
	"/health",
	"/livez",
	"/readyz",
	"/metrics",
	"/current-key",
}

// RouterConfig holds the dependencies shared by the handlers.
type RouterConfig struct {
	// Keys is the KeyManager's read side. The gate is built over it.
	Keys keyx.CurrentKeySource

	// Clock is used by the readiness check. Defaults to keyx.SystemClock.
	Clock keyx.Clock

	// AdminSecret guards /current-key.
	AdminSecret string

	BuildVersion string
	Store        store.Store
	Metrics      *metrics.Metrics // optional
	CORS         httpx.CORSConfig // defaults to httpx.DefaultCORSConfig
	Logger       *slog.Logger

	// TrustedProxies may set X-Forwarded-For and X-Real-IP. Requests from
	// any other peer are rate limited by RemoteAddr.
	TrustedProxies []netip.Prefix
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         keyx.CurrentKeySource
	clock        keyx.Clock
	adminSecret  string
	buildVersion string
	startTime    time.Time
	store        store.Store
	metrics      *metrics.Metrics
	logger       *slog.Logger
	proxies      []netip.Prefix

	ChatService        *service.ChatService
	KeyRotationService *service.KeyRotationService
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.Clock == nil {
		cfg.Clock = keyx.SystemClock
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS = httpx.DefaultCORSConfig()
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         cfg.Keys,
		clock:        cfg.Clock,
		adminSecret:  cfg.AdminSecret,
		buildVersion: cfg.BuildVersion,
		startTime:    time.Now(),
		store:        cfg.Store,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		proxies:      cfg.TrustedProxies,
	}

	var gate httpx.Validator = keyx.NewGate(cfg.Keys, PublicPaths...)
	if r.metrics != nil {
		gate = r.metrics.InstrumentGate(gate)
	}

	// Preflight requests are answered by CORS before the gate sees them.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORSMiddleware(cfg.CORS),
		httpx.APIKeyMiddleware(gate),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerChat()
	r.registerKeys()
	r.registerSystem()

	r.Mux.Handle("/swagger/",
		httpx.Chain(httpSwagger.Handler(),
			httpx.RateLimitByIP(httpx.PublicLimit, r.proxies...),
		),
	)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			chatgate API Gateway
//	@version		0.1.0
//	@description	Authenticating gateway in front of an OpenAI-compatible chat completion API.
//	@description
//	@description				Requests carry a rotating API key in the x-api-key header. The key changes every ISO week
//	@description				and is available to administrators from /current-key.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/chatgate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8000
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	APIKey
//	@in							header
//	@name						x-api-key
//	@description				Rotating weekly API key.
//
//	@securityDefinitions.apikey	AdminSecret
//	@in							header
//	@name						admin-secret
//	@description				Administrator secret.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerChat() {
	h := &ChatHandler{ChatService: r.ChatService}

	// POST /chat - moderate rate limit by key + IP
	r.Mux.Handle("POST /chat",
		httpx.Chain(h,
			httpx.RateLimitByKey(httpx.ModerateLimit, r.proxies...),
		),
	)
}

func (r *Router) registerKeys() {
	h := &CurrentKeyHandler{KeyRotationService: r.KeyRotationService}

	// GET /current-key - strict rate limit by IP (guards the admin secret
	// against brute force)
	r.Mux.Handle("GET /current-key",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.StrictLimit, r.proxies...),
			httpx.RequireSecretHeader(httpx.AdminSecretHeader, r.adminSecret),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - public rate limits (monitoring systems may poll frequently)
	livez := LivezHandler(r.startTime, r.buildVersion)
	r.Mux.Handle("GET /livez", httpx.Chain(livez, httpx.RateLimitByIP(httpx.PublicLimit, r.proxies...)))
	r.Mux.Handle("GET /health", httpx.Chain(livez, httpx.RateLimitByIP(httpx.PublicLimit, r.proxies...)))

	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys, r.clock),
			httpx.RateLimitByIP(httpx.PublicLimit, r.proxies...),
		),
	)

	if r.metrics != nil {
		r.Mux.Handle("GET /metrics",
			httpx.Chain(r.metrics.Handler(),
				httpx.RateLimitByIP(httpx.PublicLimit, r.proxies...),
			),
		)
	}
}
