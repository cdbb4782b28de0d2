package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/chatgate/internal/gateway/http"
	"github.com/aussiebroadwan/chatgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/chatgate/internal/gateway/service"
	"github.com/aussiebroadwan/chatgate/internal/gateway/store"
	"github.com/aussiebroadwan/chatgate/pkg/httpx"
	"github.com/aussiebroadwan/chatgate/pkg/keyx"
	"github.com/aussiebroadwan/chatgate/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the gateway with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger
	clock  keyx.Clock

	// Core dependencies
	store      store.Store
	keyManager *keyx.KeyManager
	metrics    *metrics.Metrics

	// Services
	chatService        *service.ChatService
	keyRotationService *service.KeyRotationService
	scheduler          *service.RotationScheduler // nil unless the policy is scheduled

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// Option customises an Application.
type Option func(*Application)

// WithLogger replaces the logger built from the config.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Application) { a.logger = logger }
}

// WithClock replaces the system clock.
func WithClock(clock keyx.Clock) Option {
	return func(a *Application) { a.clock = clock }
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config, opts ...Option) (*Application, error) {
	app := &Application{
		cfg:     cfg,
		clock:   keyx.SystemClock,
		metrics: metrics.New(),
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		app.logger = slogx.New(slogx.Config{
			Service: "chatgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		})
	}

	st, err := InitKeyStore(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize key store: %w", err)
	}
	app.store = st

	keyManager, err := InitKeyManager(context.Background(), cfg, st, app.clock, app.logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	app.keyManager = keyManager
	app.metrics.SetKeyExpiry(keyManager.Current())

	if err := app.initServices(); err != nil {
		_ = st.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// KeyManager returns the key manager, mainly for tests and tooling.
func (app *Application) KeyManager() *keyx.KeyManager { return app.keyManager }

// Run starts the application and blocks until ctx is done, a shutdown
// signal arrives or the server fails.
func (app *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", app.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", app.server.Addr, err)
	}
	return app.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (app *Application) Serve(ctx context.Context, ln net.Listener) error {
	if app.scheduler != nil {
		app.scheduler.Start()
	}

	app.logger.Info("gateway starting",
		"addr", ln.Addr().String(),
		"version", BuildVersion,
		"rotation_policy", app.cfg.RotationPolicy,
		"key_store", app.cfg.KeyStoreDriver,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.Serve(ln)
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		app.logger.Info("context cancelled, shutting down")
	}

	if err := app.Shutdown(); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gateway...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.scheduler != nil {
		app.scheduler.Stop(ctx)
	}

	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing key store", "error", err)
		return err
	}

	app.logger.Info("gateway stopped")
	return nil
}

// initServices initializes the rotation, scheduler and chat services
func (app *Application) initServices() error {
	app.keyRotationService = &service.KeyRotationService{
		KeyManager: app.keyManager,
		Policy:     app.cfg.RotationPolicy,
		Clock:      app.clock,
		Metrics:    app.metrics,
		Logger:     app.logger,
	}

	if app.cfg.RotationPolicy == service.PolicyScheduled {
		scheduler, err := service.NewRotationScheduler(app.keyRotationService, app.logger, app.cfg.RotationSchedule)
		if err != nil {
			return fmt.Errorf("invalid KEY_ROTATION_SCHEDULE %q: %w", app.cfg.RotationSchedule, err)
		}
		app.scheduler = scheduler
	}

	pool, err := service.NewKeyPool(app.cfg.UpstreamKeys, app.cfg.UpstreamKeyMode)
	if err != nil {
		return fmt.Errorf("failed to build upstream key pool: %w", err)
	}

	app.chatService, err = service.NewChatService(service.ChatConfig{
		URL:       app.cfg.UpstreamURL,
		Model:     app.cfg.UpstreamModel,
		MaxTokens: app.cfg.UpstreamMaxTokens,
		Timeout:   app.cfg.UpstreamTimeout,
		Keys:      pool,
	}, app.metrics, app.logger)
	if err != nil {
		return err
	}

	app.logger.Info("upstream configured",
		"url", app.cfg.UpstreamURL,
		"model", app.cfg.UpstreamModel,
		"keys", pool.Len(),
		"key_mode", pool.Mode(),
	)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	cors := httpx.DefaultCORSConfig()
	if len(app.cfg.CORSAllowedOrigins) > 0 {
		cors.AllowedOrigins = app.cfg.CORSAllowedOrigins
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Keys:         app.keyManager,
		Clock:        app.clock,
		AdminSecret:  app.cfg.AdminSecret,
		BuildVersion: BuildVersion,
		Store:        app.store,
		Metrics:      app.metrics,
		CORS:         cors,
		Logger:       app.logger,

		TrustedProxies: app.cfg.TrustedProxies,
	})

	router.ChatService = app.chatService
	router.KeyRotationService = app.keyRotationService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
