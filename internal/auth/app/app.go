package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oncreesaas/oncree/internal/auth/cooldown"
	"github.com/oncreesaas/oncree/internal/auth/devotp"
	httpapi "github.com/oncreesaas/oncree/internal/auth/http"
	"github.com/oncreesaas/oncree/internal/auth/notify"
	"github.com/oncreesaas/oncree/internal/auth/service"
	"github.com/oncreesaas/oncree/internal/auth/store"
	"github.com/oncreesaas/oncree/internal/auth/store/drivers/sqlite"
	"github.com/oncreesaas/oncree/pkg/cryptox"
	"github.com/oncreesaas/oncree/pkg/httpx"
	"github.com/oncreesaas/oncree/pkg/jwtx"
	"github.com/oncreesaas/oncree/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"

	// authenticatorIssuer is the label authenticator apps show next to a TOTP entry.
	authenticatorIssuer = "OncreeSaaS"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	keyManager *jwtx.KeyManager
	notifier   notify.Notifier
	limiter    cooldown.Limiter
	redis      *redis.Client      // nil without REDIS_ADDR
	devOTP     *devotp.MemoryStore // nil unless OTP_RETURN_TO_CLIENT

	// Services
	challengeService    *service.ChallengeService
	tokenService        *service.TokenService
	passwordService     *service.PasswordService
	loginService        *service.LoginService
	mfaService          *service.MFAService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password and code hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keyManager, err := InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager

	if err := app.initDelivery(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initRedis()
	app.initCooldown()
	app.initServices()

	if err := app.seed(); err != nil {
		_ = app.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	if err := app.Close(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// Close releases the database and Redis connections.
func (app *Application) Close() error {
	var errs []error

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initDelivery picks how codes reach the user. SMTP when a host is
// configured, the log otherwise. With OTP_RETURN_TO_CLIENT every delivered
// code is also captured for GET /dev/otp.
func (app *Application) initDelivery() error {
	if app.cfg.SMTP.Host != "" {
		smtpNotifier, err := notify.NewSMTPNotifier(app.cfg.SMTP)
		if err != nil {
			return fmt.Errorf("failed to initialize smtp: %w", err)
		}
		app.notifier = smtpNotifier
		app.logger.Info("smtp delivery enabled", "host", app.cfg.SMTP.Host, "port", app.cfg.SMTP.Port)
	} else {
		app.notifier = notify.LogNotifier{}
		app.logger.Warn("SMTP_HOST not set, codes are written to the log only")
	}

	if app.cfg.OTPReturnToClient {
		app.devOTP = devotp.NewMemoryStore()
		app.notifier = &notify.Capture{Next: app.notifier, Store: app.devOTP}
	}

	return nil
}

// initRedis connects to Redis when REDIS_ADDR is set. Every replica then
// shares resend cooldowns and rate limit buckets.
func (app *Application) initRedis() {
	if app.cfg.RedisAddr == "" {
		return
	}

	app.redis = redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := app.redis.Ping(ctx).Err(); err != nil {
		app.logger.Warn("redis unreachable, cooldown and rate limits fail open until it recovers",
			"addr", app.cfg.RedisAddr, "error", err)
		return
	}
	app.logger.Info("redis connected", "addr", app.cfg.RedisAddr, "db", app.cfg.RedisDB)
}

// initCooldown picks the resend cooldown backend.
func (app *Application) initCooldown() {
	switch {
	case app.cfg.ResendCooldown == 0:
		app.limiter = cooldown.Disabled{}
		app.logger.Warn("resend cooldown disabled")
	case app.redis != nil:
		app.limiter = cooldown.NewRedis(app.redis, app.cfg.ResendCooldown)
	default:
		app.limiter = cooldown.NewMemory(app.cfg.ResendCooldown)
	}
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.challengeService = &service.ChallengeService{
		Store:       app.db,
		Notifier:    app.notifier,
		Cooldown:    app.limiter,
		TTL:         app.cfg.CodeTTL,
		MaxAttempts: app.cfg.CodeMaxAttempts,
	}

	app.tokenService = &service.TokenService{
		KeyManager: app.keyManager,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.TokenTTL,
	}

	app.passwordService = &service.PasswordService{
		Store:      app.db,
		Challenges: app.challengeService,
	}
	app.loginService = &service.LoginService{
		Store:      app.db,
		Challenges: app.challengeService,
		Tokens:     app.tokenService,
	}
	app.mfaService = &service.MFAService{
		Store:  app.db,
		Issuer: authenticatorIssuer,
	}
	app.userService = &service.UserService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.ChallengeRetention,
	)
}

// seed creates the configured accounts on startup.
func (app *Application) seed() error {
	data, err := app.cfg.SeedData()
	if err != nil {
		return err
	}
	if len(data.Users) == 0 {
		return nil
	}

	ctx := slogx.WithContext(context.Background(), app.logger)
	created, err := app.userService.Seed(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	app.logger.Info("seed users applied", "created", created, "configured", len(data.Users))
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.keyManager.Verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.PasswordService = app.passwordService
	router.LoginService = app.loginService
	router.MFAService = app.mfaService
	router.UserService = app.userService
	router.ChallengeService = app.challengeService

	if app.devOTP != nil {
		router.DevOTP = app.devOTP
	}
	if app.redis != nil {
		router.CooldownPing = func(ctx context.Context) error {
			return app.redis.Ping(ctx).Err()
		}
		router.RateLimitStore = httpx.NewRedisRateLimitStore(app.redis)
	}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
