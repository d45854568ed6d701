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

	httpapi "github.com/aussiebroadwan/worklog/internal/auth/http"
	"github.com/aussiebroadwan/worklog/internal/auth/notify"
	"github.com/aussiebroadwan/worklog/internal/auth/service"
	"github.com/aussiebroadwan/worklog/internal/auth/store"
	"github.com/aussiebroadwan/worklog/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/worklog/pkg/cryptox"
	"github.com/aussiebroadwan/worklog/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	keys     *AuthKeys
	registry *prometheus.Registry
	metrics  *service.Metrics

	// Credential core
	hasher    *cryptox.Hasher
	validator *cryptox.StrengthValidator
	generator *cryptox.PasswordGenerator
	tokens    *cryptox.ResetTokenIssuer
	mailer    notify.Mailer

	// Services
	authService         *service.AuthService
	passwordService     *service.PasswordService
	userService         *service.UserService
	bootstrapService    *service.BootstrapService
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
			Service: "worklog-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initCredentials(); err != nil {
		return nil, err
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keys, err := InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keys = keys

	if err := app.initMetrics(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initMailer()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	// Reset and change notifications are delivered in the background.
	app.passwordService.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initCredentials builds the hashing, strength and token primitives from
// configuration.
func (app *Application) initCredentials() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewHasher(app.cfg.PasswordHashCost, pepper)

	policy, err := app.cfg.PasswordPolicy()
	if err != nil {
		return fmt.Errorf("failed to load password policy: %w", err)
	}
	app.validator = cryptox.NewStrengthValidator(policy)
	app.generator = &cryptox.PasswordGenerator{Validator: app.validator}
	app.tokens = cryptox.NewResetTokenIssuer(app.cfg.PasswordTokenValidity)

	app.logger.Info("password policy loaded",
		"min_length", app.validator.MinLength,
		"hash_cost", app.cfg.PasswordHashCost,
		"token_validity", app.cfg.PasswordTokenValidity,
		"policy_file", app.cfg.PasswordPolicyFile,
	)
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	version, dirty, err := db.SchemaVersion()
	if err == nil && dirty {
		err = fmt.Errorf("schema version %d is dirty", version)
	}
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to read database schema version: %w", err)
	}

	app.logger.Info("database migrations applied", "file", app.cfg.DatabaseFile, "schema_version", version)
	return nil
}

func (app *Application) initMetrics() error {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m, err := service.NewMetrics(app.registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	app.metrics = m
	return nil
}

func (app *Application) initMailer() {
	switch app.cfg.MailMode {
	case MailModeSMTP:
		app.mailer = notify.NewSMTPMailer(app.cfg.SMTP)
		app.logger.Info("smtp mailer enabled", "host", app.cfg.SMTP.Host, "port", app.cfg.SMTP.Port)
	default:
		app.mailer = &notify.LogMailer{
			Logger:    app.logger,
			LogBodies: app.cfg.Env == "dev",
		}
		app.logger.Warn("mail is logged, not sent", "env", app.cfg.Env)
	}
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:     app.db,
		Hasher:    app.hasher,
		Signer:    app.keys.Signer,
		Issuer:    app.cfg.Issuer,
		AccessTTL: app.cfg.AccessTokenTTL,
		Metrics:   app.metrics,
	}

	app.passwordService = &service.PasswordService{
		Store:     app.db,
		Hasher:    app.hasher,
		Validator: app.validator,
		Tokens:    app.tokens,
		Mailer:    app.mailer,
		ResetURL:  app.cfg.PasswordResetURL,
		Metrics:   app.metrics,
	}

	app.userService = &service.UserService{
		Store:     app.db,
		Hasher:    app.hasher,
		Validator: app.validator,
		Generator: app.generator,
	}

	app.bootstrapService = &service.BootstrapService{
		Users: app.userService,
		Token: app.cfg.BootstrapToken,
	}
	if app.cfg.BootstrapToken == "" {
		app.logger.Info("bootstrap disabled: BOOTSTRAP_TOKEN is not set")
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	app.housekeepingService.Metrics = app.metrics
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys.KeySet,
		app.keys.Verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	router.PasswordService = app.passwordService
	router.UserService = app.userService
	router.BootstrapService = app.bootstrapService
	router.RateLimits = app.cfg.RateLimits
	router.Metrics = app.metrics
	router.MetricsHandler = promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{Registry: app.registry})
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
