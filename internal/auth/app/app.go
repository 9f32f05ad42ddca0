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

	"github.com/aussiebroadwan/daybook/internal/auth/cookies"
	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	httpapi "github.com/aussiebroadwan/daybook/internal/auth/http"
	"github.com/aussiebroadwan/daybook/internal/auth/service"
	"github.com/aussiebroadwan/daybook/internal/auth/store"
	"github.com/aussiebroadwan/daybook/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/daybook/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/daybook/internal/auth/token"
	"github.com/aussiebroadwan/daybook/pkg/cryptox"
	"github.com/aussiebroadwan/daybook/pkg/httpx"
	"github.com/aussiebroadwan/daybook/pkg/jwtx"
	"github.com/aussiebroadwan/daybook/pkg/mailx"
	"github.com/aussiebroadwan/daybook/pkg/otelx"
	"github.com/aussiebroadwan/daybook/pkg/slogx"
)

const (
	ServiceName = "daybook-auth"

	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	closers    []func() error
	keyManager *jwtx.KeyManager
	codec      *token.Codec
	hasher     *cryptox.Hasher
	otel       *otelx.OTel

	// Services
	tokenService        *service.TokenService
	userService         *service.UserService
	resetService        *service.ResetService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService
	guard               *service.Guard

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: ServiceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := context.Background()

	ot, err := otelx.Setup(ctx, otelx.Config{
		Enable:      cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: ServiceName,
		Version:     BuildVersion,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	app.otel = ot

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewHasher(pepper)

	if err := app.initStore(ctx); err != nil {
		return nil, err
	}

	app.keyManager, err = InitAuthKeys(cfg, app.logger)
	if err != nil {
		app.closeStore()
		return nil, err
	}
	app.codec, err = token.NewCodec(app.keyManager, cfg.Issuer, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		app.closeStore()
		return nil, fmt.Errorf("failed to build token codec: %w", err)
	}

	app.initServices()

	if err := app.bootstrap(ctx); err != nil {
		app.closeStore()
		return nil, err
	}

	app.initHTTP()

	return app, nil
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
			app.closeStore()
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

	if err := app.otel.Shutdown(ctx); err != nil {
		app.logger.Error("error flushing traces", "error", err)
	}

	if err := app.closeStore(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initStore opens the user directory and, when configured, moves sessions
// to Redis.
func (app *Application) initStore(ctx context.Context) error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db
	app.closers = append(app.closers, db.Close)

	if err := db.ApplyMigrations(); err != nil {
		app.closeStore()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.logger.Info("database migrations applied successfully")

	if app.cfg.SessionBackend != SessionBackendRedis {
		return nil
	}

	sessions, err := redis.Open(ctx, redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	if err != nil {
		app.closeStore()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.closers = append(app.closers, sessions.Close)
	app.db = store.WithSessions(db, sessions, sessions.Ping)

	app.logger.Info("sessions stored in redis", "addr", app.cfg.RedisAddr, "db", app.cfg.RedisDB)
	return nil
}

// closeStore closes the backends in reverse order of opening.
func (app *Application) closeStore() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Error("error closing store", "error", err)
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

func (app *Application) mailer() mailx.Mailer {
	if app.cfg.SMTPAddr == "" {
		app.logger.Warn("SMTP_ADDR not set; reset mails are written to the log")
		return mailx.LogMailer{Logger: app.logger}
	}
	return mailx.NewSMTPMailer(mailx.SMTPConfig{
		Addr:     app.cfg.SMTPAddr,
		User:     app.cfg.SMTPUser,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.SMTPFrom,
	})
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Store:  app.db,
		Codec:  app.codec,
		Hasher: app.hasher,
	}
	app.userService = &service.UserService{Store: app.db, Hasher: app.hasher}
	app.resetService = &service.ResetService{
		Store:   app.db,
		Hasher:  app.hasher,
		Mailer:  app.mailer(),
		URLBase: app.cfg.ResetURLBase,
		TTL:     app.cfg.ResetTTL,
	}
	app.bootstrapService = &service.BootstrapService{Store: app.db, Hasher: app.hasher}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// bootstrap seeds the first admin from the environment. It is a no-op once
// any account exists.
func (app *Application) bootstrap(ctx context.Context) error {
	if app.cfg.AdminEmail == "" {
		ok, err := app.bootstrapService.IsBootstrapped(ctx)
		if err != nil {
			return fmt.Errorf("failed to check bootstrap state: %w", err)
		}
		if !ok {
			app.logger.Warn("directory is empty and ADMIN_EMAIL is not set; no admin account exists")
		}
		return nil
	}

	created, err := app.bootstrapService.EnsureAdmin(ctx, domain.BootstrapData{
		AdminEmail:    app.cfg.AdminEmail,
		AdminPassword: app.cfg.AdminPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	if created {
		app.logger.Info("bootstrap admin created", "email", domain.NormalizeEmail(app.cfg.AdminEmail))
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	cks := cookies.New(app.cfg.CookieConfig())
	app.guard = &service.Guard{Codec: app.codec, Cookies: cks, Store: app.db}

	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		BuildVersion,
		app.cfg.LogoutRedirectURL,
		app.db,
		app.logger,
	)
	router.Use(httpx.Timeout(app.cfg.RequestTimeout))
	router.Use(otelx.Middleware(ServiceName))

	router.Cookies = cks
	router.Guard = app.guard
	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.ResetService = app.resetService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       app.cfg.RequestTimeout,
		WriteTimeout:      app.cfg.RequestTimeout + 5*time.Second, // handler budget plus the reply
		IdleTimeout:       time.Minute,
	}
}
