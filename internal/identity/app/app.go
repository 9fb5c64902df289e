package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/external"
	httpapi "github.com/aussiebroadwan/identity/internal/identity/http"
	"github.com/aussiebroadwan/identity/internal/identity/metrics"
	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/internal/identity/session"
	"github.com/aussiebroadwan/identity/internal/identity/store/drivers/postgres"
	"github.com/aussiebroadwan/identity/internal/identity/store/drivers/sqlite"
	"github.com/aussiebroadwan/identity/internal/identity/store/sqlstore"
	"github.com/aussiebroadwan/identity/internal/identity/token"
	"github.com/aussiebroadwan/identity/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application holds the identity service and its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       *sqlstore.Store
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	meta       *session.Meta
	providers  *external.Registry
	flow       *external.Flow
	identities *service.IdentityService
	tokens     *token.Generator

	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "identity",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New builds the application. Every configuration problem, including an
// unreachable OpenID issuer, is reported here rather than on first use.
func New(ctx context.Context, cfg Config, providers ProvidersConfig) (*Application, error) {
	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	meta, err := session.NewMeta(cfg.HomeURL, cfg.AuthBaseURL, session.Config{
		CookieNameSuffix:    cfg.CookieSuffix,
		SessionSecret:       cfg.SessionSecret,
		ExternalLoginSecret: cfg.ExternalLoginSecret,
		TokenLoginSecret:    cfg.TokenLoginSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	app.meta = meta

	app.providers, err = providers.Build(ctx, &http.Client{Timeout: cfg.ProviderTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}
	app.logger.Info("external providers registered", "providers", app.providers.Names())

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initHTTP(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("identity service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown drains in-flight requests and closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down identity service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("identity service stopped")
	return nil
}

// OpenStore connects to the configured database without migrating it.
func OpenStore(ctx context.Context, cfg Config) (*sqlstore.Store, error) {
	switch cfg.DatabaseDriver {
	case DriverPostgres:
		return postgres.NewStore(ctx, cfg.DatabaseDSN, postgres.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
		})
	case DriverSQLite:
		return sqlite.NewStore(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, cfg.DatabaseDriver)
	}
}

// Migrate applies the schema migrations of the configured database.
func Migrate(ctx context.Context, cfg Config, logger *slog.Logger) error {
	db, err := OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	logger.Info("database migrations applied successfully", "driver", cfg.DatabaseDriver)
	return nil
}

func (app *Application) initDatabase(ctx context.Context) error {
	db, err := OpenStore(ctx, app.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

func (app *Application) initServices() error {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(app.db.DB(), app.cfg.DatabaseDriver),
	)
	app.metrics = metrics.New(app.registry)

	names, err := service.NewNameGenerator(app.cfg.UserNamePrefix, app.cfg.UserNameDigits)
	if err != nil {
		return fmt.Errorf("failed to initialize name generator: %w", err)
	}
	app.identities = service.NewIdentityService(app.db.Identities(), names).
		WithConflictObserver(app.metrics)

	app.tokens, err = token.NewGenerator(app.cfg.TokenMaxDuration)
	if err != nil {
		return fmt.Errorf("failed to initialize token generator: %w", err)
	}

	app.flow = external.NewFlow(app.providers, app.identities, app.tokens).
		WithObserver(app.metrics)
	return nil
}

func (app *Application) initHTTP() error {
	router, err := httpapi.NewRouter(httpapi.Deps{
		HomeURL:      app.cfg.HomeURL,
		AuthBaseURL:  app.cfg.AuthBaseURL,
		Meta:         app.meta,
		Flow:         app.flow,
		Identities:   app.identities,
		Tokens:       app.tokens,
		Store:        app.db,
		Registry:     app.registry,
		BuildVersion: BuildVersion,
		Logger:       app.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              ":" + strconv.Itoa(app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return nil
}
