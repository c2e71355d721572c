package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/storybook-backend/internal/data/db"
	httpx "github.com/yungbote/storybook-backend/internal/http"
	"github.com/yungbote/storybook-backend/internal/observability"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics
	Server   *httpx.Server

	pg           *db.PostgresService
	shutdownOTel func(context.Context) error
}

func postgresConfig(cfg Config) db.PostgresConfig {
	return db.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		Name:     cfg.PostgresName,
		SSLMode:  cfg.PostgresSSLMode,
	}
}

func otelConfig(cfg Config) observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: cfg.OTelServiceName,
		Environment: cfg.OTelEnvironment,
		Version:     cfg.OTelVersion,
		Endpoint:    cfg.OTelEndpoint,
		Headers:     cfg.OTelHeaders,
		Insecure:    cfg.OTelInsecure,
		SampleRatio: cfg.OTelSampleRatio,
	}
}

// New connects every dependency and builds the HTTP server. Anything opened
// before a failure is closed again.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.JWTSecretKey == defaultJWTSecret {
		log.Warn("JWT_SECRET_KEY is not set; using the development default")
	}

	a := &App{Log: log, Cfg: cfg}
	a.shutdownOTel = observability.InitOTel(ctx, log, otelConfig(cfg))

	pg, err := db.NewPostgresService(log, postgresConfig(cfg))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	a.pg = pg
	if err := pg.AutoMigrateAll(); err != nil {
		a.Close()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	a.DB = pg.DB()

	clients, err := wireClients(log, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Clients = clients

	if cfg.MetricsEnabled {
		a.Metrics = observability.NewMetrics()
	}
	a.Repos = wireRepos(a.DB, log)
	a.Services, err = wireServices(log, cfg, a.Repos, a.Clients, a.Metrics)
	if err != nil {
		a.Close()
		return nil, err
	}

	handlers := wireHandlers(log, a.DB, a.Services)
	middleware := wireMiddleware(log, cfg, a.Services, a.Metrics)
	a.Server = wireServer(log, cfg, handlers, middleware, a.Metrics)
	return a, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests for
// up to the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("Server listening", "addr", a.Server.Addr())
		return a.Server.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Log.Info("Shutting down server", "timeout", a.Cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.Log.Warn("Postgres close failed", "error", err)
		}
	}
	if a.shutdownOTel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownOTel(ctx); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}

// Migrate runs the schema migrations and exits; it needs only Postgres.
func Migrate(log *logger.Logger, cfg Config) error {
	pg, err := db.NewPostgresService(log, postgresConfig(cfg))
	if err != nil {
		return fmt.Errorf("init postgres: %w", err)
	}
	defer func() { _ = pg.Close() }()
	if err := pg.AutoMigrateAll(); err != nil {
		return fmt.Errorf("postgres automigrate: %w", err)
	}
	log.Info("Migrations complete")
	return nil
}
