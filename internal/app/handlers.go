package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	httpx "github.com/yungbote/storybook-backend/internal/http"
	httpH "github.com/yungbote/storybook-backend/internal/http/handlers"
	httpMW "github.com/yungbote/storybook-backend/internal/http/middleware"
	"github.com/yungbote/storybook-backend/internal/observability"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

type Handlers struct {
	Health       *httpH.HealthHandler
	Auth         *httpH.AuthHandler
	ChildProfile *httpH.ChildProfileHandler
	Book         *httpH.BookHandler
}

type Middleware struct {
	Auth       *httpMW.AuthMiddleware
	BookCreate *httpMW.UserRateLimiter
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(pingDB(db)),
		Auth:         httpH.NewAuthHandler(log, services.Auth),
		ChildProfile: httpH.NewChildProfileHandler(log, services.ChildProfile),
		Book:         httpH.NewBookHandler(log, services.Book),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services, metrics *observability.Metrics) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:       httpMW.NewAuthMiddleware(log, services.Auth),
		BookCreate: httpMW.NewUserRateLimiter(log, cfg.BookCreateRatePerMinute, cfg.BookCreateBurst, metrics),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *httpx.Server {
	serviceName := ""
	if cfg.OTelEnabled {
		serviceName = cfg.OTelServiceName
	}
	return httpx.NewServer(cfg.Addr(), httpx.RouterConfig{
		Log:                 log,
		ServiceName:         serviceName,
		AllowedOrigins:      cfg.AllowedOrigins,
		Metrics:             metrics,
		AuthHandler:         handlers.Auth,
		AuthMiddleware:      middleware.Auth,
		ChildProfileHandler: handlers.ChildProfile,
		BookHandler:         handlers.Book,
		HealthHandler:       handlers.Health,
		BookCreateLimiter:   middleware.BookCreate,
	})
}

func pingDB(db *gorm.DB) httpH.Pinger {
	return func(ctx context.Context) error {
		if db == nil {
			return fmt.Errorf("database not configured")
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
