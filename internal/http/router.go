package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/storybook-backend/internal/http/handlers"
	httpMW "github.com/yungbote/storybook-backend/internal/http/middleware"
	"github.com/yungbote/storybook-backend/internal/observability"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics

	AuthHandler         *httpH.AuthHandler
	AuthMiddleware      *httpMW.AuthMiddleware
	ChildProfileHandler *httpH.ChildProfileHandler
	BookHandler         *httpH.BookHandler
	HealthHandler       *httpH.HealthHandler
	BookCreateLimiter   *httpMW.UserRateLimiter
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	// Auth (public)
	if cfg.AuthHandler != nil {
		auth := r.Group("/auth")
		auth.POST("/register", cfg.AuthHandler.Register)
		auth.POST("/login", cfg.AuthHandler.Login)
	}

	protected := r.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Child profiles
	if cfg.ChildProfileHandler != nil {
		protected.POST("/child_profiles", cfg.ChildProfileHandler.CreateProfile)
		protected.GET("/child_profiles", cfg.ChildProfileHandler.ListProfiles)
		protected.PUT("/child_profiles/:id", cfg.ChildProfileHandler.UpdateProfile)
	}

	// Books
	if cfg.BookHandler != nil {
		create := []gin.HandlerFunc{cfg.BookHandler.CreateBook}
		if cfg.BookCreateLimiter != nil {
			create = append([]gin.HandlerFunc{cfg.BookCreateLimiter.Middleware()}, create...)
		}
		protected.POST("/books", create...)
		protected.GET("/books", cfg.BookHandler.ListBooks)
		protected.GET("/books/generations/:requestId", cfg.BookHandler.GetProgress)
		protected.GET("/books/:bookId", cfg.BookHandler.GetBook)
		protected.PUT("/books/:bookId", cfg.BookHandler.EditBook)
		protected.GET("/books/:bookId/epub", cfg.BookHandler.ExportEPUB)
	}

	return r
}
