// Package routes handles the setup and configuration of API routes
package routes

import (
	"log/slog"
	"time"

	_ "authd/docs" // Import swagger docs
	"authd/internal/api/handlers"
	"authd/internal/api/middleware"
	"authd/internal/auth"
	"authd/internal/config"
	"authd/internal/events"
	"authd/internal/repository"
	"authd/internal/tasks"
	"authd/internal/verification"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies are the collaborators the HTTP layer is built from
type Dependencies struct {
	Users  repository.UserRepository
	Codes  repository.VerificationCodeRepository
	Tokens repository.TokenRepository
	Tasks  tasks.Enqueuer
	Events events.Publisher
	Checks map[string]handlers.HealthCheck
	Logger *slog.Logger
	// Done stops background maintenance such as rate limiter eviction
	Done <-chan struct{}
}

// SetupRoutes configures all API routes and their handlers
func SetupRoutes(cfg *config.Config, deps Dependencies) *gin.Engine {
	if deps.Events == nil {
		deps.Events = events.NopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))

	// Routes without rate limiting
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	if deps.Done != nil {
		go limiter.Run(deps.Done, 10*time.Minute)
	}
	r.Use(limiter.Middleware())

	// Initialize services
	authService := auth.NewService(cfg.JWT, deps.Users, deps.Tokens)
	codeService := verification.NewService(deps.Codes, cfg.Verification)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authService, deps.Users)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.Checks)
	authHandler := handlers.NewAuthHandler(deps.Users, authService, codeService, deps.Tasks, deps.Events)
	userHandler := handlers.NewUserHandler(authService, deps.Events)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Health check (no authentication required)
		v1.GET("/health", healthHandler.Health)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/verification-code", authHandler.RequestVerificationCode)
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)

			// Routes for the bearer of an access token
			protected := authGroup.Group("")
			protected.Use(authMiddleware.AuthRequired())
			{
				protected.GET("/me", userHandler.Me)
				protected.GET("/sessions", userHandler.ListSessions)
				protected.POST("/sessions/revoke-all", userHandler.RevokeAllSessions)
			}
		}
	}

	return r
}
