// Package routes handles the setup and configuration of API routes
package routes

import (
	"database/sql"
	"fmt"

	_ "passguard/docs" // Import swagger docs
	"passguard/internal/api/handlers"
	"passguard/internal/api/middleware"
	"passguard/internal/auth"
	"passguard/internal/config"
	"passguard/internal/email"
	"passguard/internal/expiry"
	"passguard/internal/policy"
	"passguard/internal/repository/postgres"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes and their handlers
func SetupRoutes(cfg *config.Config, db *sql.DB) (*gin.Engine, error) {
	r := gin.Default()

	healthHandler := handlers.NewHealthHandler(db)

	// Routes without rate limiting
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Apply rate limiting to all other routes
	r.Use(middleware.NewRateLimiter(cfg).Middleware())

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	auditRepo := postgres.NewAuditLogRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	loginAttemptRepo := postgres.NewLoginAttemptRepository(db)
	passwordResetRepo := postgres.NewPasswordResetRepository(db)
	historyRepo := postgres.NewPasswordHistoryRepository(db)
	forcedRepo := postgres.NewPasswordChangeRequiredRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)

	// Initialize services
	authService := auth.NewService(cfg, refreshTokenRepo)
	emailService := email.NewService(cfg.Email)

	// Assemble the password policy pipeline
	var dict *policy.Dictionary
	if cfg.Policy.DictionaryPath != "" {
		var err error
		dict, err = policy.LoadDictionary(cfg.Policy.DictionaryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load password dictionary: %w", err)
		}
	}
	var strength policy.StrengthChecker
	if cfg.Policy.StrengthEnabled {
		strength = policy.ZxcvbnChecker{}
	}
	pipeline := policy.FromConfig(cfg.Policy, dict, strength)

	checker := expiry.NewChecker(historyRepo, forcedRepo,
		cfg.Policy.ExpiryDuration(), cfg.Policy.CheckOnlyAtLogin)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authService, userRepo, roleRepo)
	expiryMiddleware, err := middleware.NewPasswordExpiryMiddleware(cfg.Policy, sessionRepo, checker)
	if err != nil {
		return nil, fmt.Errorf("failed to build expiry middleware: %w", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(
		userRepo,
		roleRepo,
		authService,
		auditRepo,
		emailService,
		cfg,
		loginAttemptRepo,
		passwordResetRepo,
		historyRepo,
		sessionRepo,
		checker,
		pipeline,
	)
	userHandler := handlers.NewUserHandler(userRepo, authService, auditRepo, cfg,
		historyRepo, sessionRepo, forcedRepo, checker, pipeline)
	policyHandler := handlers.NewPolicyHandler(pipeline, historyRepo, cfg)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Health check (no authentication required)
		v1.GET("/health", healthHandler.Check)

		// Auth routes
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/logout", authMiddleware.AuthOptional(), authHandler.Logout)
			authRoutes.POST("/refresh", authHandler.Refresh)
			authRoutes.POST("/reset-password", authHandler.RequestPasswordReset)
			authRoutes.POST("/reset-password/complete", authHandler.CompletePasswordReset)
			authRoutes.POST("/password/validate", authMiddleware.AuthOptional(), policyHandler.ValidatePassword)
		}

		// User routes (requires authentication, expiry checked on reads)
		users := v1.Group("/users")
		users.Use(authMiddleware.AuthRequired(), expiryMiddleware.Handle())
		{
			users.GET("", authMiddleware.AdminRequired(), userHandler.ListUsers)
			users.GET("/me", userHandler.GetMe)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id/password", userHandler.ChangePassword)
			users.POST("/:id/force-password-change", authMiddleware.AdminRequired(), userHandler.ForcePasswordChange)
		}
	}

	return r, nil
}
