package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/Wata22109/secure-auth/internal/app"
	iauth "github.com/Wata22109/secure-auth/internal/auth"
	"github.com/Wata22109/secure-auth/internal/auth/mfa"
	"github.com/Wata22109/secure-auth/internal/handlers"
	"github.com/Wata22109/secure-auth/internal/middleware"
	"github.com/Wata22109/secure-auth/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	jwt, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:     cfg.Auth.JWT.Secret,
		Issuer:     cfg.Auth.JWT.Issuer,
		SessionTTL: cfg.Auth.JWT.SessionTTL,
	})
	if err != nil {
		return nil, err
	}

	engine := mfa.NewEngine(
		mfa.WithIssuer(cfg.Auth.MFA.Issuer),
		mfa.WithBackupCodeCount(cfg.Auth.MFA.BackupCodeCount),
	)

	authService, err := services.NewAuthService(db, jwt, engine, services.AuthConfig{
		LockoutThreshold: cfg.Auth.Lockout.Threshold,
		LockoutDuration:  cfg.Auth.Lockout.Duration,
	})
	if err != nil {
		return nil, err
	}

	userService, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}

	mfaService, err := services.NewMFAService(db, engine)
	if err != nil {
		return nil, err
	}

	cookies := iauth.NewCookieWriter(cfg.Server.Production(), jwt.SessionTTL())

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimit(cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}

	authHandler := handlers.NewAuthHandler(authService, userService, cookies)
	userHandler := handlers.NewUserHandler(userService, mfaService)

	requireAuth := middleware.Auth(jwt)
	api := r.Group("/api")
	protected := api.Group("")
	protected.Use(requireAuth)

	registerAuthRoutes(r, authHandler)
	registerUserRoutes(protected, userHandler)

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
