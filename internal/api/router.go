// Package api wires together all HTTP routes for the outreach tracker backend.
//
// Route grouping philosophy:
//   - /health, /ready, and /version are unauthenticated probe endpoints.
//   - /api/v1/auth/login is unauthenticated but carries a stricter rate limit
//     than the rest of the API to slow credential stuffing.
//   - Everything else under /api/v1 requires a valid token. Record-level
//     authorization (ownership, location scope) happens in the service layer;
//     the router only gates whole endpoints by role where an endpoint makes no
//     sense for lower roles at all (admin area, oversight listings).
package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/outreach-tracker/outreach-tracker/internal/api/admin"
	"github.com/outreach-tracker/outreach-tracker/internal/api/disciples"
	"github.com/outreach-tracker/outreach-tracker/internal/api/potentials"
	"github.com/outreach-tracker/outreach-tracker/internal/api/workers"
	"github.com/outreach-tracker/outreach-tracker/internal/audit"
	"github.com/outreach-tracker/outreach-tracker/internal/config"
	"github.com/outreach-tracker/outreach-tracker/internal/db/repositories"
	"github.com/outreach-tracker/outreach-tracker/internal/middleware"
	"github.com/outreach-tracker/outreach-tracker/internal/policy"
	"github.com/outreach-tracker/outreach-tracker/internal/service"
)

// BackgroundServices holds references to background resources that must be
// stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	rateLimiters []*middleware.RateLimiter
	shipper      audit.Shipper
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	if bg.shipper != nil {
		if err := bg.shipper.Close(); err != nil {
			slog.Error("failed to close audit shipper", "error", err)
		}
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB, shipper audit.Shipper) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	userRepo := repositories.NewUserRepository(db)

	potentialSvc := service.NewPotentialService(db, shipper)
	discipleSvc := service.NewDiscipleService(db, shipper)
	workerSvc := service.NewWorkerService(db, shipper)
	userSvc := service.NewUserService(db, shipper, cfg.Auth.BcryptCost)

	potentialHandlers := potentials.NewHandlers(potentialSvc)
	discipleHandlers := disciples.NewHandlers(discipleSvc)
	workerHandlers := workers.NewHandlers(workerSvc)

	authHandlers := admin.NewAuthHandlers(cfg, db)
	userHandlers := admin.NewUserHandlers(userSvc)
	auditLogHandlers := admin.NewAuditLogHandlers(db)

	// Wrap *sql.DB with sqlx for the stats aggregation queries
	sqlxDB := sqlx.NewDb(db, "postgres")
	statsHandler := admin.NewStatsHandler(sqlxDB)

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Probe endpoints
	router.GET("/health", healthCheckHandler(db))
	router.GET("/ready", readinessHandler(db))
	router.GET("/version", versionHandler())

	bg := &BackgroundServices{shipper: shipper}

	apiLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
	loginLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	bg.rateLimiters = append(bg.rateLimiters, apiLimiter, loginLimiter)

	apiV1 := router.Group("/api/v1")
	{
		// Login is unauthenticated but strictly rate-limited
		apiV1.POST("/auth/login", middleware.RateLimitMiddleware(loginLimiter), authHandlers.LoginHandler())

		authenticated := apiV1.Group("")
		authenticated.Use(middleware.RateLimitMiddleware(apiLimiter))
		authenticated.Use(middleware.AuthMiddleware(userRepo))
		{
			authenticated.GET("/auth/me", authHandlers.MeHandler())

			potentialsGroup := authenticated.Group("/potentials")
			{
				potentialsGroup.GET("", potentialHandlers.List)
				potentialsGroup.POST("", potentialHandlers.Create)
				potentialsGroup.GET("/:id", potentialHandlers.Get)
				potentialsGroup.PUT("/:id", potentialHandlers.Update)
				potentialsGroup.DELETE("/:id", potentialHandlers.Delete)
				potentialsGroup.POST("/:id/convert", potentialHandlers.Convert)
			}

			disciplesGroup := authenticated.Group("/disciples")
			{
				disciplesGroup.GET("", discipleHandlers.List)
				disciplesGroup.POST("", discipleHandlers.Create)
				disciplesGroup.GET("/:id", discipleHandlers.Get)
				disciplesGroup.PUT("/:id", discipleHandlers.Update)
				disciplesGroup.DELETE("/:id", discipleHandlers.Delete)
			}

			workersGroup := authenticated.Group("/workers")
			{
				workersGroup.GET("", workerHandlers.List)
				workersGroup.POST("", workerHandlers.Create)
				workersGroup.GET("/:id", workerHandlers.Get)
				workersGroup.PUT("/:id", workerHandlers.Update)
				workersGroup.DELETE("/:id", workerHandlers.Delete)

				// Oversight listings. Routed per-role here; record scoping
				// (pastors see only their own location) stays in the service.
				workersGroup.GET("/location/:location",
					middleware.RequireRole(policy.RoleAdmin, policy.RolePastor),
					workerHandlers.ListByLocation)
				workersGroup.GET("/role/:role",
					middleware.RequireRole(policy.RoleAdmin),
					workerHandlers.ListByRole)
			}

			adminGroup := authenticated.Group("/admin")
			adminGroup.Use(middleware.RequireRole(policy.RoleAdmin))
			{
				adminGroup.GET("/users", userHandlers.List)
				adminGroup.POST("/users", userHandlers.Create)
				adminGroup.GET("/users/:id", userHandlers.Get)
				adminGroup.PUT("/users/:id", userHandlers.Update)
				adminGroup.DELETE("/users/:id", userHandlers.Deactivate)

				adminGroup.GET("/audit-logs", auditLogHandlers.List)
				adminGroup.GET("/audit-logs/:id", auditLogHandlers.Get)

				adminGroup.GET("/stats/dashboard", statsHandler.GetDashboardStats)
			}
		}
	}

	return router, bg
}

// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler returns the readiness status of the service. The database
// is the only hard dependency; audit shippers degrade to logged errors and do
// not gate readiness.
func readinessHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready": false,
				"error": "database not ready",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ready": true,
			"time":  time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
