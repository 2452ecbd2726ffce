// Package main is the entry point for the outreach tracker server binary.
// It dispatches four subcommands — serve, migrate, seed, and version — via a
// simple switch on os.Args so the binary's full CLI surface is readable in one
// place without requiring a cobra dependency. The serve command runs
// auto-migration on startup so freshly deployed containers never need a
// separate migration step.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/outreach-tracker/outreach-tracker/internal/api"
	"github.com/outreach-tracker/outreach-tracker/internal/audit"
	"github.com/outreach-tracker/outreach-tracker/internal/auth"
	"github.com/outreach-tracker/outreach-tracker/internal/config"
	"github.com/outreach-tracker/outreach-tracker/internal/db"
	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/db/repositories"
	"github.com/outreach-tracker/outreach-tracker/internal/policy"
	"github.com/outreach-tracker/outreach-tracker/internal/telemetry"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch command {
	case "serve":
		return serve(cfg)
	case "migrate":
		if len(os.Args) < 3 {
			return fmt.Errorf("usage: %s migrate <up|down>", os.Args[0])
		}
		return runMigrations(cfg, os.Args[2])
	case "seed":
		return seed(cfg)
	case "version":
		fmt.Printf("Outreach Tracker v%s\n", version)
		return nil
	default:
		return fmt.Errorf("unknown command: %s\nAvailable commands: serve, migrate, seed, version", command)
	}
}

func serve(cfg *config.Config) error {
	// Initialise structured logger as early as possible so all subsequent log
	// output uses the configured format (json / text) and level.
	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Validate JWT secret configuration (fails in production if not set)
	if err := auth.ValidateJWTSecret(); err != nil {
		return fmt.Errorf("security configuration error: %w", err)
	}

	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	slog.Info("connected to database", "host", cfg.Database.Host, "name", cfg.Database.Name)

	// Begin exporting DB pool statistics to Prometheus.
	telemetry.StartDBStatsCollector(database)

	// Run migrations automatically on startup
	if err := db.RunMigrations(database, "up"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	schemaVersion, dirty, err := db.GetMigrationVersion(database)
	if err != nil {
		slog.Warn("failed to get migration version", "error", err)
	} else {
		slog.Info("database schema ready", "version", schemaVersion, "dirty", dirty)
	}

	// Build the audit shipper chain from config. The database trail is always
	// written in-transaction; shippers are additional post-commit destinations.
	shipper, err := audit.NewMultiShipper(shipperConfigs(cfg))
	if err != nil {
		return fmt.Errorf("failed to configure audit shippers: %w", err)
	}

	// Start Prometheus metrics endpoint on a dedicated port so it is not
	// reachable through the public API ingress path.
	if cfg.Telemetry.Metrics.Enabled {
		metricsAddr := fmt.Sprintf(":%d", cfg.Telemetry.Metrics.PrometheusPort)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			slog.Info("starting Prometheus metrics server", "addr", metricsAddr)
			srv := &http.Server{
				Addr:         metricsAddr,
				Handler:      mux,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	router, bgServices := api.NewRouter(cfg, database, shipper)

	server := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.Server.GetAddress(), "base_url", cfg.Server.BaseURL)

		var err error
		if cfg.Security.TLS.Enabled {
			slog.Info("TLS enabled", "cert", cfg.Security.TLS.CertFile)
			err = server.ListenAndServeTLS(cfg.Security.TLS.CertFile, cfg.Security.TLS.KeyFile)
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Stop rate limiter goroutines and close shippers after in-flight
	// requests have drained.
	bgServices.Shutdown()

	slog.Info("server stopped gracefully")
	return nil
}

// shipperConfigs converts the config-file shipper entries into the audit
// package's config types.
func shipperConfigs(cfg *config.Config) []audit.ShipperConfig {
	configs := make([]audit.ShipperConfig, 0, len(cfg.Audit.Shippers))
	for _, s := range cfg.Audit.Shippers {
		sc := audit.ShipperConfig{
			Enabled: s.Enabled,
			Type:    s.Type,
		}
		if s.Webhook != nil {
			sc.Webhook = &audit.WebhookConfig{
				URL:     s.Webhook.URL,
				Headers: s.Webhook.Headers,
				Timeout: time.Duration(s.Webhook.TimeoutSecs) * time.Second,
			}
		}
		if s.File != nil {
			sc.File = &audit.FileConfig{
				Path:       s.File.Path,
				MaxSizeMB:  s.File.MaxSizeMB,
				MaxBackups: s.File.MaxBackups,
			}
		}
		configs = append(configs, sc)
	}
	return configs
}

func runMigrations(cfg *config.Config, direction string) error {
	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, direction); err != nil {
		return fmt.Errorf("migration %s failed: %w", direction, err)
	}

	log.Printf("Migration %s completed successfully", direction)
	return nil
}

// seed creates the initial admin account if no users exist yet. The generated
// password is printed once to stdout; only its bcrypt hash is stored.
func seed(cfg *config.Config) error {
	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, "up"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	ctx := context.Background()
	repo := repositories.NewUserRepository(database)

	_, total, err := repo.List(ctx, 1, 0)
	if err != nil {
		return fmt.Errorf("failed to check existing users: %w", err)
	}
	if total > 0 {
		log.Printf("Database already has %d user(s); nothing to seed", total)
		return nil
	}

	location := "main"
	accounts := []*models.User{
		{Username: "admin", Role: policy.RoleAdmin, Active: true},
		{Username: "pastor", Role: policy.RolePastor, Active: true, Location: &location},
		{Username: "leader", Role: policy.RoleLeader, Active: true, Location: &location},
	}

	log.Println("")
	log.Println("══════════════════════════════════════════════════════════════════")
	log.Println("  Initial accounts created. Passwords are shown once and stored")
	log.Println("  only as bcrypt hashes; change them after first login.")
	log.Println("")
	for _, u := range accounts {
		password, err := randomPassword()
		if err != nil {
			return err
		}
		hash, err := auth.HashPassword(password, cfg.Auth.BcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", u.Username, err)
		}
		u.PasswordHash = hash

		if err := repo.Create(ctx, u); err != nil {
			return fmt.Errorf("failed to create %s user: %w", u.Username, err)
		}
		log.Printf("  %-8s (%s)  password: %s", u.Username, u.Role, password)
	}
	log.Println("══════════════════════════════════════════════════════════════════")
	log.Println("")
	return nil
}

// randomPassword returns 24 random bytes, base64url-encoded.
func randomPassword() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b), nil
}
