// adminauth is the stateless authentication and authorization service
// for the multi-tenant admin backend.
//
// It issues and verifies RS256 token pairs, authenticates credentials
// against a SQLite subject directory, aggregates level-ranked role and
// menu grants, and serves the admin HTTP API behind a uniform response
// envelope.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/iefihz/adminauth/migrations"

	"github.com/iefihz/adminauth/internal/api"
	"github.com/iefihz/adminauth/internal/auth"
	"github.com/iefihz/adminauth/internal/infrastructure/config"
	"github.com/iefihz/adminauth/internal/infrastructure/database"
	"github.com/iefihz/adminauth/internal/infrastructure/logging"
	"github.com/iefihz/adminauth/internal/infrastructure/redisconn"
	"github.com/iefihz/adminauth/internal/rememberme"
	"github.com/iefihz/adminauth/internal/token"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting adminauth",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// First-boot seeding
	if _, seedErr := auth.SeedAdmin(ctx, db.DB, log.Logger); seedErr != nil {
		return fmt.Errorf("seeding directory: %w", seedErr)
	}

	// Token codec
	privPEM, err := cfg.JWT.PrivateKeyPEM()
	if err != nil {
		return fmt.Errorf("loading private key: %w", err)
	}
	pubPEM, err := cfg.JWT.PublicKeyPEM()
	if err != nil {
		return fmt.Errorf("loading public key: %w", err)
	}
	codec, err := token.New(privPEM, pubPEM)
	if err != nil {
		return fmt.Errorf("creating token codec: %w", err)
	}

	// Remember-me store: Redis in production, in-memory otherwise
	rememberTTL := time.Duration(cfg.JWT.RefreshTokenTTL) * time.Second
	var rememberStore rememberme.Store
	if cfg.Redis.Enabled {
		redisClient, connErr := redisconn.Connect(cfg.Redis)
		if connErr != nil {
			return fmt.Errorf("connecting to Redis: %w", connErr)
		}
		defer func() {
			log.Info("closing Redis connection")
			if closeErr := redisClient.Close(); closeErr != nil {
				log.Error("error closing Redis", "error", closeErr)
			}
		}()
		log.Info("Redis connected", "addr", cfg.Redis.Addr)
		rememberStore = rememberme.NewRedisStore(redisClient.Redis(), rememberTTL)
	} else {
		log.Info("Redis disabled, using in-memory remember-me store")
		rememberStore = rememberme.NewMemoryStore(rememberTTL)
	}

	// Auth components
	directory := auth.NewSQLiteDirectory(db.DB)
	authenticator := auth.NewCredentialAuthenticator(directory, auth.BcryptVerifier{})
	aggregator := auth.NewAggregator(directory)

	// API server
	server, err := api.New(api.Deps{
		Config:        cfg.Server,
		JWT:           cfg.JWT,
		Logger:        log,
		Codec:         codec,
		Directory:     directory,
		Authenticator: authenticator,
		Aggregator:    aggregator,
		RememberMe:    rememberStore,
		Version:       version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ADMINAUTH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ADMINAUTH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
