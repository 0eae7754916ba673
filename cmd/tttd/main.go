// Package main implements the tic-tac-toe server with a RESTful API,
// user authentication and a database maintenance CLI.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tictactoe/cmd/tttd/cli"
	"tictactoe/internal/cache"
	"tictactoe/internal/config"
	"tictactoe/internal/http"
	"tictactoe/internal/logging"
	"tictactoe/internal/service"
	"tictactoe/internal/storage"
)

const (
	gracefulShutdownTimeout = time.Second * 5
)

func main() {
	// Check for CLI database commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		os.Exit(0)
	}

	var (
		configPath = flag.String("config", "", "Path to YAML config file (optional)")
		dev        = flag.Bool("dev", false, "Development mode (relaxed rate limits, fixed JWT secret)")
		pidPath    = flag.String("pid", "", "Optional path to write PID file")
		pidLock    = flag.Bool("pid-lock", false, "Lock PID file to allow only one instance (requires -pid)")
	)
	flag.Parse()

	if *pidLock && *pidPath == "" {
		log.Fatal("Error: -pid-lock flag requires the -pid flag to be set")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dev {
		cfg.Server.Dev = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	if *pidPath != "" {
		cleanup, err := managePIDFile(*pidPath, *pidLock)
		if err != nil {
			logger.Fatal("failed to manage PID file", zap.Error(err))
		}
		defer cleanup()
		logger.Info("PID file created", zap.String("path", *pidPath), zap.Bool("lock", *pidLock))
	}

	// 1. Storage
	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN, cfg.Server.Dev)
	if err != nil {
		logger.Fatal("failed to open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	if err := store.InitDB(); err != nil {
		logger.Fatal("failed to initialize schema", zap.Error(err))
	}

	// 2. Cache
	var gameCache cache.Cache
	switch cfg.Cache.Backend {
	case "redis":
		gameCache, err = cache.NewRedis(cfg.Cache.RedisURL, cfg.Cache.TTL, logger)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
	default:
		gameCache = cache.NewMemory(cfg.Cache.TTL)
	}

	// 3. Service
	svc, err := service.New(store, gameCache, service.Config{
		JWTSecret: jwtSecret(cfg, logger),
		TokenTTL:  cfg.Auth.TokenTTL,
		Retention: cfg.Cleanup.Retention,
	}, logger)
	if err != nil {
		logger.Fatal("failed to initialize service", zap.Error(err))
	}

	// Periodic purge of finished games
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go svc.RunCleanupJob(cleanupCtx, cfg.Cleanup.Interval)

	// 4. HTTP
	app := http.NewFiberApp(svc, http.Options{
		Dev:       cfg.Server.Dev,
		RateLimit: cfg.Server.RateLimit,
	}, logger)

	addr := cfg.Addr()
	go func() {
		logger.Info("tic-tac-toe server starting",
			zap.String("addr", addr),
			zap.String("storage", store.Driver()),
			zap.String("cache", gameCache.Name()),
			zap.Bool("dev", cfg.Server.Dev),
		)
		if err := app.Listen(addr); err != nil {
			logger.Error("API server listen error", zap.Error(err))
		}
	}()

	// Wait for an interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}

	cleanupCancel()

	// Releases waiters, then closes cache and storage
	if err := svc.Shutdown(gracefulShutdownTimeout); err != nil {
		logger.Warn("service shutdown error", zap.Error(err))
	}

	logger.Info("server exited")
}

// jwtSecret returns the configured secret, a fixed one in dev mode, or a
// random one that invalidates sessions on restart
func jwtSecret(cfg *config.Config, logger *zap.Logger) []byte {
	if cfg.Auth.JWTSecret != "" {
		return []byte(cfg.Auth.JWTSecret)
	}
	if cfg.Server.Dev {
		logger.Info("using fixed JWT secret (dev mode)")
		return []byte("dev-secret-minimum-32-characters-long")
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		logger.Fatal("failed to generate JWT secret", zap.Error(err))
	}
	logger.Info("JWT secret generated (sessions valid until restart)")
	return secret
}
