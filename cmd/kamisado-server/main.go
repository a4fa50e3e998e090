// Package main implements the Kamisado game server with a RESTful API,
// computer players and optional persistent accounts.
package main

import (
	"context"
	"crypto/rand"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kamisado/cmd/kamisado-server/cli"
	"kamisado/internal/server/board"
	"kamisado/internal/server/config"
	"kamisado/internal/server/http"
	"kamisado/internal/server/processor"
	"kamisado/internal/server/service"
	"kamisado/internal/server/storage"
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

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Manage PID file if requested
	if cfg.PIDPath != "" {
		cleanup, err := managePIDFile(cfg.PIDPath, cfg.PIDLock)
		if err != nil {
			log.Fatalf("Failed to manage PID file: %v", err)
		}
		defer cleanup()
		log.Printf("PID file created at: %s (lock: %v)", cfg.PIDPath, cfg.PIDLock)
	}

	// 1. Initialize Storage (optional)
	var store *storage.Store
	if cfg.StoragePath != "" {
		log.Printf("Initializing persistent storage at: %s", cfg.StoragePath)
		store, err = storage.NewStore(cfg.StoragePath, cfg.Dev)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		if err := store.InitDB(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	} else {
		log.Printf("Persistent storage disabled (use -storage-path to enable)")
	}

	jwtSecret, err := loadJWTSecret(cfg.JWTSecret, cfg.Dev)
	if err != nil {
		log.Fatalf("Failed to generate JWT secret: %v", err)
	}

	// 2. Initialize the Service on the standard board
	svc := service.New(board.Default(), store, jwtSecret)

	// Start cleanup job for expired sessions
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go svc.RunCleanupJob(cleanupCtx, service.CleanupJobInterval)

	// 3. Initialize the Processor with its computer move workers
	proc := processor.New(svc, cfg.EngineWorkers)

	// 4. Initialize the Fiber App
	app := http.NewFiberApp(proc, svc, cfg.Dev)

	apiAddr := cfg.Addr()
	go func() {
		log.Printf("Kamisado API Server starting...")
		log.Printf("API Listening on: http://%s", apiAddr)
		log.Printf("Engine workers: %d", cfg.EngineWorkers)
		if cfg.Dev {
			log.Printf("Rate Limit: 20 requests/second per IP (DEV MODE)")
		} else {
			log.Printf("Rate Limit: 10 requests/second per IP")
		}
		if cfg.StoragePath != "" {
			log.Printf("Storage: Enabled (%s)", cfg.StoragePath)
		} else {
			log.Printf("Storage: Disabled (auth features unavailable)")
		}
		log.Printf("API Endpoints: http://%s/api/v1/games", apiAddr)
		log.Printf("Auth Endpoints: http://%s/api/v1/auth/[register|login|me|logout]", apiAddr)
		log.Printf("Health: http://%s/health", apiAddr)

		if err := app.Listen(apiAddr); err != nil {
			log.Printf("API server listen error: %v", err)
		}
	}()

	// Wait for an interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	if err = app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err = proc.Close(); err != nil {
		log.Printf("Processor close error: %v", err)
	}

	cleanupCancel()

	// Releases long-poll waiters and closes storage
	if err = svc.Shutdown(gracefulShutdownTimeout); err != nil {
		log.Printf("Service shutdown error: %v", err)
	}

	log.Println("Server exited")
}

// loadJWTSecret prefers a configured secret, then the fixed dev secret,
// then a random one that invalidates tokens on restart
func loadJWTSecret(configured string, dev bool) ([]byte, error) {
	switch {
	case configured != "":
		log.Printf("Using configured JWT secret")
		return []byte(configured), nil
	case dev:
		log.Printf("Using fixed JWT secret (dev mode)")
		return []byte("dev-secret-minimum-32-characters-long"), nil
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	log.Printf("JWT secret generated (sessions valid until restart)")
	return secret, nil
}
