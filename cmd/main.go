/*
Package main is the entry point for the ZeroChat relay server.

It loads configuration, initializes the global logging system, opens the
identity directory (Postgres, or in-memory in development), wires the session
registry, offline queue, and router together, starts the HTTP server, and
handles operating system interrupt signals for a graceful shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zerochat/internal/app/db"
	"zerochat/internal/app/identity"
	"zerochat/internal/app/relay"
	"zerochat/internal/configs"
	"zerochat/internal/handler"
	"zerochat/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("offline_backlog_max", cfg.OfflineBacklogMax).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the identity directory
	var directory identity.Directory
	if cfg.DatabaseDSN != "" {
		pool, err := db.NewPool(cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to connect to identity database")
		}
		defer pool.Close()

		directory = identity.NewPostgresDirectory(pool)
	} else {
		logx.Warn("DATABASE_URL not set. Using in-memory identity directory; accounts will not survive a restart.")
		directory = identity.NewMemoryDirectory()
	}

	// Wire the routing engine
	registry := relay.NewSessionRegistry()
	queue := relay.NewOfflineQueue(cfg.OfflineBacklogMax)
	router := relay.NewRouter(registry, queue, directory, cfg.JWTSecret)

	deps := &handler.AppDeps{
		Router:    router,
		Registry:  registry,
		Directory: directory,
		Config:    cfg,
	}

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler.Router(deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("ZeroChat Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}
