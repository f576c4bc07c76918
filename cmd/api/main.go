// Package main provides the entry point for the Passguard API server
// @title Passguard API
// @version 1.0
// @description Password policy enforcement API server.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token authentication
// @Security BearerAuth
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"passguard/internal/api/routes"
	"passguard/internal/config"
	"passguard/internal/database"
	"passguard/internal/logger"
	"passguard/internal/maintenance"
	"passguard/internal/repository/postgres"
	"passguard/internal/validation"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env", ".env", "Path to env file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && *envFile == ".env" {
		log.Printf("Warning: %v", err)
	}

	cfg := &config.Config{}
	if err := cfg.LoadFromEnv(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer lg.Sync() //nolint:errcheck

	db, err := database.Connect(cfg.Database)
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		lg.Fatal("failed to run migrations", zap.Error(err))
	}

	validation.Initialize()

	// Background cleanup of idle sessions and stale reset tokens
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := maintenance.NewScheduler()
	scheduler.Register(maintenance.NewSessionCleanupJob(postgres.NewSessionRepository(db)))
	scheduler.Register(maintenance.NewResetCleanupJob(postgres.NewPasswordResetRepository(db)))
	go func() {
		if err := scheduler.Start(ctx); err != nil {
			lg.Error("maintenance scheduler failed", zap.Error(err))
		}
	}()

	router, err := routes.SetupRoutes(cfg, db)
	if err != nil {
		lg.Fatal("failed to set up routes", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.API.Port),
		Handler: router,
	}

	go func() {
		lg.Info("starting server", zap.String("port", cfg.API.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info("shutting down server")
	cancel()

	// Give outstanding requests 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Fatal("server forced to shutdown", zap.Error(err))
	}

	lg.Info("server exiting")
}
