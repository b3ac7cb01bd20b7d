package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/tally-dashboard/internal/api"
	"github.com/tally-dashboard/internal/auth"
	"github.com/tally-dashboard/internal/config"
	"github.com/tally-dashboard/internal/database"
	"github.com/tally-dashboard/internal/predict"
	"github.com/tally-dashboard/internal/repository"
	"github.com/tally-dashboard/internal/service"
	"github.com/tally-dashboard/internal/telemetry"
	"github.com/tally-dashboard/pkg/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "json")
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting tally dashboard server...")

	ctx := context.Background()
	shutdownTracing := telemetry.Setup(ctx, cfg.Telemetry, log)

	// Optional database: export archive and credential seeds
	var repos *repository.Repositories
	if cfg.Database.Enabled {
		db, err := database.New(&cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
		repos = repository.New(db)
	} else {
		log.Info().Msg("Database disabled, export archive off")
	}

	credentials, err := auth.NewTable(cfg.Auth.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build credential table")
	}

	// A missing model leaves the water module usable for display only
	model := predict.NewAdapter(cfg.Model.PredictTimeout, log)
	if err := model.LoadFiles(cfg.Model.ModelPath, cfg.Model.TransformerPath); err != nil {
		log.Warn().Err(err).Msg("Model artifacts not loaded")
	}

	// Initialize services
	services := service.NewServices(repos, credentials, model, cfg, log)
	if _, err := services.Session.LoadSeeds(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to load credential seeds")
	}

	// Start idle session expiry
	expiryCtx, stopExpiry := context.WithCancel(ctx)
	defer stopExpiry()
	go services.Session.RunExpiry(expiryCtx)

	// Initialize router
	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(services, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      otelhttp.NewHandler(router, "tally-dashboard"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")
	stopExpiry()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Failed to flush traces")
	}

	log.Info().Msg("Server exited gracefully")
}
