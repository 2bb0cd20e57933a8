package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agriwater-platform/internal/aggregate"
	"agriwater-platform/internal/catalog"
	"agriwater-platform/internal/config"
	"agriwater-platform/internal/handlers"
	"agriwater-platform/internal/interpreter"
	"agriwater-platform/internal/query"
	"agriwater-platform/internal/repository"
	"agriwater-platform/internal/services"
	"agriwater-platform/pkg/database"
	"agriwater-platform/pkg/logging"
	"agriwater-platform/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("agriwater-api", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting agriwater API server", logging.Fields{
		"version":     "1.0.0",
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"db_host":     cfg.Database.Host,
		"db_name":     cfg.Database.Database,
		"model":       cfg.Interpreter.Model,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("agriwater")

	// Initialize database
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	// Build the query pipeline
	cat := catalog.NewOregon()
	repo := repository.NewDataRepository(db, logger, metricsCollector)
	interp := interpreter.NewOllama(interpreter.Config{
		Host:  cfg.Interpreter.Host,
		Model: cfg.Interpreter.Model,
	}, cat, logger, metricsCollector)

	queryService := services.NewQueryService(
		interp,
		query.NewNormalizer(cat),
		query.NewRouter(cat, catalog.DefaultPolicy()),
		query.NewResolver(cat),
		aggregate.NewAggregator(cat),
		repo,
		logger,
		metricsCollector,
	)

	// Initialize handlers
	queryHandler := handlers.NewQueryHandler(queryService, repo, cat, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()
	queryHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
