package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"agriwater-platform/internal/config"
	"agriwater-platform/internal/repository"
	"agriwater-platform/internal/services"
	"agriwater-platform/pkg/database"
	"agriwater-platform/pkg/logging"
	"agriwater-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	stationDir := flag.String("station-dir", "", "Directory of per-station CSV files")
	fieldFile := flag.String("field-file", "", "Long-format field records CSV")
	cropFile := flag.String("crop-file", "", "Per-year field crop assignments CSV")
	batchSize := flag.Int("batch-size", 1000, "Number of records to process in each batch")
	flag.Parse()

	if *stationDir == "" && *fieldFile == "" && *cropFile == "" {
		fmt.Fprintln(os.Stderr, "nothing to ingest: pass -station-dir, -field-file, or -crop-file")
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("agriwater-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting data ingestion", logging.Fields{
		"version":     "1.0.0",
		"station_dir": *stationDir,
		"field_file":  *fieldFile,
		"crop_file":   *cropFile,
		"batch_size":  *batchSize,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("agriwater_ingester")

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
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	ingestRepo := repository.NewIngestRepository(db, logger, metricsCollector)
	ingestionService := services.NewIngestionService(ingestRepo, logger, metricsCollector)

	if *stationDir != "" {
		result, err := ingestionService.IngestStationDirectory(ctx, *stationDir, *batchSize)
		if err != nil {
			logger.Fatal(ctx, "[INGESTION_ERROR] Station ingestion failed", logging.Fields{}, err)
		}
		printResult("STATION OBSERVATIONS", result)
	}

	if *fieldFile != "" {
		result, err := ingestionService.IngestFieldRecords(ctx, *fieldFile, *batchSize)
		if err != nil {
			logger.Fatal(ctx, "[INGESTION_ERROR] Field record ingestion failed", logging.Fields{}, err)
		}
		printResult("FIELD RECORDS", result)
	}

	if *cropFile != "" {
		result, err := ingestionService.IngestFieldCrops(ctx, *cropFile, *batchSize)
		if err != nil {
			logger.Fatal(ctx, "[INGESTION_ERROR] Crop ingestion failed", logging.Fields{}, err)
		}
		printResult("FIELD CROPS", result)
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed successfully", logging.Fields{})
}

func printResult(title string, result *services.IngestionResult) {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Files:        %d\n", result.TotalFiles)
	fmt.Printf("Total Records:      %d\n", result.TotalRecords)
	fmt.Printf("Successful Records: %d\n", result.SuccessfulRecords)
	fmt.Printf("Failed Records:     %d\n", result.FailedRecords)
	fmt.Printf("Duration:           %v\n", result.Duration)
	if result.Duration.Seconds() > 0 {
		fmt.Printf("Records/Second:     %.2f\n", float64(result.SuccessfulRecords)/result.Duration.Seconds())
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for i, errMsg := range result.Errors {
			if i < 10 {
				fmt.Printf("  - %s\n", errMsg)
			}
		}
		if len(result.Errors) > 10 {
			fmt.Printf("  ... and %d more errors\n", len(result.Errors)-10)
		}
	}
}
