package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"agriwater-platform/internal/aggregate"
	"agriwater-platform/internal/catalog"
	"agriwater-platform/internal/chart"
	"agriwater-platform/internal/config"
	"agriwater-platform/internal/interpreter"
	"agriwater-platform/internal/query"
	"agriwater-platform/internal/repository"
	"agriwater-platform/internal/services"
	"agriwater-platform/pkg/database"
	"agriwater-platform/pkg/logging"
	"agriwater-platform/pkg/metrics"
)

// One-shot CLI: run a single question through the pipeline and print the
// result as JSON, including the chart spec.
func main() {
	resolveOnly := flag.Bool("resolve-only", false, "Stop after resolution; print the bound query without fetching data")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall deadline for the query")
	flag.Parse()

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "usage: query [flags] <question>")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout stays clean JSON.
	logger := logging.NewStructuredLogger("agriwater-query", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	logger.SetOutput(os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	metricsCollector := metrics.NewCollector("agriwater_query")

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
		logger.Fatal(ctx, "[QUERY_CLI_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

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

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if *resolveOnly {
		intent, err := interp.Interpret(ctx, question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "interpretation failed: %v\n", err)
			os.Exit(1)
		}
		resolved, err := queryService.Resolve(ctx, *intent)
		if err != nil {
			fmt.Fprintf(os.Stderr, "resolution failed: %v\n", err)
			os.Exit(2)
		}
		enc.Encode(resolved)
		return
	}

	result, err := queryService.Ask(ctx, question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
		os.Exit(2)
	}

	output := map[string]interface{}{"result": result}
	if !result.Empty && result.Layout != nil {
		output["vega"] = chart.VegaSpec(result.Query, result.Series, *result.Layout)
	}
	enc.Encode(output)
}
