package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"fermentation-platform/internal/config"
	"fermentation-platform/internal/repository"
	"fermentation-platform/internal/services"
	"fermentation-platform/pkg/database"
	"fermentation-platform/pkg/logging"
	"fermentation-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	dataDir := flag.String("data-dir", "./lab_data", "Directory containing lab export files")
	batchSize := flag.Int("batch-size", 500, "Number of records to process in each batch")
	reclassify := flag.Bool("reclassify", false, "Recompute fermentation statuses after ingestion")
	flag.Parse()

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

	// Initialize logger
	logLevel := logging.InfoLevel
	if cfg.Logging.Level == "debug" {
		logLevel = logging.DebugLevel
	}

	logger := logging.NewStructuredLogger("fermentation-ingester", "1.0.0", logLevel)

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting lab data ingestion", logging.Fields{
		"version":    "1.0.0",
		"data_dir":   *dataDir,
		"batch_size": *batchSize,
		"reclassify": *reclassify,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("fermentation_ingester")

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

	// Initialize repository and services
	repo := repository.NewFermentationRepository(db, logger, metricsCollector)
	fermentationService := services.NewFermentationService(repo, cfg.Rules.Classifier, logger, metricsCollector)
	ingestionService := services.NewIngestionService(repo, logger, metricsCollector)

	// Ingest data
	result, err := ingestionService.IngestDirectory(ctx, *dataDir, *batchSize)
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
			"error": err.Error(),
		}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Files:        %d\n", result.TotalFiles)
	fmt.Printf("Total Records:      %d\n", result.TotalRecords)
	fmt.Printf("Successful Records: %d\n", result.SuccessfulRecords)
	fmt.Printf("Failed Records:     %d\n", result.FailedRecords)
	fmt.Printf("Duration:           %v\n", result.Duration)

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

	// Recompute statuses if requested
	if *reclassify {
		fmt.Println("\n" + strings.Repeat("=", 80))
		fmt.Println("RECOMPUTING FERMENTATION STATUSES")
		fmt.Println(strings.Repeat("=", 80))

		fermentations, _, err := fermentationService.ListFermentations(ctx, 10000, 0)
		if err != nil {
			logger.Fatal(ctx, "[RECLASSIFY_ERROR] Failed to list fermentations", logging.Fields{}, err)
		}

		for _, f := range fermentations {
			status, err := fermentationService.Reclassify(ctx, f.ID)
			if err != nil {
				logger.Error(ctx, "[RECLASSIFY_ERROR] Status recomputation failed", logging.Fields{
					"fermentation_id": f.ID.String(),
				}, err)
				continue
			}
			fmt.Printf("%s  %-20s %s\n", f.ID, f.Name, status)
		}
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed successfully", logging.Fields{
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
	})
}
