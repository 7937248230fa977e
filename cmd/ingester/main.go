package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"ride-analytics/internal/analysis"
	"ride-analytics/internal/config"
	"ride-analytics/internal/repository"
	"ride-analytics/internal/services"
	"ride-analytics/pkg/database"
	"ride-analytics/pkg/logging"
	"ride-analytics/pkg/metrics"
)

func main() {
	exportFile := flag.String("file", "./data/activities.csv", "Activity export CSV file")
	batchSize := flag.Int("batch-size", 0, "Records per insert batch (0 = configured default)")
	aggregate := flag.Bool("aggregate", false, "Recompute monthly aggregates after ingestion")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if *batchSize <= 0 {
		*batchSize = cfg.Ingestion.BatchSize
	}

	logger := logging.NewStructuredLogger("ride-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting activity ingestion", logging.Fields{
		"version":    "1.0.0",
		"file":       *exportFile,
		"batch_size": *batchSize,
		"aggregate":  *aggregate,
	})

	metricsCollector := metrics.NewCollector("ride_ingester")

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

	activityRepo := repository.NewActivityRepository(db, logger, metricsCollector)

	ingestionService := services.NewIngestionService(activityRepo, cfg.Cleaning.Rules(), logger, metricsCollector)
	analysisService := services.NewAnalysisService(
		activityRepo,
		analysis.AggregateOptions{SpeedAsPowerProxy: cfg.Cleaning.SpeedAsPowerProxy},
		logger,
		metricsCollector,
	)

	result, err := ingestionService.IngestFile(ctx, *exportFile, *batchSize)
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
			"file": *exportFile,
		}, err)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Rows:      %d\n", result.TotalRows)
	fmt.Printf("Parsed Rows:     %d\n", result.ParsedRows)
	fmt.Printf("Malformed Rows:  %d\n", len(result.MalformedRows))
	fmt.Printf("Stored Records:  %d\n", result.StoredRecords)
	fmt.Printf("Duration:        %v\n", result.Duration)

	if len(result.Dropped) > 0 {
		fmt.Println("\nDropped by cleaning rules:")
		reasons := make([]string, 0, len(result.Dropped))
		for reason := range result.Dropped {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Printf("  %-28s %d\n", reason, result.Dropped[reason])
		}
	}

	if *aggregate {
		fmt.Println("\n" + strings.Repeat("=", 80))
		fmt.Println("MONTHLY AGGREGATION")
		fmt.Println(strings.Repeat("=", 80))

		aggResult, err := analysisService.RunMonthlyAggregation(ctx)
		if err != nil {
			logger.Fatal(ctx, "[AGGREGATION_ERROR] Aggregation failed", logging.Fields{}, err)
		}

		fmt.Printf("Months:           %d\n", aggResult.Months)
		fmt.Printf("Inserted Months:  %d\n", aggResult.InsertedMonths)
		for column, count := range aggResult.FilledValues {
			if count > 0 {
				fmt.Printf("  interpolated %-24s %d\n", column, count)
			}
		}
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed successfully", logging.Fields{
		"total_rows":     result.TotalRows,
		"stored_records": result.StoredRecords,
	})
}
