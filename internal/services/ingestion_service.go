package services

import (
	"context"
	"fmt"
	"time"

	"ride-analytics/internal/analysis"
	"ride-analytics/internal/models"
	"ride-analytics/internal/repository"
	"ride-analytics/pkg/logging"
	"ride-analytics/pkg/metrics"
)

// IngestionService loads activity exports, cleans them and stores the
// surviving rides.
type IngestionService struct {
	repo    repository.ActivityRepository
	rules   analysis.CleaningRules
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalRows     int
	ParsedRows    int
	MalformedRows []int
	Dropped       map[string]int
	StoredRecords int
	Duration      time.Duration
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	repo repository.ActivityRepository,
	rules analysis.CleaningRules,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *IngestionService {
	return &IngestionService{
		repo:    repo,
		rules:   rules,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestFile loads one activity export, cleans it with the configured
// rules, derives calendar features and stores the result in batches.
// Rows with a malformed start time are counted and reported, never
// silently dropped from the totals.
func (s *IngestionService) IngestFile(ctx context.Context, path string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting activity ingestion", logging.Fields{
		"file":       path,
		"batch_size": batchSize,
		"stage":      "INITIALIZATION",
	})

	loaded, err := analysis.LoadFile(path)
	if err != nil {
		// Schema mismatch and I/O failures are fatal before any cleaning.
		s.metrics.RecordIngestionError("load_error")
		return nil, fmt.Errorf("failed to load activity export: %w", err)
	}

	if len(loaded.MalformedRows) > 0 {
		s.metrics.IngestionErrorsTotal.WithLabelValues("malformed_start_time").
			Add(float64(len(loaded.MalformedRows)))
		s.logger.Warn(ctx, "[INGEST_MALFORMED] Rows with unparseable start time", logging.Fields{
			"count": len(loaded.MalformedRows),
			"rows":  loaded.MalformedRows,
		})
	}

	cleaned := analysis.Clean(loaded.Activities, s.rules)
	for reason, count := range cleaned.Dropped {
		s.metrics.RecordDroppedRecords(reason, count)
	}

	analysis.DeriveCalendar(cleaned.Activities)

	if err := s.storeBatches(ctx, cleaned.Activities, batchSize); err != nil {
		return nil, err
	}

	result := &IngestionResult{
		TotalRows:     loaded.TotalRows,
		ParsedRows:    loaded.ParsedRows,
		MalformedRows: loaded.MalformedRows,
		Dropped:       cleaned.Dropped,
		StoredRecords: cleaned.Kept,
		Duration:      time.Since(startTime),
	}

	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Activity ingestion completed", logging.Fields{
		"total_rows":       result.TotalRows,
		"parsed_rows":      result.ParsedRows,
		"malformed_rows":   len(result.MalformedRows),
		"stored_records":   result.StoredRecords,
		"dropped":          result.Dropped,
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}

func (s *IngestionService) storeBatches(ctx context.Context, activities []*models.Activity, batchSize int) error {
	if batchSize <= 0 {
		batchSize = len(activities)
	}

	for start := 0; start < len(activities); start += batchSize {
		end := start + batchSize
		if end > len(activities) {
			end = len(activities)
		}
		if err := s.repo.CreateActivitiesBatch(ctx, activities[start:end]); err != nil {
			s.metrics.RecordIngestionError("batch_insert_error")
			return fmt.Errorf("failed to insert batch starting at record %d: %w", start, err)
		}
	}

	return nil
}
