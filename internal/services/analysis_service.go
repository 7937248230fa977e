package services

import (
	"context"
	"fmt"
	"time"

	"ride-analytics/internal/analysis"
	"ride-analytics/internal/models"
	"ride-analytics/internal/repository"
	"ride-analytics/internal/timeseries"
	"ride-analytics/pkg/logging"
	"ride-analytics/pkg/metrics"
)

// AnalysisService aggregates stored activities to monthly granularity,
// fills calendar gaps and builds the series handed to forecasting tools.
type AnalysisService struct {
	repo    repository.ActivityRepository
	opts    analysis.AggregateOptions
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// AnalysisResult contains the outcome of one aggregation run
type AnalysisResult struct {
	Months         int
	InsertedMonths int
	FilledValues   map[string]int
	Duration       time.Duration
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	repo repository.ActivityRepository,
	opts analysis.AggregateOptions,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *AnalysisService {
	return &AnalysisService{
		repo:    repo,
		opts:    opts,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// RunMonthlyAggregation recomputes monthly aggregates from all stored
// activities, fills calendar gaps and upserts the result.
func (s *AnalysisService) RunMonthlyAggregation(ctx context.Context) (*AnalysisResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[AGG_START] Starting monthly aggregation", logging.Fields{
		"speed_as_power_proxy": s.opts.SpeedAsPowerProxy,
		"stage":                "INITIALIZATION",
	})

	activities, err := s.repo.ListAllActivities(ctx)
	if err != nil {
		s.metrics.RecordPipelineRun("error")
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	aggTimer := s.metrics.NewTimer(s.metrics.AggregationDuration)
	aggregates := analysis.AggregateMonthly(activities, s.opts)
	aggTimer.ObserveDuration()

	filled, err := analysis.FillGaps(aggregates)
	if err != nil {
		s.metrics.RecordPipelineRun("error")
		s.logger.Error(ctx, "[AGG_FILL_ERROR] Gap filling failed", logging.Fields{
			"months": len(aggregates),
		}, err)
		return nil, fmt.Errorf("failed to fill aggregate gaps: %w", err)
	}

	s.metrics.GapMonthsInserted.Add(float64(filled.InsertedMonths))
	for column, count := range filled.FilledValues {
		s.metrics.RecordInterpolatedValues(column, count)
	}

	if err := s.repo.UpsertMonthlyAggregates(ctx, filled.Aggregates); err != nil {
		s.metrics.RecordPipelineRun("error")
		return nil, fmt.Errorf("failed to store monthly aggregates: %w", err)
	}

	result := &AnalysisResult{
		Months:         len(filled.Aggregates),
		InsertedMonths: filled.InsertedMonths,
		FilledValues:   filled.FilledValues,
		Duration:       time.Since(startTime),
	}

	s.metrics.RecordPipelineRun("success")
	s.logger.Info(ctx, "[AGG_COMPLETE] Monthly aggregation completed", logging.Fields{
		"months":           result.Months,
		"inserted_months":  result.InsertedMonths,
		"filled_values":    result.FilledValues,
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}

// GetMonthlyAggregates retrieves stored aggregates with filtering
func (s *AnalysisService) GetMonthlyAggregates(ctx context.Context, filter repository.AggregateFilter) ([]*models.MonthlyAggregate, int, error) {
	return s.repo.GetMonthlyAggregates(ctx, filter)
}

// GetActivities retrieves stored activities with filtering
func (s *AnalysisService) GetActivities(ctx context.Context, filter repository.ActivityFilter) ([]*models.Activity, int, error) {
	return s.repo.GetActivities(ctx, filter)
}

// BuildSeries builds the monthly series for one aggregate metric from the
// stored aggregate table.
func (s *AnalysisService) BuildSeries(ctx context.Context, metric string) (*timeseries.Series, error) {
	aggregates, err := s.repo.ListAllMonthlyAggregates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aggregates: %w", err)
	}

	series, err := timeseries.ForMetric(metric, aggregates)
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "[SERIES_BUILT] Monthly series built", logging.Fields{
		"metric":  metric,
		"periods": series.Len(),
		"start":   series.PeriodAt(0).Format("2006-01"),
	})

	return series, nil
}

// Forecast methods accepted by Forecast.
const (
	ForecastNaive         = "naive"
	ForecastSeasonalNaive = "seasonal_naive"
	ForecastDrift         = "drift"
)

// Forecast builds a baseline forecast for one aggregate metric.
func (s *AnalysisService) Forecast(ctx context.Context, metric, method string, horizon int) (*timeseries.Series, error) {
	series, err := s.BuildSeries(ctx, metric)
	if err != nil {
		return nil, err
	}

	switch method {
	case ForecastNaive:
		return timeseries.Naive(series, horizon)
	case ForecastSeasonalNaive:
		return timeseries.SeasonalNaive(series, horizon)
	case ForecastDrift:
		return timeseries.Drift(series, horizon)
	default:
		return nil, fmt.Errorf("unknown forecast method %q", method)
	}
}
