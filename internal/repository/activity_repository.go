package repository

import (
	"context"
	"fmt"
	"time"

	"ride-analytics/internal/models"
	"ride-analytics/pkg/database"
	"ride-analytics/pkg/logging"
	"ride-analytics/pkg/metrics"
)

// ActivityRepository provides data access for activities and their monthly
// aggregates.
type ActivityRepository interface {
	// Activity operations
	CreateActivitiesBatch(ctx context.Context, activities []*models.Activity) error
	GetActivities(ctx context.Context, filter ActivityFilter) ([]*models.Activity, int, error)
	ListAllActivities(ctx context.Context) ([]*models.Activity, error)

	// Monthly aggregate operations
	UpsertMonthlyAggregates(ctx context.Context, aggregates []*models.MonthlyAggregate) error
	GetMonthlyAggregates(ctx context.Context, filter AggregateFilter) ([]*models.MonthlyAggregate, int, error)
	ListAllMonthlyAggregates(ctx context.Context) ([]*models.MonthlyAggregate, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// ActivityFilter defines filters for querying activities
type ActivityFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// AggregateFilter defines filters for querying monthly aggregates
type AggregateFilter struct {
	Year   *int
	Limit  int
	Offset int
}

// activityRepository implements ActivityRepository
type activityRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) ActivityRepository {
	return &activityRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateActivitiesBatch inserts activities in a single transaction.
// Re-ingesting the same export is a no-op: rows conflict on start_time.
func (r *activityRepository) CreateActivitiesBatch(ctx context.Context, activities []*models.Activity) error {
	if len(activities) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		r.metrics.IngestionBatchSize.Observe(float64(len(activities)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(activities),
			"duration_ms": time.Since(timer).Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO activities (
			activity_type, start_time,
			duration_min, distance_km, avg_speed_kmh, max_speed_kmh,
			elevation_gain_m, avg_hr, avg_power_w, max_20min_power_w,
			avg_cadence_rpm, calories,
			year, month, iso_weekday, hour_of_day,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (start_time) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, act := range activities {
		_, err := stmt.ExecContext(ctx,
			act.ActivityType,
			act.StartTime,
			act.DurationMin,
			act.DistanceKm,
			act.AvgSpeedKmh,
			act.MaxSpeedKmh,
			act.ElevationGainM,
			act.AvgHr,
			act.AvgPowerW,
			act.Max20MinPowerW,
			act.AvgCadenceRpm,
			act.Calories,
			act.Year,
			act.Month,
			act.ISOWeekday,
			act.HourOfDay,
			act.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert activity at %s: %w",
				act.StartTime.Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(activities)))

	return nil
}

const activityColumns = `
	id, activity_type, start_time,
	duration_min, distance_km, avg_speed_kmh, max_speed_kmh,
	elevation_gain_m, avg_hr, avg_power_w, max_20min_power_w,
	avg_cadence_rpm, calories,
	year, month, iso_weekday, hour_of_day,
	created_at
`

// GetActivities retrieves activities with filtering and pagination
func (r *activityRepository) GetActivities(ctx context.Context, filter ActivityFilter) ([]*models.Activity, int, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND start_time >= $%d", argNum)
		args = append(args, *filter.StartDate)
		argNum++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND start_time <= $%d", argNum)
		args = append(args, *filter.EndDate)
		argNum++
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	if err := r.db.GetContext(ctx, "count_activities", &totalCount, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	query += " ORDER BY start_time DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var activities []*models.Activity
	if err := r.db.SelectContext(ctx, "get_activities", &activities, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to get activities: %w", err)
	}

	return activities, totalCount, nil
}

// ListAllActivities retrieves every stored activity ordered by start time,
// as input for the analysis pipeline.
func (r *activityRepository) ListAllActivities(ctx context.Context) ([]*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities ORDER BY start_time`

	var activities []*models.Activity
	if err := r.db.SelectContext(ctx, "list_all_activities", &activities, query); err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	return activities, nil
}

// UpsertMonthlyAggregates creates or updates monthly aggregate rows
func (r *activityRepository) UpsertMonthlyAggregates(ctx context.Context, aggregates []*models.MonthlyAggregate) error {
	if len(aggregates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO monthly_aggregates (
			month, ride_count,
			total_duration_min, endurance_min, total_distance_km,
			mean_avg_speed_kmh, max_speed_kmh, mean_avg_power_w,
			interpolated, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (month) DO UPDATE SET
			ride_count = EXCLUDED.ride_count,
			total_duration_min = EXCLUDED.total_duration_min,
			endurance_min = EXCLUDED.endurance_min,
			total_distance_km = EXCLUDED.total_distance_km,
			mean_avg_speed_kmh = EXCLUDED.mean_avg_speed_kmh,
			max_speed_kmh = EXCLUDED.max_speed_kmh,
			mean_avg_power_w = EXCLUDED.mean_avg_power_w,
			interpolated = EXCLUDED.interpolated,
			updated_at = EXCLUDED.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, agg := range aggregates {
		_, err := stmt.ExecContext(ctx,
			agg.Month,
			agg.RideCount,
			agg.TotalDurationMin,
			agg.EnduranceMin,
			agg.TotalDistanceKm,
			agg.MeanAvgSpeedKmh,
			agg.MaxSpeedKmh,
			agg.MeanAvgPowerW,
			agg.Interpolated,
			agg.CreatedAt,
			agg.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert aggregate for %s: %w",
				agg.Month.Format("2006-01"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

const aggregateColumns = `
	id, month, ride_count,
	total_duration_min, endurance_min, total_distance_km,
	mean_avg_speed_kmh, max_speed_kmh, mean_avg_power_w,
	interpolated, created_at, updated_at
`

// GetMonthlyAggregates retrieves monthly aggregates with filtering and pagination
func (r *activityRepository) GetMonthlyAggregates(ctx context.Context, filter AggregateFilter) ([]*models.MonthlyAggregate, int, error) {
	query := `SELECT ` + aggregateColumns + ` FROM monthly_aggregates WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.Year != nil {
		query += fmt.Sprintf(" AND EXTRACT(YEAR FROM month) = $%d", argNum)
		args = append(args, *filter.Year)
		argNum++
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	if err := r.db.GetContext(ctx, "count_aggregates", &totalCount, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count aggregates: %w", err)
	}

	query += " ORDER BY month"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var aggregates []*models.MonthlyAggregate
	if err := r.db.SelectContext(ctx, "get_aggregates", &aggregates, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to get aggregates: %w", err)
	}

	return aggregates, totalCount, nil
}

// ListAllMonthlyAggregates retrieves every aggregate row ordered by month,
// as input for series building.
func (r *activityRepository) ListAllMonthlyAggregates(ctx context.Context) ([]*models.MonthlyAggregate, error) {
	query := `SELECT ` + aggregateColumns + ` FROM monthly_aggregates ORDER BY month`

	var aggregates []*models.MonthlyAggregate
	if err := r.db.SelectContext(ctx, "list_all_aggregates", &aggregates, query); err != nil {
		return nil, fmt.Errorf("failed to list aggregates: %w", err)
	}

	return aggregates, nil
}

// HealthCheck performs a repository health check
func (r *activityRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
