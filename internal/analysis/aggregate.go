package analysis

import (
	"sort"
	"time"

	"ride-analytics/internal/models"
)

// AggregateOptions controls monthly aggregation.
//
// SpeedAsPowerProxy reproduces a defect in the original analysis where the
// monthly power column was computed as the mean of avgSpeed instead of
// avgPower. It exists only for output compatibility with that analysis and
// defaults to off.
type AggregateOptions struct {
	SpeedAsPowerProxy bool
}

// AggregateMonthly buckets cleaned activities by calendar month and computes
// per-bucket summary statistics. Absent metric values are excluded from each
// reduction, never treated as zero; a bucket where no ride contributed a
// value for a metric keeps that metric nil. Output has one row per month
// with at least one activity, sorted by month ascending.
func AggregateMonthly(activities []*models.Activity, opts AggregateOptions) []*models.MonthlyAggregate {
	buckets := make(map[time.Time][]*models.Activity)
	for _, act := range activities {
		m := MonthOf(act.StartTime)
		buckets[m] = append(buckets[m], act)
	}

	months := make([]time.Time, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	now := time.Now().UTC()
	aggregates := make([]*models.MonthlyAggregate, 0, len(months))

	for _, m := range months {
		rides := buckets[m]
		agg := &models.MonthlyAggregate{
			Month:     m,
			RideCount: len(rides),
			CreatedAt: now,
			UpdatedAt: now,
		}

		agg.TotalDurationMin = reduceSum(rides, duration)
		agg.EnduranceMin = reduceMax(rides, duration)
		agg.TotalDistanceKm = reduceSum(rides, distance)
		agg.MeanAvgSpeedKmh = reduceMean(rides, avgSpeed)
		agg.MaxSpeedKmh = reduceMax(rides, maxSpeed)

		if opts.SpeedAsPowerProxy {
			agg.MeanAvgPowerW = reduceMean(rides, avgSpeed)
		} else {
			agg.MeanAvgPowerW = reduceMean(rides, avgPower)
		}

		aggregates = append(aggregates, agg)
	}

	return aggregates
}

// Metric accessors for the reductions.
func duration(a *models.Activity) *float64 { return a.DurationMin }
func distance(a *models.Activity) *float64 { return a.DistanceKm }
func avgSpeed(a *models.Activity) *float64 { return a.AvgSpeedKmh }
func maxSpeed(a *models.Activity) *float64 { return a.MaxSpeedKmh }
func avgPower(a *models.Activity) *float64 { return a.AvgPowerW }

func reduceSum(rides []*models.Activity, metric func(*models.Activity) *float64) *float64 {
	sum := 0.0
	n := 0
	for _, r := range rides {
		if v := metric(r); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return &sum
}

func reduceMean(rides []*models.Activity, metric func(*models.Activity) *float64) *float64 {
	sum := 0.0
	n := 0
	for _, r := range rides {
		if v := metric(r); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

func reduceMax(rides []*models.Activity, metric func(*models.Activity) *float64) *float64 {
	var max *float64
	for _, r := range rides {
		v := metric(r)
		if v == nil {
			continue
		}
		if max == nil || *v > *max {
			val := *v
			max = &val
		}
	}
	return max
}
