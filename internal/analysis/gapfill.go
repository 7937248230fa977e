package analysis

import (
	"fmt"
	"time"

	"ride-analytics/internal/models"
)

// EmptyColumnError reports a metric column with no observed value anywhere,
// which makes interpolation impossible. It is fatal for the fill; no
// substitute value is invented.
type EmptyColumnError struct {
	Column string
	Months int
}

func (e *EmptyColumnError) Error() string {
	return fmt.Sprintf("cannot interpolate column %q: no observed values across %d months", e.Column, e.Months)
}

func (e *EmptyColumnError) IsTransient() bool {
	return false
}

// FillResult contains the gap-filled aggregates plus fill accounting.
type FillResult struct {
	Aggregates     []*models.MonthlyAggregate
	InsertedMonths int
	FilledValues   map[string]int
}

// aggregate metric columns, in fill order.
var fillColumns = []struct {
	name string
	get  func(*models.MonthlyAggregate) *float64
	set  func(*models.MonthlyAggregate, float64)
}{
	{"total_duration_min",
		func(a *models.MonthlyAggregate) *float64 { return a.TotalDurationMin },
		func(a *models.MonthlyAggregate, v float64) { a.TotalDurationMin = &v }},
	{"endurance_min",
		func(a *models.MonthlyAggregate) *float64 { return a.EnduranceMin },
		func(a *models.MonthlyAggregate, v float64) { a.EnduranceMin = &v }},
	{"total_distance_km",
		func(a *models.MonthlyAggregate) *float64 { return a.TotalDistanceKm },
		func(a *models.MonthlyAggregate, v float64) { a.TotalDistanceKm = &v }},
	{"mean_avg_speed_kmh",
		func(a *models.MonthlyAggregate) *float64 { return a.MeanAvgSpeedKmh },
		func(a *models.MonthlyAggregate, v float64) { a.MeanAvgSpeedKmh = &v }},
	{"max_speed_kmh",
		func(a *models.MonthlyAggregate) *float64 { return a.MaxSpeedKmh },
		func(a *models.MonthlyAggregate, v float64) { a.MaxSpeedKmh = &v }},
	{"mean_avg_power_w",
		func(a *models.MonthlyAggregate) *float64 { return a.MeanAvgPowerW },
		func(a *models.MonthlyAggregate, v float64) { a.MeanAvgPowerW = &v }},
}

// FillGaps completes the month sequence from the earliest to the latest
// aggregate, inserting an all-absent row for every missing month, then
// replaces every absent metric value by linear interpolation over the month
// index. Absent values at the sequence boundaries take the nearest observed
// value; no slope is extrapolated. Input must be sorted by month ascending
// with no duplicate months.
func FillGaps(aggregates []*models.MonthlyAggregate) (*FillResult, error) {
	if len(aggregates) == 0 {
		return &FillResult{FilledValues: make(map[string]int)}, nil
	}

	for i := 1; i < len(aggregates); i++ {
		prev, cur := aggregates[i-1].Month, aggregates[i].Month
		if cur.Equal(prev) {
			return nil, fmt.Errorf("duplicate aggregate month %s", cur.Format("2006-01"))
		}
		if cur.Before(prev) {
			return nil, fmt.Errorf("aggregates not sorted: %s follows %s",
				cur.Format("2006-01"), prev.Format("2006-01"))
		}
	}

	result := &FillResult{FilledValues: make(map[string]int)}
	now := time.Now().UTC()

	first := aggregates[0].Month
	last := aggregates[len(aggregates)-1].Month

	byMonth := make(map[time.Time]*models.MonthlyAggregate, len(aggregates))
	for _, agg := range aggregates {
		byMonth[agg.Month] = agg
	}

	var filled []*models.MonthlyAggregate
	for m := first; !m.After(last); m = NextMonth(m) {
		if agg, ok := byMonth[m]; ok {
			filled = append(filled, agg)
			continue
		}
		result.InsertedMonths++
		filled = append(filled, &models.MonthlyAggregate{
			Month:        m,
			Interpolated: true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	for _, col := range fillColumns {
		n, err := interpolateColumn(filled, col.name, col.get, col.set)
		if err != nil {
			return nil, err
		}
		result.FilledValues[col.name] = n
	}

	result.Aggregates = filled
	return result, nil
}

// interpolateColumn fills the absent values of one metric column in place
// and returns the number of values filled.
func interpolateColumn(
	aggs []*models.MonthlyAggregate,
	name string,
	get func(*models.MonthlyAggregate) *float64,
	set func(*models.MonthlyAggregate, float64),
) (int, error) {
	n := len(aggs)

	// Indices of observed values.
	var known []int
	for i, agg := range aggs {
		if get(agg) != nil {
			known = append(known, i)
		}
	}
	if len(known) == 0 {
		return 0, &EmptyColumnError{Column: name, Months: n}
	}

	filledCount := 0
	for i, agg := range aggs {
		if get(agg) != nil {
			continue
		}

		lo, hi := neighbors(known, i)
		var v float64
		switch {
		case lo < 0:
			// Leading gap: nearest observed value.
			v = *get(aggs[hi])
		case hi < 0:
			// Trailing gap: nearest observed value.
			v = *get(aggs[lo])
		default:
			loV, hiV := *get(aggs[lo]), *get(aggs[hi])
			frac := float64(i-lo) / float64(hi-lo)
			v = loV + frac*(hiV-loV)
		}

		set(agg, v)
		agg.Interpolated = true
		filledCount++
	}

	return filledCount, nil
}

// neighbors returns the nearest known indices below and above i, or -1 when
// no such neighbor exists on that side.
func neighbors(known []int, i int) (lo, hi int) {
	lo, hi = -1, -1
	for _, k := range known {
		if k < i {
			lo = k
		}
		if k > i {
			hi = k
			break
		}
	}
	return lo, hi
}
