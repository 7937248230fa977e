// Package timeseries provides the fixed-frequency monthly series produced
// by the activity pipeline, along with the inert transforms downstream
// statistical tooling expects as input.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"

	"ride-analytics/internal/models"
)

// MonthlyFrequency is the number of periods per year for monthly series.
const MonthlyFrequency = 12

// Series is an ordered, fixed-frequency sequence of values indexed by
// calendar period. It carries no model semantics; it is the hand-off format
// for decomposition and forecasting tools.
type Series struct {
	Name       string
	StartYear  int
	StartMonth time.Month
	Frequency  int
	Values     []float64
}

// NewMonthly creates a monthly series starting at the given period.
func NewMonthly(name string, start time.Time, values []float64) *Series {
	return &Series{
		Name:       name,
		StartYear:  start.Year(),
		StartMonth: start.Month(),
		Frequency:  MonthlyFrequency,
		Values:     values,
	}
}

// Series metric names accepted by ForMetric.
const (
	MetricTotalDuration = "total_duration_min"
	MetricEndurance     = "endurance_min"
	MetricTotalDistance = "total_distance_km"
	MetricMeanAvgSpeed  = "mean_avg_speed_kmh"
	MetricMaxSpeed      = "max_speed_kmh"
	MetricMeanAvgPower  = "mean_avg_power_w"
)

// ForMetric builds a monthly series from one column of a gap-filled
// aggregate table. The aggregates must be contiguous and fully filled; an
// absent value means the gap filler has not run and is an error.
func ForMetric(metric string, aggregates []*models.MonthlyAggregate) (*Series, error) {
	if len(aggregates) == 0 {
		return nil, errors.New("cannot build series from empty aggregate table")
	}

	var get func(*models.MonthlyAggregate) *float64
	switch metric {
	case MetricTotalDuration:
		get = func(a *models.MonthlyAggregate) *float64 { return a.TotalDurationMin }
	case MetricEndurance:
		get = func(a *models.MonthlyAggregate) *float64 { return a.EnduranceMin }
	case MetricTotalDistance:
		get = func(a *models.MonthlyAggregate) *float64 { return a.TotalDistanceKm }
	case MetricMeanAvgSpeed:
		get = func(a *models.MonthlyAggregate) *float64 { return a.MeanAvgSpeedKmh }
	case MetricMaxSpeed:
		get = func(a *models.MonthlyAggregate) *float64 { return a.MaxSpeedKmh }
	case MetricMeanAvgPower:
		get = func(a *models.MonthlyAggregate) *float64 { return a.MeanAvgPowerW }
	default:
		return nil, fmt.Errorf("unknown series metric %q", metric)
	}

	values := make([]float64, len(aggregates))
	for i, agg := range aggregates {
		v := get(agg)
		if v == nil {
			return nil, fmt.Errorf("aggregate %s has no value for %s; run gap filling first",
				agg.Month.Format("2006-01"), metric)
		}
		values[i] = *v
	}

	return NewMonthly(metric, aggregates[0].Month, values), nil
}

// Len returns the number of periods in the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Value returns the value at period index i.
func (s *Series) Value(i int) float64 {
	return s.Values[i]
}

// PeriodAt returns the calendar period of index i as a first-of-month date.
func (s *Series) PeriodAt(i int) time.Time {
	months := (s.StartYear*12 + int(s.StartMonth) - 1) + i
	return time.Date(months/12, time.Month(months%12+1), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the calendar period of the last value.
func (s *Series) End() time.Time {
	return s.PeriodAt(len(s.Values) - 1)
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s.Values {
		sum += v
	}
	return sum / float64(len(s.Values))
}

// Std calculates the sample standard deviation of the series.
func (s *Series) Std() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	mean := s.Mean()
	sumSq := 0.0
	for _, v := range s.Values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(s.Values)-1))
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	min := s.Values[0]
	for _, v := range s.Values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	max := s.Values[0]
	for _, v := range s.Values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Diff calculates the first difference of the series. The result starts one
// period later and is one value shorter.
func (s *Series) Diff() *Series {
	return s.lagDiff(1, "_diff")
}

// SeasonalDiff calculates the difference at the seasonal lag, one full year
// back for monthly series.
func (s *Series) SeasonalDiff() *Series {
	return s.lagDiff(s.Frequency, "_seasonal_diff")
}

func (s *Series) lagDiff(k int, suffix string) *Series {
	if k <= 0 || len(s.Values) <= k {
		return &Series{
			Name:      s.Name + suffix,
			Frequency: s.Frequency,
		}
	}

	values := make([]float64, len(s.Values)-k)
	for i := k; i < len(s.Values); i++ {
		values[i-k] = s.Values[i] - s.Values[i-k]
	}

	start := s.PeriodAt(k)
	out := NewMonthly(s.Name+suffix, start, values)
	out.Frequency = s.Frequency
	return out
}

// MovingAverage calculates a trailing simple moving average with the given
// window. The result starts window-1 periods into the series.
func (s *Series) MovingAverage(window int) *Series {
	if window <= 0 || window > len(s.Values) {
		return &Series{
			Name:      s.Name + "_ma",
			Frequency: s.Frequency,
		}
	}

	values := make([]float64, len(s.Values)-window+1)
	sum := 0.0
	for i := 0; i < window; i++ {
		sum += s.Values[i]
	}
	values[0] = sum / float64(window)

	for i := window; i < len(s.Values); i++ {
		sum = sum - s.Values[i-window] + s.Values[i]
		values[i-window+1] = sum / float64(window)
	}

	out := NewMonthly(s.Name+"_ma", s.PeriodAt(window-1), values)
	out.Frequency = s.Frequency
	return out
}
