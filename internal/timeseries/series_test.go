package timeseries

import (
	"math"
	"strings"
	"testing"
	"time"

	"ride-analytics/internal/models"
)

func fptr(v float64) *float64 {
	return &v
}

func filledAgg(year int, month time.Month, v float64) *models.MonthlyAggregate {
	return &models.MonthlyAggregate{
		Month:            time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		TotalDurationMin: fptr(v),
		EnduranceMin:     fptr(v),
		TotalDistanceKm:  fptr(v),
		MeanAvgSpeedKmh:  fptr(v),
		MaxSpeedKmh:      fptr(v),
		MeanAvgPowerW:    fptr(v),
	}
}

func TestForMetric(t *testing.T) {
	aggregates := []*models.MonthlyAggregate{
		filledAgg(2016, time.November, 310),
		filledAgg(2016, time.December, 120),
		filledAgg(2017, time.January, 450),
	}

	series, err := ForMetric(MetricTotalDuration, aggregates)
	if err != nil {
		t.Fatalf("ForMetric() error = %v", err)
	}

	if series.Name != MetricTotalDuration {
		t.Errorf("Name = %q, want %q", series.Name, MetricTotalDuration)
	}
	if series.Frequency != MonthlyFrequency {
		t.Errorf("Frequency = %d, want %d", series.Frequency, MonthlyFrequency)
	}
	if series.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", series.Len())
	}
	if series.Value(1) != 120 {
		t.Errorf("Value(1) = %v, want 120", series.Value(1))
	}

	// Period index round-trips through the year boundary.
	wantPeriods := []time.Time{
		time.Date(2016, 11, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2016, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, want := range wantPeriods {
		if got := series.PeriodAt(i); !got.Equal(want) {
			t.Errorf("PeriodAt(%d) = %v, want %v", i, got, want)
		}
	}
	if !series.End().Equal(wantPeriods[2]) {
		t.Errorf("End() = %v, want %v", series.End(), wantPeriods[2])
	}
}

func TestForMetric_Errors(t *testing.T) {
	t.Run("empty table", func(t *testing.T) {
		if _, err := ForMetric(MetricTotalDuration, nil); err == nil {
			t.Error("empty aggregate table should be rejected")
		}
	})

	t.Run("unknown metric", func(t *testing.T) {
		aggregates := []*models.MonthlyAggregate{filledAgg(2016, time.November, 310)}
		_, err := ForMetric("cadence_rpm", aggregates)
		if err == nil {
			t.Fatal("unknown metric should be rejected")
		}
		if !strings.Contains(err.Error(), "cadence_rpm") {
			t.Errorf("error should name the metric, got %v", err)
		}
	})

	t.Run("unfilled aggregate", func(t *testing.T) {
		agg := filledAgg(2016, time.November, 310)
		agg.MeanAvgPowerW = nil
		_, err := ForMetric(MetricMeanAvgPower, []*models.MonthlyAggregate{agg})
		if err == nil {
			t.Fatal("absent value should be rejected")
		}
		if !strings.Contains(err.Error(), "gap filling") {
			t.Errorf("error should point at gap filling, got %v", err)
		}
	})
}

func TestSeriesStatistics(t *testing.T) {
	s := NewMonthly("test", time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC),
		[]float64{2, 4, 4, 4, 5, 5, 7, 9})

	if got := s.Mean(); got != 5 {
		t.Errorf("Mean() = %v, want 5", got)
	}
	// Sample std of this classic set is sqrt(32/7).
	if got, want := s.Std(), math.Sqrt(32.0/7.0); math.Abs(got-want) > 1e-9 {
		t.Errorf("Std() = %v, want %v", got, want)
	}
	if got := s.Min(); got != 2 {
		t.Errorf("Min() = %v, want 2", got)
	}
	if got := s.Max(); got != 9 {
		t.Errorf("Max() = %v, want 9", got)
	}
}

func TestSeriesDiff(t *testing.T) {
	s := NewMonthly("test", time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC),
		[]float64{10, 15, 12, 20})

	d := s.Diff()

	want := []float64{5, -3, 8}
	if d.Len() != len(want) {
		t.Fatalf("Diff() length = %d, want %d", d.Len(), len(want))
	}
	for i, w := range want {
		if d.Value(i) != w {
			t.Errorf("Diff()[%d] = %v, want %v", i, d.Value(i), w)
		}
	}
	if !d.PeriodAt(0).Equal(time.Date(2016, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Diff() start = %v, want 2016-02", d.PeriodAt(0))
	}
}

func TestSeriesSeasonalDiff(t *testing.T) {
	// Two full years: second year is first year plus 10.
	values := make([]float64, 24)
	for i := 0; i < 12; i++ {
		values[i] = float64(100 + i)
		values[i+12] = float64(110 + i)
	}
	s := NewMonthly("test", time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), values)

	d := s.SeasonalDiff()

	if d.Len() != 12 {
		t.Fatalf("SeasonalDiff() length = %d, want 12", d.Len())
	}
	for i := 0; i < d.Len(); i++ {
		if d.Value(i) != 10 {
			t.Errorf("SeasonalDiff()[%d] = %v, want 10", i, d.Value(i))
		}
	}
	if !d.PeriodAt(0).Equal(time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("SeasonalDiff() start = %v, want 2016-01", d.PeriodAt(0))
	}
}

func TestSeriesDiff_TooShort(t *testing.T) {
	s := NewMonthly("test", time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), []float64{5})
	if got := s.Diff().Len(); got != 0 {
		t.Errorf("Diff() of single value has length %d, want 0", got)
	}
	if got := s.SeasonalDiff().Len(); got != 0 {
		t.Errorf("SeasonalDiff() of short series has length %d, want 0", got)
	}
}

func TestSeriesMovingAverage(t *testing.T) {
	s := NewMonthly("test", time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC),
		[]float64{3, 6, 9, 12, 15})

	ma := s.MovingAverage(3)

	want := []float64{6, 9, 12}
	if ma.Len() != len(want) {
		t.Fatalf("MovingAverage(3) length = %d, want %d", ma.Len(), len(want))
	}
	for i, w := range want {
		if ma.Value(i) != w {
			t.Errorf("MovingAverage(3)[%d] = %v, want %v", i, ma.Value(i), w)
		}
	}
	if !ma.PeriodAt(0).Equal(time.Date(2016, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("MovingAverage(3) start = %v, want 2016-03", ma.PeriodAt(0))
	}
}

func TestSeriesMovingAverage_BadWindow(t *testing.T) {
	s := NewMonthly("test", time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC),
		[]float64{3, 6})

	if got := s.MovingAverage(0).Len(); got != 0 {
		t.Errorf("MovingAverage(0) length = %d, want 0", got)
	}
	if got := s.MovingAverage(5).Len(); got != 0 {
		t.Errorf("oversized window length = %d, want 0", got)
	}
}
