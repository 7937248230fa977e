package analysis

import (
	"testing"
	"time"

	"ride-analytics/internal/models"
)

func monthlyRide(start string, duration, avgSpeed, avgPower *float64) *models.Activity {
	ts, _ := time.Parse("2006-01-02 15:04:05", start)
	return &models.Activity{
		ActivityType: "cycling",
		StartTime:    ts,
		DurationMin:  duration,
		AvgSpeedKmh:  avgSpeed,
		AvgPowerW:    avgPower,
	}
}

func TestAggregateMonthly(t *testing.T) {
	activities := []*models.Activity{
		monthlyRide("2016-05-03 09:00:00", fptr(30), fptr(24), fptr(180)),
		monthlyRide("2016-05-14 10:00:00", fptr(45), fptr(26), fptr(200)),
		monthlyRide("2016-05-28 08:00:00", fptr(90), fptr(22), nil),
		monthlyRide("2016-07-02 09:00:00", fptr(60), nil, fptr(210)),
	}

	aggregates := AggregateMonthly(activities, AggregateOptions{})

	if len(aggregates) != 2 {
		t.Fatalf("got %d months, want 2", len(aggregates))
	}

	may := aggregates[0]
	if !may.Month.Equal(time.Date(2016, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first month = %v, want 2016-05", may.Month)
	}
	if may.RideCount != 3 {
		t.Errorf("RideCount = %d, want 3", may.RideCount)
	}
	if may.TotalDurationMin == nil || *may.TotalDurationMin != 165 {
		t.Errorf("TotalDurationMin = %v, want 165", may.TotalDurationMin)
	}
	if may.EnduranceMin == nil || *may.EnduranceMin != 90 {
		t.Errorf("EnduranceMin = %v, want 90", may.EnduranceMin)
	}
	if may.MeanAvgSpeedKmh == nil || *may.MeanAvgSpeedKmh != 24 {
		t.Errorf("MeanAvgSpeedKmh = %v, want 24", may.MeanAvgSpeedKmh)
	}
	// Power mean from the two rides that reported power, not three.
	if may.MeanAvgPowerW == nil || *may.MeanAvgPowerW != 190 {
		t.Errorf("MeanAvgPowerW = %v, want 190", may.MeanAvgPowerW)
	}

	july := aggregates[1]
	if !july.Month.Equal(time.Date(2016, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("second month = %v, want 2016-07", july.Month)
	}
	if july.MeanAvgSpeedKmh != nil {
		t.Error("no ride reported avgSpeed in July, mean should be nil")
	}
	if july.MeanAvgPowerW == nil || *july.MeanAvgPowerW != 210 {
		t.Errorf("MeanAvgPowerW = %v, want 210", july.MeanAvgPowerW)
	}
}

func TestAggregateMonthly_SortedOutput(t *testing.T) {
	activities := []*models.Activity{
		monthlyRide("2017-03-01 09:00:00", fptr(30), nil, nil),
		monthlyRide("2016-11-01 09:00:00", fptr(30), nil, nil),
		monthlyRide("2017-01-01 09:00:00", fptr(30), nil, nil),
	}

	aggregates := AggregateMonthly(activities, AggregateOptions{})

	for i := 1; i < len(aggregates); i++ {
		if !aggregates[i-1].Month.Before(aggregates[i].Month) {
			t.Errorf("months not ascending: %v before %v",
				aggregates[i-1].Month, aggregates[i].Month)
		}
	}
}

func TestAggregateMonthly_SpeedAsPowerProxy(t *testing.T) {
	activities := []*models.Activity{
		monthlyRide("2016-05-03 09:00:00", fptr(30), fptr(24), fptr(180)),
		monthlyRide("2016-05-14 10:00:00", fptr(45), fptr(26), fptr(200)),
	}

	proxied := AggregateMonthly(activities, AggregateOptions{SpeedAsPowerProxy: true})
	if proxied[0].MeanAvgPowerW == nil || *proxied[0].MeanAvgPowerW != 25 {
		t.Errorf("proxied MeanAvgPowerW = %v, want mean avgSpeed 25", proxied[0].MeanAvgPowerW)
	}

	real := AggregateMonthly(activities, AggregateOptions{})
	if real[0].MeanAvgPowerW == nil || *real[0].MeanAvgPowerW != 190 {
		t.Errorf("MeanAvgPowerW = %v, want mean avgPower 190", real[0].MeanAvgPowerW)
	}
}

func TestAggregateMonthly_Empty(t *testing.T) {
	aggregates := AggregateMonthly(nil, AggregateOptions{})
	if len(aggregates) != 0 {
		t.Errorf("got %d months for empty input, want 0", len(aggregates))
	}
}

func TestAggregateMonthly_AllNilMetric(t *testing.T) {
	activities := []*models.Activity{
		monthlyRide("2016-05-03 09:00:00", nil, nil, nil),
		monthlyRide("2016-05-14 10:00:00", nil, nil, nil),
	}

	aggregates := AggregateMonthly(activities, AggregateOptions{})
	if len(aggregates) != 1 {
		t.Fatalf("got %d months, want 1", len(aggregates))
	}

	agg := aggregates[0]
	if agg.RideCount != 2 {
		t.Errorf("RideCount = %d, want 2", agg.RideCount)
	}
	if agg.TotalDurationMin != nil || agg.EnduranceMin != nil ||
		agg.MeanAvgSpeedKmh != nil || agg.MeanAvgPowerW != nil {
		t.Error("metrics with no contributing values should stay nil, not zero")
	}
}
