package analysis

import (
	"testing"
	"time"

	"ride-analytics/internal/models"
)

func fptr(v float64) *float64 {
	return &v
}

func ride(start string, duration, avgSpeed, maxSpeed, elevation float64) *models.Activity {
	ts, _ := time.Parse("2006-01-02 15:04:05", start)
	return &models.Activity{
		ActivityType:   "cycling",
		StartTime:      ts,
		DurationMin:    fptr(duration),
		AvgSpeedKmh:    fptr(avgSpeed),
		MaxSpeedKmh:    fptr(maxSpeed),
		ElevationGainM: fptr(elevation),
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name        string
		activities  []*models.Activity
		checkValues func(*testing.T, *CleanResult)
	}{
		{
			name: "thresholds applied row-wise",
			activities: []*models.Activity{
				ride("2016-05-01 09:00:00", 95, 26, 58, 410),    // keeps
				ride("2016-05-02 09:00:00", 8, 26, 58, 410),     // short duration
				ride("2016-05-03 09:00:00", 95, 4, 58, 410),     // low avg speed
				ride("2016-05-04 09:00:00", 95, 26, 140, 410),   // speed over cap
				ride("2016-05-05 09:00:00", 95, 26, 58, 3400),   // excessive elevation
			},
			checkValues: func(t *testing.T, result *CleanResult) {
				if result.Kept != 1 {
					t.Errorf("Kept = %d, want 1", result.Kept)
				}
				wantDropped := map[string]int{
					DropShortDuration:      1,
					DropLowAvgSpeed:        1,
					DropSpeedOverCap:       1,
					DropExcessiveElevation: 1,
				}
				for reason, want := range wantDropped {
					if got := result.Dropped[reason]; got != want {
						t.Errorf("Dropped[%s] = %d, want %d", reason, got, want)
					}
				}
			},
		},
		{
			name: "boundary values are excluded",
			activities: []*models.Activity{
				ride("2016-05-01 09:00:00", 10, 26, 58, 410), // duration must exceed 10
				ride("2016-05-02 09:00:00", 95, 5, 58, 410),  // avg speed must exceed 5
				ride("2016-05-03 09:00:00", 95, 26, 120, 410), // max speed 120 is allowed
			},
			checkValues: func(t *testing.T, result *CleanResult) {
				if result.Kept != 1 {
					t.Errorf("Kept = %d, want 1", result.Kept)
				}
				if result.Activities[0].MaxSpeedKmh == nil || *result.Activities[0].MaxSpeedKmh != 120 {
					t.Error("ride at the 120 km/h cap should survive")
				}
			},
		},
		{
			name: "wrong activity type dropped",
			activities: []*models.Activity{
				func() *models.Activity {
					a := ride("2016-05-01 09:00:00", 95, 26, 58, 410)
					a.ActivityType = "running"
					return a
				}(),
			},
			checkValues: func(t *testing.T, result *CleanResult) {
				if result.Kept != 0 {
					t.Errorf("Kept = %d, want 0", result.Kept)
				}
				if result.Dropped[DropWrongType] != 1 {
					t.Errorf("Dropped[%s] = %d, want 1", DropWrongType, result.Dropped[DropWrongType])
				}
			},
		},
		{
			name: "duplicate start timestamps collapse to first",
			activities: []*models.Activity{
				ride("2016-05-01 09:00:00", 95, 26, 58, 410),
				ride("2016-05-01 09:00:00", 60, 24, 50, 300),
			},
			checkValues: func(t *testing.T, result *CleanResult) {
				if result.Kept != 1 {
					t.Errorf("Kept = %d, want 1", result.Kept)
				}
				if result.Dropped[DropDuplicateStart] != 1 {
					t.Errorf("Dropped[%s] = %d, want 1", DropDuplicateStart, result.Dropped[DropDuplicateStart])
				}
				if *result.Activities[0].DurationMin != 95 {
					t.Error("first occurrence should survive, not the duplicate")
				}
			},
		},
		{
			name: "nil threshold metrics cannot satisfy a predicate",
			activities: []*models.Activity{
				func() *models.Activity {
					a := ride("2016-05-01 09:00:00", 95, 26, 58, 410)
					a.DurationMin = nil
					return a
				}(),
			},
			checkValues: func(t *testing.T, result *CleanResult) {
				if result.Kept != 0 {
					t.Errorf("Kept = %d, want 0", result.Kept)
				}
				if result.Dropped[DropShortDuration] != 1 {
					t.Error("nil duration should count as a short-duration drop")
				}
			},
		},
		{
			name:       "empty input is valid",
			activities: nil,
			checkValues: func(t *testing.T, result *CleanResult) {
				if result.Kept != 0 || result.Total != 0 {
					t.Errorf("expected empty result, got kept=%d total=%d", result.Kept, result.Total)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Clean(tt.activities, DefaultCleaningRules())
			tt.checkValues(t, result)
		})
	}
}

// TestClean_Idempotent verifies re-cleaning a clean set returns it unchanged.
func TestClean_Idempotent(t *testing.T) {
	activities := []*models.Activity{
		ride("2016-05-01 09:00:00", 95, 26, 58, 410),
		ride("2016-06-01 09:00:00", 45, 22, 44, 200),
		ride("2016-05-02 09:00:00", 8, 26, 58, 410),
	}

	first := Clean(activities, DefaultCleaningRules())
	second := Clean(first.Activities, DefaultCleaningRules())

	if second.Kept != first.Kept {
		t.Fatalf("second pass kept %d, want %d", second.Kept, first.Kept)
	}
	for reason, count := range second.Dropped {
		if count != 0 {
			t.Errorf("second pass dropped %d for %s, want 0", count, reason)
		}
	}
	for i := range first.Activities {
		if first.Activities[i] != second.Activities[i] {
			t.Errorf("activity %d changed between passes", i)
		}
	}
}

// TestClean_InvariantsHold checks the post-clean row invariants.
func TestClean_InvariantsHold(t *testing.T) {
	activities := []*models.Activity{
		ride("2016-05-01 09:00:00", 95, 26, 58, 410),
		ride("2016-05-01 09:00:00", 95, 26, 58, 410),
		ride("2016-05-02 09:00:00", 11, 6, 120, 2999),
		ride("2016-05-03 09:00:00", 200, 30, 121, 100),
	}

	result := Clean(activities, DefaultCleaningRules())

	seen := make(map[time.Time]bool)
	for _, act := range result.Activities {
		if *act.DurationMin <= 10 {
			t.Errorf("duration %v violates invariant", *act.DurationMin)
		}
		if *act.AvgSpeedKmh <= 5 {
			t.Errorf("avg speed %v violates invariant", *act.AvgSpeedKmh)
		}
		if *act.MaxSpeedKmh > 120 {
			t.Errorf("max speed %v violates invariant", *act.MaxSpeedKmh)
		}
		if *act.ElevationGainM >= 3000 {
			t.Errorf("elevation gain %v violates invariant", *act.ElevationGainM)
		}
		if seen[act.StartTime] {
			t.Errorf("duplicate start time %v survived cleaning", act.StartTime)
		}
		seen[act.StartTime] = true
	}
}
