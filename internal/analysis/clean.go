package analysis

import (
	"time"

	"ride-analytics/internal/models"
)

// CleaningRules holds the row-selection thresholds. The defaults were
// asserted from inspection of one specific export; they are configuration,
// not derived statistics.
type CleaningRules struct {
	ActivityType     string
	MinDurationMin   float64
	MinAvgSpeedKmh   float64
	MaxSpeedCapKmh   float64
	MaxElevationGain float64
}

// DefaultCleaningRules returns the standard cycling cleaning thresholds.
func DefaultCleaningRules() CleaningRules {
	return CleaningRules{
		ActivityType:     "cycling",
		MinDurationMin:   10,
		MinAvgSpeedKmh:   5,
		MaxSpeedCapKmh:   120,
		MaxElevationGain: 3000,
	}
}

// Drop reasons reported by Clean.
const (
	DropWrongType          = "wrong_activity_type"
	DropShortDuration      = "short_duration"
	DropLowAvgSpeed        = "low_avg_speed"
	DropSpeedOverCap       = "max_speed_over_cap"
	DropExcessiveElevation = "excessive_elevation_gain"
	DropDuplicateStart     = "duplicate_start_time"
)

// CleanResult contains the surviving activities plus per-reason drop counts.
type CleanResult struct {
	Activities []*models.Activity
	Total      int
	Kept       int
	Dropped    map[string]int
}

// Clean returns the subset of activities satisfying the rules, collapsing
// rows that share a start timestamp to their first occurrence. The input is
// not mutated. Cleaning an already-clean set returns an equal set, and an
// empty result is valid output.
func Clean(activities []*models.Activity, rules CleaningRules) *CleanResult {
	result := &CleanResult{
		Total:   len(activities),
		Dropped: make(map[string]int),
	}

	seen := make(map[time.Time]bool, len(activities))

	for _, act := range activities {
		reason, ok := check(act, rules)
		if !ok {
			result.Dropped[reason]++
			continue
		}
		if seen[act.StartTime] {
			result.Dropped[DropDuplicateStart]++
			continue
		}
		seen[act.StartTime] = true
		result.Activities = append(result.Activities, act)
	}

	result.Kept = len(result.Activities)
	return result
}

// check applies the threshold predicates to one activity. A nil metric
// cannot satisfy a threshold, so the row is dropped under that reason.
func check(act *models.Activity, rules CleaningRules) (string, bool) {
	if act.ActivityType != rules.ActivityType {
		return DropWrongType, false
	}
	if act.DurationMin == nil || *act.DurationMin <= rules.MinDurationMin {
		return DropShortDuration, false
	}
	if act.AvgSpeedKmh == nil || *act.AvgSpeedKmh <= rules.MinAvgSpeedKmh {
		return DropLowAvgSpeed, false
	}
	if act.MaxSpeedKmh != nil && *act.MaxSpeedKmh > rules.MaxSpeedCapKmh {
		return DropSpeedOverCap, false
	}
	if act.ElevationGainM != nil && *act.ElevationGainM >= rules.MaxElevationGain {
		return DropExcessiveElevation, false
	}
	return "", true
}
