package models

import (
	"strconv"
	"strings"
	"time"
)

// Activity represents a single logged ride.
// Optional metrics are pointers so that absent source values stay NULL
// through storage and aggregation instead of collapsing to zero.
type Activity struct {
	ID           int64     `json:"id" db:"id"`
	ActivityType string    `json:"activity_type" db:"activity_type"`
	StartTime    time.Time `json:"start_time" db:"start_time"`

	DurationMin    *float64 `json:"duration_min,omitempty" db:"duration_min"`
	DistanceKm     *float64 `json:"distance_km,omitempty" db:"distance_km"`
	AvgSpeedKmh    *float64 `json:"avg_speed_kmh,omitempty" db:"avg_speed_kmh"`
	MaxSpeedKmh    *float64 `json:"max_speed_kmh,omitempty" db:"max_speed_kmh"`
	ElevationGainM *float64 `json:"elevation_gain_m,omitempty" db:"elevation_gain_m"`
	AvgHr          *float64 `json:"avg_hr,omitempty" db:"avg_hr"`
	AvgPowerW      *float64 `json:"avg_power_w,omitempty" db:"avg_power_w"`
	Max20MinPowerW *float64 `json:"max_20min_power_w,omitempty" db:"max_20min_power_w"`
	AvgCadenceRpm  *float64 `json:"avg_cadence_rpm,omitempty" db:"avg_cadence_rpm"`
	Calories       *float64 `json:"calories,omitempty" db:"calories"`

	// Calendar features derived from StartTime after cleaning.
	Year       int `json:"year" db:"year"`
	Month      int `json:"month" db:"month"`
	ISOWeekday int `json:"iso_weekday" db:"iso_weekday"`
	HourOfDay  int `json:"hour_of_day" db:"hour_of_day"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MonthlyAggregate represents summary statistics for one calendar month.
// Metrics stay nil when no ride in the month contributed a value; the gap
// filler resolves those by interpolation.
type MonthlyAggregate struct {
	ID    int64     `json:"id" db:"id"`
	Month time.Time `json:"month" db:"month"` // first day of the month, UTC

	RideCount        int      `json:"ride_count" db:"ride_count"`
	TotalDurationMin *float64 `json:"total_duration_min,omitempty" db:"total_duration_min"`
	EnduranceMin     *float64 `json:"endurance_min,omitempty" db:"endurance_min"`
	TotalDistanceKm  *float64 `json:"total_distance_km,omitempty" db:"total_distance_km"`
	MeanAvgSpeedKmh  *float64 `json:"mean_avg_speed_kmh,omitempty" db:"mean_avg_speed_kmh"`
	MaxSpeedKmh      *float64 `json:"max_speed_kmh,omitempty" db:"max_speed_kmh"`
	MeanAvgPowerW    *float64 `json:"mean_avg_power_w,omitempty" db:"mean_avg_power_w"`

	Interpolated bool `json:"interpolated" db:"interpolated"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RawActivityRecord represents one data row from an activity export file
// before type conversion. All cells are kept as raw strings.
type RawActivityRecord struct {
	ActivityType  string
	StartTime     string
	Duration      string
	Distance      string
	AvgSpeed      string
	MaxSpeed      string
	ElevationGain string
	AvgHr         string
	AvgPower      string
	Max20MinPower string
	AvgCadence    string
	Calories      string
}

// startTimeLayouts are tried in order when parsing export timestamps.
var startTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ToActivity converts a RawActivityRecord into an Activity.
// Empty, "NA", "NaN" and "null" cells become nil metrics; an unparseable
// start time is a ValidationError so the caller can count the record
// instead of silently dropping it.
func (r *RawActivityRecord) ToActivity() (*Activity, error) {
	start, err := parseStartTime(r.StartTime)
	if err != nil {
		return nil, &ValidationError{
			Field:   "start_time",
			Value:   r.StartTime,
			Message: "invalid start time, expected YYYY-MM-DD HH:MM:SS",
		}
	}

	act := &Activity{
		ActivityType: strings.TrimSpace(r.ActivityType),
		StartTime:    start,
		CreatedAt:    time.Now().UTC(),
	}

	act.DurationMin = parseMetric(r.Duration)
	act.DistanceKm = parseMetric(r.Distance)
	act.AvgSpeedKmh = parseMetric(r.AvgSpeed)
	act.MaxSpeedKmh = parseMetric(r.MaxSpeed)
	act.ElevationGainM = parseMetric(r.ElevationGain)
	act.AvgHr = parseMetric(r.AvgHr)
	act.AvgPowerW = parseMetric(r.AvgPower)
	act.Max20MinPowerW = parseMetric(r.Max20MinPower)
	act.AvgCadenceRpm = parseMetric(r.AvgCadence)
	act.Calories = parseMetric(r.Calories)

	return act, nil
}

func parseStartTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range startTimeLayouts {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseMetric converts a raw numeric cell to a metric value.
// Missing-value markers and unparseable cells map to nil.
func parseMetric(value string) *float64 {
	value = strings.TrimSpace(value)
	switch value {
	case "", "NA", "NaN", "null", "--":
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ValidationError represents a per-record data validation error.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent.
func (e *ValidationError) IsTransient() bool {
	return false
}
