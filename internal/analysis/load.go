// Package analysis implements the in-memory activity pipeline: loading an
// activity export, cleaning it with configurable rules, deriving calendar
// features, aggregating to monthly granularity and filling calendar gaps.
// Every step consumes the immutable output of the previous one.
package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"ride-analytics/internal/models"
)

// Column names expected in an activity export header.
const (
	ColActivityType  = "activityType"
	ColStartTime     = "start_time"
	ColDuration      = "duration"
	ColDistance      = "distance"
	ColAvgSpeed      = "avgSpeed"
	ColMaxSpeed      = "maxSpeed"
	ColElevationGain = "elevationGain"
	ColAvgHr         = "avgHr"
	ColAvgPower      = "avgPower"
	ColMax20MinPower = "max20MinPower"
	ColAvgCadence    = "avgBikeCadence"
	ColCalories      = "calories"
)

var requiredColumns = []string{
	ColActivityType, ColStartTime, ColDuration, ColDistance,
	ColAvgSpeed, ColMaxSpeed, ColElevationGain, ColAvgHr,
	ColAvgPower, ColMax20MinPower, ColAvgCadence, ColCalories,
}

// SchemaError reports expected columns missing from an export header.
// It is fatal: no row is parsed when the schema does not match.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("activity export is missing required columns: %s",
		strings.Join(e.Missing, ", "))
}

func (e *SchemaError) IsTransient() bool {
	return false
}

// LoadResult contains per-load record accounting. Malformed records are
// counted and reported by row number, never silently discarded.
type LoadResult struct {
	Activities    []*models.Activity
	TotalRows     int
	ParsedRows    int
	MalformedRows []int
}

// LoadFile reads an activity export CSV from disk.
func LoadFile(path string) (*LoadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity export: %w", err)
	}
	defer file.Close()

	return Load(file)
}

// Load reads an activity export CSV from a reader. The first row must be a
// header containing every required column; extra columns are ignored.
func Load(r io.Reader) (*LoadResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Ragged rows surface as malformed records, not a fatal load error.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read export header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &SchemaError{Missing: missing}
	}

	result := &LoadResult{}
	row := 1 // header was row 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read export row %d: %w", row+1, err)
		}
		row++
		result.TotalRows++

		cell := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			return record[i]
		}

		raw := &models.RawActivityRecord{
			ActivityType:  cell(ColActivityType),
			StartTime:     cell(ColStartTime),
			Duration:      cell(ColDuration),
			Distance:      cell(ColDistance),
			AvgSpeed:      cell(ColAvgSpeed),
			MaxSpeed:      cell(ColMaxSpeed),
			ElevationGain: cell(ColElevationGain),
			AvgHr:         cell(ColAvgHr),
			AvgPower:      cell(ColAvgPower),
			Max20MinPower: cell(ColMax20MinPower),
			AvgCadence:    cell(ColAvgCadence),
			Calories:      cell(ColCalories),
		}

		activity, err := raw.ToActivity()
		if err != nil {
			result.MalformedRows = append(result.MalformedRows, row)
			continue
		}

		result.ParsedRows++
		result.Activities = append(result.Activities, activity)
	}

	return result, nil
}
