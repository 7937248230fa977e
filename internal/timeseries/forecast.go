package timeseries

import (
	"errors"
	"fmt"
)

// Baseline forecasts. These are the reference methods any fitted model has
// to beat: each extends a series by h periods using only simple arithmetic
// over the observed values.

// Naive forecasts h periods by repeating the last observed value.
func Naive(s *Series, h int) (*Series, error) {
	if err := checkHorizon(s, h, 1); err != nil {
		return nil, err
	}

	last := s.Values[len(s.Values)-1]
	values := make([]float64, h)
	for i := range values {
		values[i] = last
	}

	return continuation(s, "_naive", values), nil
}

// SeasonalNaive forecasts h periods by repeating the value from the same
// period one season earlier. Requires at least one full season of history.
func SeasonalNaive(s *Series, h int) (*Series, error) {
	if err := checkHorizon(s, h, s.Frequency); err != nil {
		return nil, err
	}

	n := len(s.Values)
	m := s.Frequency
	values := make([]float64, h)
	for i := range values {
		// Most recent observation for the same season.
		k := (i / m) + 1
		values[i] = s.Values[n+i-k*m]
	}

	return continuation(s, "_snaive", values), nil
}

// Drift forecasts h periods by extending the line from the first to the
// last observation. Requires at least two observations.
func Drift(s *Series, h int) (*Series, error) {
	if err := checkHorizon(s, h, 2); err != nil {
		return nil, err
	}

	n := len(s.Values)
	slope := (s.Values[n-1] - s.Values[0]) / float64(n-1)
	last := s.Values[n-1]

	values := make([]float64, h)
	for i := range values {
		values[i] = last + float64(i+1)*slope
	}

	return continuation(s, "_drift", values), nil
}

func checkHorizon(s *Series, h, minLen int) error {
	if h <= 0 {
		return errors.New("forecast horizon must be positive")
	}
	if len(s.Values) < minLen {
		return fmt.Errorf("series %q has %d values, need at least %d", s.Name, len(s.Values), minLen)
	}
	return nil
}

func continuation(s *Series, suffix string, values []float64) *Series {
	out := NewMonthly(s.Name+suffix, s.PeriodAt(len(s.Values)), values)
	out.Frequency = s.Frequency
	return out
}
