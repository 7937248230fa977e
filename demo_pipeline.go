package main

import (
	"context"
	"fmt"
	"os"

	"ride-analytics/internal/analysis"
	"ride-analytics/internal/timeseries"
	"ride-analytics/pkg/logging"
)

// DemoPipeline walks the in-memory pipeline end to end without a database:
// load an export, clean it, derive calendar features, aggregate by month,
// fill gaps and build the duration series.
func main() {
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("RIDE ANALYTICS - PIPELINE DEMONSTRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()

	logger := logging.NewStructuredLogger("demo", "1.0.0", logging.InfoLevel)
	ctx := context.Background()

	exportFile := "./data/activities.csv"
	if len(os.Args) > 1 {
		exportFile = os.Args[1]
	}

	loaded, err := analysis.LoadFile(exportFile)
	if err != nil {
		logger.Error(ctx, "Failed to load export", logging.Fields{"file": exportFile}, err)
		os.Exit(1)
	}

	fmt.Printf("Loaded %d rows (%d parsed, %d malformed)\n",
		loaded.TotalRows, loaded.ParsedRows, len(loaded.MalformedRows))

	cleaned := analysis.Clean(loaded.Activities, analysis.DefaultCleaningRules())
	fmt.Printf("Cleaned: kept %d of %d\n", cleaned.Kept, cleaned.Total)
	for reason, count := range cleaned.Dropped {
		fmt.Printf("  dropped %-28s %d\n", reason, count)
	}

	analysis.DeriveCalendar(cleaned.Activities)

	aggregates := analysis.AggregateMonthly(cleaned.Activities, analysis.AggregateOptions{})
	fmt.Printf("\nAggregated into %d months with data\n", len(aggregates))

	filled, err := analysis.FillGaps(aggregates)
	if err != nil {
		logger.Error(ctx, "Gap filling failed", logging.Fields{}, err)
		os.Exit(1)
	}
	fmt.Printf("Gap filling inserted %d months\n", filled.InsertedMonths)

	series, err := timeseries.ForMetric(timeseries.MetricTotalDuration, filled.Aggregates)
	if err != nil {
		logger.Error(ctx, "Series build failed", logging.Fields{}, err)
		os.Exit(1)
	}

	fmt.Printf("\nSeries %s: %d periods from %s, frequency %d\n",
		series.Name, series.Len(), series.PeriodAt(0).Format("2006-01"), series.Frequency)
	fmt.Printf("  mean %.1f, std %.1f, min %.1f, max %.1f\n",
		series.Mean(), series.Std(), series.Min(), series.Max())

	if forecast, err := timeseries.SeasonalNaive(series, 12); err == nil {
		fmt.Printf("\nSeasonal naive forecast for the next 12 months:\n")
		for i := 0; i < forecast.Len(); i++ {
			fmt.Printf("  %s  %8.1f\n", forecast.PeriodAt(i).Format("2006-01"), forecast.Value(i))
		}
	}
}
