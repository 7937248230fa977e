package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ride-analytics/internal/analysis"
)

const exportHeader = "activityType,start_time,duration,distance,avgSpeed,maxSpeed,elevationGain,avgHr,avgPower,max20MinPower,avgBikeCadence,calories"

func writeExport(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "activities.csv")
	if err := os.WriteFile(path, []byte(exportHeader+"\n"+rows), 0644); err != nil {
		t.Fatalf("failed to write export: %v", err)
	}
	return path
}

func TestIngestionService_IngestFile(t *testing.T) {
	rows := "cycling,2016-11-01 14:52:50,95.5,42.3,26.6,58.1,410,143,187,240,82,890\n" +
		"cycling,2016-11-03 08:15:00,45,18.2,24.1,44.0,120,135,160,210,79,430\n" +
		"running,2016-11-04 07:00:00,30,5.1,10.2,14.0,50,150,,,,310\n" +
		"cycling,not-a-timestamp,60,20,22,40,100,130,150,200,80,500\n" +
		"cycling,2016-11-05 09:00:00,5,2.1,24.0,40.0,30,120,140,190,78,90\n"
	path := writeExport(t, rows)

	repo := &fakeRepository{}
	svc := NewIngestionService(repo, analysis.DefaultCleaningRules(), testLogger(), testMetrics)

	result, err := svc.IngestFile(context.Background(), path, 500)
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}

	if result.TotalRows != 5 {
		t.Errorf("TotalRows = %d, want 5", result.TotalRows)
	}
	if result.ParsedRows != 4 {
		t.Errorf("ParsedRows = %d, want 4", result.ParsedRows)
	}
	if len(result.MalformedRows) != 1 {
		t.Errorf("MalformedRows = %v, want one row", result.MalformedRows)
	}
	// Running ride and five-minute ride are dropped by cleaning.
	if result.StoredRecords != 2 {
		t.Errorf("StoredRecords = %d, want 2", result.StoredRecords)
	}
	if result.Dropped[analysis.DropWrongType] != 1 {
		t.Errorf("Dropped[%s] = %d, want 1", analysis.DropWrongType, result.Dropped[analysis.DropWrongType])
	}
	if result.Dropped[analysis.DropShortDuration] != 1 {
		t.Errorf("Dropped[%s] = %d, want 1", analysis.DropShortDuration, result.Dropped[analysis.DropShortDuration])
	}

	if len(repo.activities) != 2 {
		t.Fatalf("stored %d activities, want 2", len(repo.activities))
	}
	// Calendar features are derived before storage.
	first := repo.activities[0]
	if first.Year != 2016 || first.Month != 11 {
		t.Errorf("calendar features = %d-%d, want 2016-11", first.Year, first.Month)
	}
	if first.ISOWeekday != 2 {
		t.Errorf("ISOWeekday = %d, want 2", first.ISOWeekday)
	}
}

func TestIngestionService_IngestFile_Batching(t *testing.T) {
	rows := "cycling,2016-11-01 09:00:00,60,25,25,50,100,140,180,230,80,600\n" +
		"cycling,2016-11-02 09:00:00,60,25,25,50,100,140,180,230,80,600\n" +
		"cycling,2016-11-03 09:00:00,60,25,25,50,100,140,180,230,80,600\n"
	path := writeExport(t, rows)

	repo := &fakeRepository{}
	svc := NewIngestionService(repo, analysis.DefaultCleaningRules(), testLogger(), testMetrics)

	result, err := svc.IngestFile(context.Background(), path, 2)
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}

	if result.StoredRecords != 3 {
		t.Errorf("StoredRecords = %d, want 3", result.StoredRecords)
	}
	if repo.batchCalls != 2 {
		t.Errorf("batch calls = %d, want 2", repo.batchCalls)
	}
}

func TestIngestionService_IngestFile_SchemaError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activities.csv")
	if err := os.WriteFile(path, []byte("activityType,start_time\ncycling,2016-11-01 09:00:00\n"), 0644); err != nil {
		t.Fatalf("failed to write export: %v", err)
	}

	repo := &fakeRepository{}
	svc := NewIngestionService(repo, analysis.DefaultCleaningRules(), testLogger(), testMetrics)

	_, err := svc.IngestFile(context.Background(), path, 500)
	if err == nil {
		t.Fatal("schema mismatch should be fatal")
	}
	var schemaErr *analysis.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Errorf("error type = %T, want wrapped *SchemaError", err)
	}
	if repo.batchCalls != 0 {
		t.Error("nothing should be stored on schema mismatch")
	}
}

func TestIngestionService_IngestFile_MissingFile(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewIngestionService(repo, analysis.DefaultCleaningRules(), testLogger(), testMetrics)

	if _, err := svc.IngestFile(context.Background(), "/nonexistent/export.csv", 500); err == nil {
		t.Error("missing file should be an error")
	}
}
