package storage

import (
	"fmt"
	"testing"
	"time"

	"sift/internal/logging"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(t.TempDir(), logging.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func sampleRecord(i int, at time.Time) *RunRecord {
	return &RunRecord{
		ID:              fmt.Sprintf("run-%03d", i),
		RecordedAt:      at,
		TotalFiles:      10 + i,
		ParseMs:         1.25,
		AnalysisMs:      42.5,
		CacheHits:       i,
		CacheMisses:     10 - i,
		OccurrenceCount: 3,
		PerTechnique: []TechniqueSample{
			{Name: "todo-finder", DurationMs: 2.5, Occurrences: 3},
			{Name: "file-census", DurationMs: 0.5, Global: true},
		},
	}
}

func TestAppendAndGetRunHistory(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		rec := sampleRecord(i, base.Add(time.Duration(i)*time.Minute))
		if err := db.AppendRunRecord(rec, 100); err != nil {
			t.Fatalf("AppendRunRecord() error: %v", err)
		}
	}

	records, err := db.GetRunHistory(10)
	if err != nil {
		t.Fatalf("GetRunHistory() error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	// Newest first.
	if records[0].ID != "run-002" || records[2].ID != "run-000" {
		t.Errorf("unexpected ordering: %s .. %s", records[0].ID, records[2].ID)
	}

	got := records[0]
	if got.TotalFiles != 12 || got.CacheHits != 2 || got.OccurrenceCount != 3 {
		t.Errorf("record fields lost in round trip: %+v", got)
	}
	if len(got.PerTechnique) != 2 {
		t.Fatalf("PerTechnique entries = %d, want 2", len(got.PerTechnique))
	}
	if got.PerTechnique[1].Name != "file-census" || !got.PerTechnique[1].Global {
		t.Errorf("per-technique sample lost: %+v", got.PerTechnique[1])
	}
}

func TestRunHistoryEviction(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	const bound = 5
	for i := 0; i < bound+3; i++ {
		rec := sampleRecord(i, base.Add(time.Duration(i)*time.Minute))
		if err := db.AppendRunRecord(rec, bound); err != nil {
			t.Fatalf("AppendRunRecord() error: %v", err)
		}
	}

	count, err := db.RunHistoryCount()
	if err != nil {
		t.Fatalf("RunHistoryCount() error: %v", err)
	}
	if count != bound {
		t.Errorf("count = %d, want bound %d", count, bound)
	}

	records, err := db.GetRunHistory(bound)
	if err != nil {
		t.Fatalf("GetRunHistory() error: %v", err)
	}
	// The oldest entries were evicted, the newest survive.
	if records[0].ID != "run-007" {
		t.Errorf("newest = %s, want run-007", records[0].ID)
	}
	if records[len(records)-1].ID != "run-003" {
		t.Errorf("oldest survivor = %s, want run-003", records[len(records)-1].ID)
	}
}

func TestGetRunHistoryLimit(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		if err := db.AppendRunRecord(sampleRecord(i, base.Add(time.Duration(i)*time.Minute)), 0); err != nil {
			t.Fatalf("AppendRunRecord() error: %v", err)
		}
	}

	records, err := db.GetRunHistory(2)
	if err != nil {
		t.Fatalf("GetRunHistory() error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want limit 2", len(records))
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	db1, err := Open(dir, logging.NewDiscardLogger())
	if err != nil {
		t.Fatalf("First Open() error: %v", err)
	}
	if err := db1.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	// Reopening an existing database runs migrations, not initialization.
	db2, err := Open(dir, logging.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Second Open() error: %v", err)
	}
	defer db2.Close() //nolint:errcheck // Best effort cleanup

	count, err := db2.RunHistoryCount()
	if err != nil {
		t.Fatalf("RunHistoryCount() after reopen: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}
