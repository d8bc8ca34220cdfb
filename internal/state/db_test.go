package state

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func testRun(id string, started time.Time) *Run {
	return &Run{
		ID:           id,
		InputPath:    "/data/missions.csv",
		OutputPath:   "/data/missions-summarized.csv",
		Model:        "claude-sonnet-4-20250514",
		StartedAt:    started,
		FinishedAt:   started.Add(90 * time.Second),
		FieldsTotal:  2,
		FieldsFailed: 1,
		RowsSkipped:  1,
		TokensIn:     1200,
		TokensOut:    300,
	}
}

func TestRecordAndListRuns(t *testing.T) {
	db := openTestDB(t)

	base := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	fields := []FieldOutcome{
		{FieldID: "1274316", Position: 0, Status: FieldOK, Duration: 2 * time.Second},
		{FieldID: "9999", Position: 1, Status: FieldFailed, Error: "rate limited", Duration: 8 * time.Second},
	}

	if err := db.RecordRun(testRun("run-1", base), fields); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := db.RecordRun(testRun("run-2", base.Add(time.Hour)), nil); err != nil {
		t.Fatalf("record second run: %v", err)
	}

	runs, err := db.ListRecentRuns(10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-2" {
		t.Errorf("runs should be newest first, got %s", runs[0].ID)
	}

	r := runs[1]
	if r.FieldsTotal != 2 || r.FieldsFailed != 1 || r.RowsSkipped != 1 {
		t.Errorf("run counters wrong: %+v", r)
	}
	if r.TokensIn != 1200 || r.TokensOut != 300 {
		t.Errorf("token counters wrong: %d/%d", r.TokensIn, r.TokensOut)
	}
}

func TestListFieldOutcomes(t *testing.T) {
	db := openTestDB(t)

	base := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	fields := []FieldOutcome{
		{FieldID: "b", Position: 1, Status: FieldFailed, Error: "boom", Duration: time.Second},
		{FieldID: "a", Position: 0, Status: FieldOK, Duration: time.Second},
	}
	if err := db.RecordRun(testRun("run-1", base), fields); err != nil {
		t.Fatalf("record run: %v", err)
	}

	outcomes, err := db.ListFieldOutcomes("run-1")
	if err != nil {
		t.Fatalf("list outcomes: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].FieldID != "a" || outcomes[1].FieldID != "b" {
		t.Errorf("outcomes should come back in position order: %s, %s",
			outcomes[0].FieldID, outcomes[1].FieldID)
	}
	if outcomes[1].Status != FieldFailed || outcomes[1].Error != "boom" {
		t.Errorf("failed outcome not preserved: %+v", outcomes[1])
	}
}

func TestListRecentRunsEmpty(t *testing.T) {
	db := openTestDB(t)

	runs, err := db.ListRecentRuns(5)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}
