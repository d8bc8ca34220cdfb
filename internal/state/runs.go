package state

import (
	"fmt"
	"time"
)

// FieldStatus is the journal outcome for one field in a run.
type FieldStatus string

const (
	FieldOK     FieldStatus = "ok"
	FieldFailed FieldStatus = "failed"
)

// Run is one completed pipeline invocation.
type Run struct {
	ID           string
	InputPath    string
	OutputPath   string
	Model        string
	StartedAt    time.Time
	FinishedAt   time.Time
	FieldsTotal  int
	FieldsFailed int
	RowsSkipped  int
	TokensIn     int64
	TokensOut    int64
}

// FieldOutcome is the journal entry for one field in a run.
type FieldOutcome struct {
	FieldID  string
	Position int
	Status   FieldStatus
	Error    string
	Duration time.Duration
}

// RecordRun persists a completed run and its per-field outcomes in one
// transaction.
func (db *DB) RecordRun(run *Run, fields []FieldOutcome) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, input_path, output_path, model, started_at, finished_at,
			fields_total, fields_failed, rows_skipped, tokens_in, tokens_out)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.InputPath, run.OutputPath, run.Model,
		formatTime(run.StartedAt), formatTime(run.FinishedAt),
		run.FieldsTotal, run.FieldsFailed, run.RowsSkipped,
		run.TokensIn, run.TokensOut,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, f := range fields {
		_, err = tx.Exec(`
			INSERT INTO run_fields (run_id, field_id, position, status, error, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, f.FieldID, f.Position, string(f.Status), f.Error, f.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("insert field %s: %w", f.FieldID, err)
		}
	}

	return tx.Commit()
}

// ListRecentRuns returns up to limit runs, most recent first.
func (db *DB) ListRecentRuns(limit int) ([]*Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	rows, err := db.conn.Query(`
		SELECT id, input_path, output_path, model, started_at, finished_at,
			fields_total, fields_failed, rows_skipped, tokens_in, tokens_out
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		var startedAt, finishedAt string
		err := rows.Scan(&r.ID, &r.InputPath, &r.OutputPath, &r.Model,
			&startedAt, &finishedAt,
			&r.FieldsTotal, &r.FieldsFailed, &r.RowsSkipped,
			&r.TokensIn, &r.TokensOut)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = parseTime(startedAt)
		r.FinishedAt, _ = parseTime(finishedAt)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// ListFieldOutcomes returns a run's per-field outcomes in pipeline order.
func (db *DB) ListFieldOutcomes(runID string) ([]FieldOutcome, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT field_id, position, status, COALESCE(error, ''), duration_ms
		FROM run_fields
		WHERE run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query field outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []FieldOutcome
	for rows.Next() {
		var f FieldOutcome
		var status string
		var durationMS int64
		if err := rows.Scan(&f.FieldID, &f.Position, &status, &f.Error, &durationMS); err != nil {
			return nil, fmt.Errorf("scan field outcome: %w", err)
		}
		f.Status = FieldStatus(status)
		f.Duration = time.Duration(durationMS) * time.Millisecond
		outcomes = append(outcomes, f)
	}

	return outcomes, rows.Err()
}
