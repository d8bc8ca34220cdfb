package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fieldbrief/fieldbrief/internal/llm"
	"github.com/fieldbrief/fieldbrief/internal/state"
)

const testHeader = "field_id,field_name,client_name,farm_name,crop_name,area,pass_number,order_date,org_name,org_id,order_id,suggestion_created,ag_assistant,mission_rec,cycle_id"

// scriptedRunner returns a canned summary, or an error for every call.
type scriptedRunner struct {
	calls int
	err   error
}

func (r *scriptedRunner) Complete(ctx context.Context, system, user string) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return fmt.Sprintf("summary %d", r.calls), nil
}

func writeInput(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "missions.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func readOutput(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return records
}

func TestRunEndToEnd(t *testing.T) {
	input := writeInput(t,
		testHeader,
		`1274316,North 80,Acme,Home,Corn,80,1,2025-06-01,Org,42,1,2025-06-02,bot,weed pressure,7`,
		`1274316,North 80,Acme,Home,Corn,80,2,2025-07-15,Org,42,2,2025-07-16,bot,weed pressure improving,7`,
		`9999,South 40,Acme,Home,Beans,40,1,2025-06-05,Org,42,3,2025-06-06,bot,emergence uneven,7`,
	)

	runner := &scriptedRunner{}
	out, err := Run(context.Background(), input, Config{Runner: runner})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if out.FieldsTotal != 2 || out.FieldsFailed != 0 {
		t.Errorf("outcome counters: %+v", out)
	}
	if runner.calls != 2 {
		t.Errorf("expected one API call per field, got %d", runner.calls)
	}

	wantPath := strings.TrimSuffix(input, ".csv") + "-summarized.csv"
	if out.OutputPath != wantPath {
		t.Errorf("output path %q, want %q", out.OutputPath, wantPath)
	}

	records := readOutput(t, out.OutputPath)
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[1][0] != "1274316" || records[2][0] != "9999" {
		t.Errorf("fields out of first-appearance order: %s, %s", records[1][0], records[2][0])
	}
	for _, rec := range records[1:] {
		if rec[len(rec)-1] == "" {
			t.Error("summary column must never be empty")
		}
	}
}

func TestRunAllCallsFailStillWritesEveryField(t *testing.T) {
	input := writeInput(t,
		testHeader,
		`1,A,B,C,Corn,80,1,2025-06-01,Org,1,1,2025-06-02,bot,note,7`,
		`2,D,E,F,Beans,40,1,2025-06-05,Org,1,2,2025-06-06,bot,note,7`,
	)

	runner := &scriptedRunner{err: errors.New("always down")}
	out, err := Run(context.Background(), input, Config{
		Runner: runner,
		Retry:  llm.RetryConfig{MaxAttempts: 1},
	})
	if err != nil {
		t.Fatalf("a failing collaborator must not fail the run: %v", err)
	}

	if out.FieldsFailed != 2 {
		t.Errorf("expected 2 failed fields, got %d", out.FieldsFailed)
	}

	records := readOutput(t, out.OutputPath)
	if len(records) != 3 {
		t.Fatalf("all fields must still be written, got %d records", len(records))
	}
	for _, rec := range records[1:] {
		if !strings.Contains(rec[len(rec)-1], "[LLM error]") {
			t.Errorf("expected sentinel summary, got %q", rec[len(rec)-1])
		}
	}
}

func TestRunSkipsRowsWithoutFieldID(t *testing.T) {
	input := writeInput(t,
		testHeader,
		`1,A,B,C,Corn,80,1,2025-06-01,Org,1,1,2025-06-02,bot,note,7`,
		`,X,Y,Z,Oats,10,1,2025-06-01,Org,1,2,2025-06-02,bot,orphan,7`,
	)

	var warnings []string
	out, err := Run(context.Background(), input, Config{
		Runner: &scriptedRunner{},
		Warnf: func(format string, args ...any) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		},
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if out.FieldsTotal != 1 || out.RowsSkipped != 1 {
		t.Errorf("outcome counters: %+v", out)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "field_id") {
		t.Errorf("expected one skip warning, got %v", warnings)
	}
}

func TestRunExplicitOutputPath(t *testing.T) {
	input := writeInput(t,
		testHeader,
		`1,A,B,C,Corn,80,1,2025-06-01,Org,1,1,2025-06-02,bot,note,7`,
	)
	outPath := filepath.Join(t.TempDir(), "custom.csv")

	out, err := Run(context.Background(), input, Config{
		Runner: &scriptedRunner{},
		Output: outPath,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out.OutputPath != outPath {
		t.Errorf("output path %q, want %q", out.OutputPath, outPath)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output file not written: %v", err)
	}
}

func TestRunMissingInput(t *testing.T) {
	_, err := Run(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), Config{
		Runner: &scriptedRunner{},
	})
	if err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestRunRecordsJournal(t *testing.T) {
	input := writeInput(t,
		testHeader,
		`1,A,B,C,Corn,80,1,2025-06-01,Org,1,1,2025-06-02,bot,note,7`,
	)

	journal, err := state.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer journal.Close()
	if err := journal.Migrate(); err != nil {
		t.Fatalf("migrate journal: %v", err)
	}

	out, err := Run(context.Background(), input, Config{
		Runner:  &scriptedRunner{},
		Journal: journal,
		Model:   "claude-sonnet-4-20250514",
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	runs, err := journal.ListRecentRuns(1)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 journaled run, got %d", len(runs))
	}
	if runs[0].ID != out.RunID {
		t.Errorf("journaled run id %q, want %q", runs[0].ID, out.RunID)
	}

	outcomes, err := journal.ListFieldOutcomes(out.RunID)
	if err != nil {
		t.Fatalf("list outcomes: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != state.FieldOK {
		t.Errorf("unexpected outcomes: %+v", outcomes)
	}
}
