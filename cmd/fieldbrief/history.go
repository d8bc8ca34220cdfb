package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fieldbrief/fieldbrief/internal/state"
)

var (
	historyLimit int
	historyRunID string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent summarization runs",
	Long: `History lists recent runs from the local journal: what was read, where
the output went, and how many fields succeeded.

Use --run <id> to see the per-field outcomes of one run. The journal
never stores generated summaries, so it cannot be used as a cache.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to show")
	historyCmd.Flags().StringVar(&historyRunID, "run", "", "Show per-field outcomes for one run")
}

func runHistory(cmd *cobra.Command, args []string) error {
	dbPath := state.DefaultDBPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No runs recorded yet. Run 'fieldbrief summarize --input <csv>' first.")
		return nil
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}

	if historyRunID != "" {
		return showRunFields(db, historyRunID)
	}
	return showRecentRuns(db)
}

// showRecentRuns lists the latest runs, newest first.
func showRecentRuns(db *state.DB) error {
	runs, err := db.ListRecentRuns(historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	for _, r := range runs {
		status := color.GreenString("ok")
		if r.FieldsFailed > 0 {
			status = color.YellowString("%d failed", r.FieldsFailed)
		}
		fmt.Printf("%s  %s  %s\n", r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.InputPath)
		fmt.Printf("        %d fields (%s), %d rows skipped, %s, model %s\n",
			r.FieldsTotal, status, r.RowsSkipped,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second), r.Model)
		fmt.Printf("        → %s\n", r.OutputPath)
	}

	return nil
}

// showRunFields prints one run's per-field outcomes in pipeline order.
func showRunFields(db *state.DB, runID string) error {
	outcomes, err := db.ListFieldOutcomes(runID)
	if err != nil {
		return fmt.Errorf("list outcomes: %w", err)
	}

	if len(outcomes) == 0 {
		fmt.Printf("No fields recorded for run %s.\n", runID)
		return nil
	}

	for _, f := range outcomes {
		if f.Status == state.FieldFailed {
			printStatus("✗", fmt.Sprintf("%s  %s  %s", f.FieldID, f.Duration.Round(10*time.Millisecond), f.Error), color.FgRed)
			continue
		}
		printStatus("✓", fmt.Sprintf("%s  %s", f.FieldID, f.Duration.Round(10*time.Millisecond)), color.FgGreen)
	}

	return nil
}
