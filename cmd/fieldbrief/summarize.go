package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fieldbrief/fieldbrief/internal/config"
	"github.com/fieldbrief/fieldbrief/internal/pipeline"
	"github.com/fieldbrief/fieldbrief/internal/summarize"
)

var (
	summarizeInput   string
	summarizeOutput  string
	summarizeModel   string
	summarizeDelay   time.Duration
	summarizeWorkers int
	summarizeTUI     bool
	summarizeNoLog   bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Generate one season summary per field",
	Long: `Summarize reads the input CSV, groups rows by field_id, and issues one
Claude request per field to condense its passes into a season summary.

Fields are processed in first-appearance order. A field whose request
keeps failing is written with an error marker instead of being dropped;
the run still succeeds. Only a missing API key, an unreadable input, or
missing required columns abort the run.

The output defaults to the input path with -summarized inserted before
the extension, one row per field plus a field_summary column.`,
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeInput, "input", "", "Input CSV path (required)")
	summarizeCmd.Flags().StringVar(&summarizeOutput, "output", "", "Output CSV path (default: [input]-summarized)")
	summarizeCmd.Flags().StringVar(&summarizeModel, "model", "", "Claude model (default from config or FIELDBRIEF_MODEL)")
	summarizeCmd.Flags().DurationVar(&summarizeDelay, "delay", 0, "Delay between calls (default from config, 250ms)")
	summarizeCmd.Flags().IntVar(&summarizeWorkers, "workers", 0, "Concurrent field summarizations (default from config, 1)")
	summarizeCmd.Flags().BoolVar(&summarizeTUI, "tui", false, "Show interactive progress display")
	summarizeCmd.Flags().BoolVar(&summarizeNoLog, "no-journal", false, "Skip recording the run in the history journal")
	summarizeCmd.MarkFlagRequired("input")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	deps, err := buildPipeline(cfg, pipelineFlags{
		Model:     summarizeModel,
		Delay:     summarizeDelay,
		Workers:   summarizeWorkers,
		NoJournal: summarizeNoLog,
	})
	if err != nil {
		return err
	}
	defer deps.Close()

	pipeCfg := deps.Config
	pipeCfg.Output = summarizeOutput

	plan, err := pipeline.Prepare(summarizeInput)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if summarizeTUI {
		return summarizeWithTUI(ctx, plan, pipeCfg)
	}
	return summarizeHeadless(ctx, plan, pipeCfg)
}

// summarizeHeadless runs the pipeline printing one status line per field.
func summarizeHeadless(ctx context.Context, plan *pipeline.Plan, pipeCfg pipeline.Config) error {
	fmt.Printf("Summarizing %d fields from %s\n", len(plan.Groups), plan.Input)

	pipeCfg.OnEvent = func(ev summarize.Event) {
		if !ev.Done {
			return
		}
		if ev.Result != nil && ev.Result.Failed() {
			printStatus("✗", fmt.Sprintf("field %s (%d/%d): %v", ev.FieldID, ev.Index+1, ev.Total, ev.Result.Err), color.FgRed)
			return
		}
		printStatus("✓", fmt.Sprintf("field %s (%d/%d)", ev.FieldID, ev.Index+1, ev.Total), color.FgGreen)
	}
	pipeCfg.Warnf = func(format string, args ...any) {
		printStatus("⚠", fmt.Sprintf(format, args...), color.FgYellow)
	}

	out, err := plan.Execute(ctx, pipeCfg)
	if err != nil {
		return err
	}

	reportOutcome(out)
	return nil
}

// reportOutcome prints the closing status lines for a finished run.
func reportOutcome(out *pipeline.Outcome) {
	fmt.Println()
	if out.FieldsFailed > 0 {
		printStatus("⚠", fmt.Sprintf("%d of %d fields carry an error marker", out.FieldsFailed, out.FieldsTotal), color.FgYellow)
	}
	fmt.Printf("Saved: %s\n", out.OutputPath)
}

// printStatus prints a colored status symbol followed by a message.
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
