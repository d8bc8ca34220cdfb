package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fieldbrief/fieldbrief/internal/config"
	"github.com/fieldbrief/fieldbrief/internal/pipeline"
	"github.com/fieldbrief/fieldbrief/internal/watch"
)

var (
	watchInput   string
	watchOutput  string
	watchModel   string
	watchDelay   time.Duration
	watchWorkers int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-summarize whenever the input file changes",
	Long: `Watch runs a full summarization, then keeps watching the input CSV and
re-runs the pipeline each time the file is written. Useful while an
export upstream is still being refreshed.

Every run regenerates every field; nothing is cached between runs.
Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchInput, "input", "", "Input CSV path (required)")
	watchCmd.Flags().StringVar(&watchOutput, "output", "", "Output CSV path (default: [input]-summarized)")
	watchCmd.Flags().StringVar(&watchModel, "model", "", "Claude model (default from config or FIELDBRIEF_MODEL)")
	watchCmd.Flags().DurationVar(&watchDelay, "delay", 0, "Delay between calls (default from config, 250ms)")
	watchCmd.Flags().IntVar(&watchWorkers, "workers", 0, "Concurrent field summarizations (default from config, 1)")
	watchCmd.MarkFlagRequired("input")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	deps, err := buildPipeline(cfg, pipelineFlags{
		Model:   watchModel,
		Delay:   watchDelay,
		Workers: watchWorkers,
	})
	if err != nil {
		return err
	}
	defer deps.Close()

	pipeCfg := deps.Config
	pipeCfg.Output = watchOutput
	pipeCfg.Warnf = func(format string, args ...any) {
		printStatus("⚠", fmt.Sprintf(format, args...), color.FgYellow)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce := func() {
		out, err := pipeline.Run(ctx, watchInput, pipeCfg)
		if err != nil {
			printStatus("✗", err.Error(), color.FgRed)
			return
		}
		if out.FieldsFailed > 0 {
			printStatus("⚠", fmt.Sprintf("%d of %d fields carry an error marker", out.FieldsFailed, out.FieldsTotal), color.FgYellow)
		}
		printStatus("✓", fmt.Sprintf("saved %s (%d fields)", out.OutputPath, out.FieldsTotal), color.FgGreen)
	}

	runOnce()

	w, err := watch.New(watchInput)
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Printf("Watching %s for changes (Ctrl-C to stop)\n", watchInput)
	err = w.Run(ctx, func() {
		fmt.Printf("\n%s changed, re-running\n", watchInput)
		runOnce()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
