package main

import (
	"context"
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fieldbrief/fieldbrief/internal/pipeline"
	"github.com/fieldbrief/fieldbrief/internal/summarize"
	"github.com/fieldbrief/fieldbrief/internal/tui"
)

// summarizeWithTUI runs the pipeline behind an interactive progress
// display. The pipeline runs in the background; events are forwarded to
// the TUI, and the final status stays on screen until the user quits.
func summarizeWithTUI(ctx context.Context, plan *pipeline.Plan, pipeCfg pipeline.Config) error {
	// Suppress log output while the TUI is active (it corrupts the display)
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.NewModel(plan.FieldIDs())
	program := tea.NewProgram(model, tea.WithAltScreen())

	pipeCfg.OnEvent = func(ev summarize.Event) {
		program.Send(tui.FieldEventMsg{Event: ev})
	}
	pipeCfg.Warnf = func(format string, args ...any) {
		// Warnings surface in the final report; the TUI owns the screen.
	}

	type runResult struct {
		out *pipeline.Outcome
		err error
	}
	runDone := make(chan runResult, 1)
	go func() {
		out, err := plan.Execute(ctx, pipeCfg)
		if err != nil {
			program.Send(tui.RunDoneMsg{Err: err})
		} else {
			program.Send(tui.RunDoneMsg{Message: fmt.Sprintf("Saved: %s", out.OutputPath)})
		}
		runDone <- runResult{out: out, err: err}
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-runDone
		return fmt.Errorf("progress display: %w", err)
	}

	// User quit; stop any in-flight work and collect the result.
	cancel()
	res := <-runDone
	if res.err != nil {
		return res.err
	}

	reportOutcome(res.out)
	return nil
}
