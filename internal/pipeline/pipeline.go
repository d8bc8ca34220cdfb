// Package pipeline wires the full fieldbrief run: load the input CSV,
// group rows by field, summarize each group through the model, write
// the augmented output, and journal the outcome.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fieldbrief/fieldbrief/internal/llm"
	"github.com/fieldbrief/fieldbrief/internal/mission"
	"github.com/fieldbrief/fieldbrief/internal/state"
	"github.com/fieldbrief/fieldbrief/internal/summarize"
)

// Config assembles everything one run needs beyond the input itself.
type Config struct {
	// Output is the CSV to write. Empty derives the path from the input
	// by inserting -summarized before the extension.
	Output string
	// Model is recorded in the journal; the runner already carries it.
	Model string

	// Runner issues the per-field completion calls. Required.
	Runner summarize.Completer
	// Tracker, when set, supplies token totals for the journal.
	Tracker *llm.TokenTracker

	Retry   llm.RetryConfig
	Delay   time.Duration
	Workers int

	// Journal, when set, records the completed run. Failures to record
	// are logged, never fatal.
	Journal *state.DB

	// OnEvent receives per-field progress events.
	OnEvent func(summarize.Event)
	// Warnf receives non-fatal warnings (rows skipped for missing
	// field_id, failed fields). Defaults to log.Printf.
	Warnf func(format string, args ...any)
}

// Plan is a loaded and grouped input, ready to execute.
type Plan struct {
	Input  string
	Table  *mission.Table
	Groups []*mission.Group
	// Skipped holds rows dropped for having no field_id.
	Skipped []mission.Row
}

// Prepare loads and groups the input CSV. Missing files or columns
// return an error; rows without a field_id are collected, not fatal.
func Prepare(input string) (*Plan, error) {
	table, err := mission.Load(input)
	if err != nil {
		return nil, err
	}

	grouped := mission.GroupByField(table.Rows)
	return &Plan{
		Input:   input,
		Table:   table,
		Groups:  grouped.Groups,
		Skipped: grouped.Skipped,
	}, nil
}

// FieldIDs returns the field identifiers in processing order.
func (p *Plan) FieldIDs() []string {
	ids := make([]string, len(p.Groups))
	for i, g := range p.Groups {
		ids[i] = g.FieldID
	}
	return ids
}

// Outcome is the result of one completed run.
type Outcome struct {
	RunID      string
	OutputPath string
	StartedAt  time.Time
	FinishedAt time.Time

	FieldsTotal  int
	FieldsFailed int
	RowsSkipped  int

	Results []summarize.Result
}

// Run is Prepare followed by Execute.
func Run(ctx context.Context, input string, cfg Config) (*Outcome, error) {
	plan, err := Prepare(input)
	if err != nil {
		return nil, err
	}
	return plan.Execute(ctx, cfg)
}

// Execute summarizes every group in the plan and writes the output.
// Individual field failures produce sentinel summaries and a non-nil
// Outcome; only input and output problems return an error.
func (p *Plan) Execute(ctx context.Context, cfg Config) (*Outcome, error) {
	warnf := cfg.Warnf
	if warnf == nil {
		warnf = log.Printf
	}

	for _, row := range p.Skipped {
		warnf("skipping row %d: missing field_id", row.Index+1)
	}

	output := cfg.Output
	if output == "" {
		output = summarize.OutputPath(p.Input)
	}

	started := time.Now()

	s := summarize.New(cfg.Runner, summarize.Options{
		Retry:   cfg.Retry,
		Delay:   cfg.Delay,
		Workers: cfg.Workers,
		OnEvent: cfg.OnEvent,
	})
	results := s.Run(ctx, p.Groups)

	if err := summarize.Write(output, p.Table, p.Groups, results); err != nil {
		return nil, err
	}

	out := &Outcome{
		RunID:       uuid.New().String()[:8],
		OutputPath:  output,
		StartedAt:   started,
		FinishedAt:  time.Now(),
		FieldsTotal: len(p.Groups),
		RowsSkipped: len(p.Skipped),
		Results:     results,
	}
	for _, r := range results {
		if r.Failed() {
			out.FieldsFailed++
			warnf("field %s: %v", r.FieldID, r.Err)
		}
	}

	if cfg.Journal != nil {
		if err := journalRun(p, cfg, out); err != nil {
			warnf("journal: %v", err)
		}
	}

	return out, nil
}

// journalRun records the run and its per-field outcomes.
func journalRun(p *Plan, cfg Config, out *Outcome) error {
	run := &state.Run{
		ID:           out.RunID,
		InputPath:    p.Input,
		OutputPath:   out.OutputPath,
		Model:        cfg.Model,
		StartedAt:    out.StartedAt,
		FinishedAt:   out.FinishedAt,
		FieldsTotal:  out.FieldsTotal,
		FieldsFailed: out.FieldsFailed,
		RowsSkipped:  out.RowsSkipped,
	}
	if cfg.Tracker != nil {
		run.TokensIn, run.TokensOut = cfg.Tracker.Total()
	}

	fields := make([]state.FieldOutcome, 0, len(out.Results))
	for i, r := range out.Results {
		f := state.FieldOutcome{
			FieldID:  r.FieldID,
			Position: i,
			Status:   state.FieldOK,
			Duration: r.Duration,
		}
		if r.Failed() {
			f.Status = state.FieldFailed
			f.Error = r.Err.Error()
		}
		fields = append(fields, f)
	}

	if err := cfg.Journal.RecordRun(run, fields); err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}
