package main

import (
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"

	"github.com/fieldbrief/fieldbrief/internal/config"
	"github.com/fieldbrief/fieldbrief/internal/llm"
	"github.com/fieldbrief/fieldbrief/internal/pipeline"
	"github.com/fieldbrief/fieldbrief/internal/state"
)

// pipelineFlags carries command-line overrides on top of the loaded
// configuration.
type pipelineFlags struct {
	Model     string
	Delay     time.Duration
	Workers   int
	NoJournal bool
}

// pipelineDeps bundles the constructed pipeline config with the
// resources behind it.
type pipelineDeps struct {
	Config  pipeline.Config
	journal *state.DB
}

// Close releases the journal database, if open.
func (d *pipelineDeps) Close() {
	if d.journal != nil {
		d.journal.Close()
	}
}

// buildPipeline resolves credentials and constructs the API client,
// runner, and journal from config plus flag overrides. A missing API
// key (outside Bedrock mode) is fatal here, before any row is read.
func buildPipeline(cfg *config.Config, flags pipelineFlags) (*pipelineDeps, error) {
	model := flags.Model
	if model == "" {
		model = cfg.Summary.Model
	}

	clientCfg := llm.ClientConfig{
		Model:         anthropic.Model(model),
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	}

	if !cfg.Anthropic.UseBedrock {
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w (set ANTHROPIC_API_KEY or run 'fieldbrief config anthropic.api_key <key>')", err)
		}
		clientCfg.APIKey = key
	}

	client, err := llm.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}

	delay := flags.Delay
	if delay == 0 {
		delay = cfg.Summary.Delay
	}
	workers := flags.Workers
	if workers == 0 {
		workers = cfg.Summary.Workers
	}

	deps := &pipelineDeps{
		Config: pipeline.Config{
			Model:   string(client.Model()),
			Runner:  llm.NewRunner(client),
			Tracker: client.Tracker(),
			Retry: llm.RetryConfig{
				MaxAttempts: cfg.Retry.MaxAttempts,
				BaseBackoff: cfg.Retry.Backoff,
			},
			Delay:   delay,
			Workers: workers,
		},
	}

	if !flags.NoJournal {
		journal, err := state.Open(state.DefaultDBPath())
		if err == nil {
			err = journal.Migrate()
		}
		if err != nil {
			// The journal is best-effort; a broken one never blocks a run.
			printStatus("⚠", fmt.Sprintf("history journal unavailable: %v", err), color.FgYellow)
		} else {
			deps.journal = journal
			deps.Config.Journal = journal
		}
	}

	return deps, nil
}
