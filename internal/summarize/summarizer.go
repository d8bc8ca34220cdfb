package summarize

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fieldbrief/fieldbrief/internal/llm"
	"github.com/fieldbrief/fieldbrief/internal/mission"
)

// sentinelPrefix marks a summary that could not be generated. The field
// is still written so it is never silently dropped.
const sentinelPrefix = "[LLM error]"

// Completer is the single call the summarizer needs from the API layer.
// *llm.Runner satisfies it; tests substitute a fake.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Result is one field's summarization outcome.
type Result struct {
	FieldID string
	Summary string
	// Err is set when all attempts failed; Summary then holds the
	// sentinel text.
	Err error
	// Duration covers all attempts for this field.
	Duration time.Duration
}

// Failed reports whether the summary is a failure sentinel.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Event reports progress for one field as it is processed.
type Event struct {
	FieldID string
	// Index is the field's position in grouper order, zero-based.
	Index int
	Total int
	// Done is false when the field's request is starting, true when a
	// result is available.
	Done   bool
	Result *Result
}

// Options configures a Summarizer.
type Options struct {
	Retry llm.RetryConfig
	// Delay is the pause between consecutive calls on one worker,
	// simple rate control between requests.
	Delay time.Duration
	// Workers bounds concurrent field summarizations. Zero or one means
	// strictly sequential. Results are always returned in group order.
	Workers int
	// OnEvent, when set, receives progress events. It may be called
	// from multiple goroutines when Workers > 1.
	OnEvent func(Event)
}

// Summarizer generates one season summary per field group.
type Summarizer struct {
	runner Completer
	opts   Options
}

// New creates a Summarizer around the given completer.
func New(runner Completer, opts Options) *Summarizer {
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = llm.DefaultRetryConfig()
	}
	return &Summarizer{runner: runner, opts: opts}
}

// Run summarizes every group. One request per group per attempt, no
// batching; a group with a single row still makes the call. A failed
// group gets a sentinel summary and the run continues. The returned
// slice is index-aligned with groups regardless of worker count.
func (s *Summarizer) Run(ctx context.Context, groups []*mission.Group) []Result {
	results := make([]Result, len(groups))

	workers := s.opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(groups) {
		workers = len(groups)
	}

	if workers <= 1 {
		for i, g := range groups {
			results[i] = s.summarizeOne(ctx, g, i, len(groups))
			if s.opts.Delay > 0 && i < len(groups)-1 {
				s.pause(ctx)
			}
		}
		return results
	}

	// Bounded pool: workers pull group indexes, results land in their
	// slot so grouper order survives.
	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first := true
			for i := range indexes {
				if !first && s.opts.Delay > 0 {
					s.pause(ctx)
				}
				first = false
				results[i] = s.summarizeOne(ctx, groups[i], i, len(groups))
			}
		}()
	}
	for i := range groups {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return results
}

// summarizeOne runs the full request/retry cycle for a single group.
func (s *Summarizer) summarizeOne(ctx context.Context, g *mission.Group, index, total int) Result {
	s.emit(Event{FieldID: g.FieldID, Index: index, Total: total})

	start := time.Now()
	userPrompt := BuildUserPrompt(g)

	text, err := llm.Do(ctx, s.opts.Retry, func(ctx context.Context) (string, error) {
		return s.runner.Complete(ctx, SystemPrompt(), userPrompt)
	})

	res := Result{
		FieldID:  g.FieldID,
		Summary:  text,
		Duration: time.Since(start),
	}
	if err != nil {
		res.Err = err
		res.Summary = fmt.Sprintf("%s %v", sentinelPrefix, err)
	}

	s.emit(Event{FieldID: g.FieldID, Index: index, Total: total, Done: true, Result: &res})
	return res
}

func (s *Summarizer) emit(ev Event) {
	if s.opts.OnEvent != nil {
		s.opts.OnEvent(ev)
	}
}

func (s *Summarizer) pause(ctx context.Context) {
	select {
	case <-time.After(s.opts.Delay):
	case <-ctx.Done():
	}
}
