package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// maxSummaryTokens bounds the response size. Season summaries are a few
// sentences, so this leaves generous headroom.
const maxSummaryTokens = 1024

// Runner issues simple text-in/text-out Messages API calls. No tools,
// no streaming: one request, one response.
type Runner struct {
	client *Client
}

// NewRunner creates a new API runner.
func NewRunner(client *Client) *Runner {
	return &Runner{client: client}
}

// Complete executes a prompt with a system message and returns the text
// response. It blocks until the API responds or ctx is done.
func (r *Runner) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := r.client.sdk().Messages.New(ctx, anthropic.MessageNewParams{
		Model:     r.client.Model(),
		MaxTokens: maxSummaryTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("API call failed: %w", err)
	}

	r.client.Tracker().Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var result strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			result.WriteString(variant.Text)
		}
	}

	return strings.TrimSpace(result.String()), nil
}
