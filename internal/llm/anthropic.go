package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/samadpls/archdata/pkg/anthropic"
)

// Anthropic completes prompts with the Messages API.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic returns a Completer backed by client.
func NewAnthropic(client anthropic.Client, model string) *Anthropic {
	return &Anthropic{client: client, model: model}
}

func (a *Anthropic) Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   int64(maxTokens),
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temperature,
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: anthropic completion")
	}
	resp.Usage.LogCost(a.model, "complete")
	return resp.Text(), nil
}
