package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/samadpls/archdata/pkg/groq"
)

// Groq completes prompts against an OpenAI-compatible chat endpoint.
type Groq struct {
	client groq.Client
	model  string
}

// NewGroq returns a Completer backed by client. An empty model uses the
// client's default.
func NewGroq(client groq.Client, model string) *Groq {
	return &Groq{client: client, model: model}
}

func (g *Groq) Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	resp, err := g.client.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model:       g.model,
		Messages:    []groq.Message{{Role: "user", Content: prompt}},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: groq completion")
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("llm: groq returned no choices")
	}
	return resp.Content(), nil
}
