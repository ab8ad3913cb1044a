package llm

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini completes prompts with Google's Gemini API.
type Gemini struct {
	client  *genai.Client
	modelID string
}

// NewGemini creates a Gemini client. Close releases it.
func NewGemini(ctx context.Context, apiKey, modelID string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, eris.New("llm: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, eris.Wrap(err, "llm: create gemini client")
	}
	return &Gemini{client: client, modelID: modelID}, nil
}

func (g *Gemini) Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SetTemperature(float32(temperature))
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", eris.Wrap(err, "llm: gemini generate")
	}
	return geminiText(resp)
}

// Close releases resources held by the Gemini client.
func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", eris.New("llm: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", eris.New("llm: gemini returned empty content")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}
