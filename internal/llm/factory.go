package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/samadpls/archdata/internal/config"
	"github.com/samadpls/archdata/internal/metrics"
	"github.com/samadpls/archdata/pkg/anthropic"
	"github.com/samadpls/archdata/pkg/groq"
)

// New builds the Completer for the configured provider, wrapped with rate
// limiting (when configured) and metrics. The returned close func releases
// provider resources and is never nil.
func New(ctx context.Context, cfg *config.Config, m *metrics.PipelineMetrics) (Completer, func() error, error) {
	noop := func() error { return nil }

	var (
		c       Completer
		closeFn = noop
	)
	switch cfg.Provider {
	case config.ProviderAnthropic:
		c = NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
	case config.ProviderGroq:
		client := groq.NewClient(cfg.Groq.Key,
			groq.WithBaseURL(cfg.Groq.BaseURL),
			groq.WithModel(cfg.Groq.Model),
		)
		c = NewGroq(client, cfg.Groq.Model)
	case config.ProviderBedrock:
		b, err := NewBedrockFromRegion(ctx, cfg.Bedrock.Region, cfg.Bedrock.Model)
		if err != nil {
			return nil, noop, err
		}
		c = b
	case config.ProviderGemini:
		g, err := NewGemini(ctx, cfg.Gemini.Key, cfg.Gemini.Model)
		if err != nil {
			return nil, noop, err
		}
		c, closeFn = g, g.Close
	default:
		return nil, noop, eris.Errorf("llm: unknown provider %q", cfg.Provider)
	}

	if rl := cfg.RateLimit; rl.RequestsPerSecond > 0 {
		c = NewRateLimited(c, rl.RequestsPerSecond, rl.Burst)
	}

	zap.L().Info("generation backend ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model()),
		zap.Float64("requests_per_second", cfg.RateLimit.RequestsPerSecond),
	)
	return NewInstrumented(c, cfg.Provider, m), closeFn, nil
}
