// Package llm adapts text generation backends to a single completion call.
package llm

import (
	"context"
	"time"

	"github.com/samadpls/archdata/internal/metrics"
)

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	return f(ctx, prompt, temperature, maxTokens)
}

// Instrumented records request counts and latency for every call to next.
type Instrumented struct {
	next     Completer
	provider string
	metrics  *metrics.PipelineMetrics
}

// NewInstrumented wraps next. A nil metrics value records nothing.
func NewInstrumented(next Completer, provider string, m *metrics.PipelineMetrics) *Instrumented {
	return &Instrumented{next: next, provider: provider, metrics: m}
}

func (c *Instrumented) Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	start := time.Now()
	text, err := c.next.Complete(ctx, prompt, temperature, maxTokens)
	c.metrics.ObserveLLMRequest(c.provider, err, time.Since(start).Seconds())
	return text, err
}
