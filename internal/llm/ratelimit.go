package llm

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/samadpls/archdata/internal/resilience"
)

// AdaptiveLimiter wraps a rate.Limiter with adaptive rate adjustment.
// On success it increases the rate by 20% (up to 2x initial).
// On 429 it halves the rate (down to initial/4 minimum).
type AdaptiveLimiter struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	maxRate     rate.Limit
	minRate     rate.Limit
	currentRate rate.Limit
}

// NewAdaptiveLimiter creates an adaptive rate limiter that auto-tunes.
func NewAdaptiveLimiter(initialRate rate.Limit, burst int) *AdaptiveLimiter {
	if burst < 1 {
		burst = 1
	}
	return &AdaptiveLimiter{
		limiter:     rate.NewLimiter(initialRate, burst),
		maxRate:     initialRate * 2,
		minRate:     initialRate / 4,
		currentRate: initialRate,
	}
}

// Wait blocks until the limiter allows an event.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// OnSuccess increases the rate by 20%, up to 2x initial.
func (a *AdaptiveLimiter) OnSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setLocked(min(a.currentRate*1.2, a.maxRate))
}

// OnRateLimit halves the rate after a 429.
func (a *AdaptiveLimiter) OnRateLimit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setLocked(max(a.currentRate*0.5, a.minRate))
	zap.L().Warn("adaptive rate limit: reducing rate after 429",
		zap.Float64("new_rate", float64(a.currentRate)),
	)
}

func (a *AdaptiveLimiter) setLocked(r rate.Limit) {
	a.currentRate = r
	a.limiter.SetLimit(r)
}

// Limit returns the current rate limit.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentRate
}

// RateLimited throttles calls to next through an AdaptiveLimiter.
type RateLimited struct {
	next    Completer
	limiter *AdaptiveLimiter
}

// NewRateLimited wraps next with a limiter of rps requests per second.
func NewRateLimited(next Completer, rps float64, burst int) *RateLimited {
	return &RateLimited{next: next, limiter: NewAdaptiveLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "llm: rate limit wait")
	}

	text, err := r.next.Complete(ctx, prompt, temperature, maxTokens)
	if err != nil {
		var te *resilience.TransientError
		if errors.As(err, &te) && te.StatusCode == http.StatusTooManyRequests {
			r.limiter.OnRateLimit()
		}
		return "", err
	}
	r.limiter.OnSuccess()
	return text, nil
}
