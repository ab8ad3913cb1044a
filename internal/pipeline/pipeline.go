// Package pipeline turns a labeled-utterance corpus into a routing dataset:
// intents, policies, synthesized conversations, alignment filtering and
// augmentation.
package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/samadpls/archdata/internal/config"
	"github.com/samadpls/archdata/internal/llm"
	"github.com/samadpls/archdata/internal/metrics"
	"github.com/samadpls/archdata/internal/model"
	"github.com/samadpls/archdata/internal/resilience"
)

// StatusFunc is notified when a run enters a new stage.
type StatusFunc func(ctx context.Context, status model.RunStatus)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics records pipeline metrics into m.
func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithStatusFunc registers a stage transition hook.
func WithStatusFunc(fn StatusFunc) Option {
	return func(p *Pipeline) { p.onStatus = fn }
}

// WithRand replaces the random source seeded from the config.
func WithRand(rng *rand.Rand) Option {
	return func(p *Pipeline) { p.rng = rng }
}

// NewRand returns a PCG-backed source. A zero seed is replaced by the
// current time.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Pipeline runs the generation stages sequentially against one Completer.
type Pipeline struct {
	cfg      config.PipelineConfig
	llm      llm.Completer
	rng      *rand.Rand
	metrics  *metrics.PipelineMetrics
	onStatus StatusFunc
}

// New creates a Pipeline.
func New(cfg config.PipelineConfig, c llm.Completer, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, llm: c}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = NewRand(cfg.Seed)
	}
	return p
}

// Result is the outcome of a run.
type Result struct {
	Records  []model.Record
	Variants []model.AugmentedConversation
	Stats    model.RunStats
}

// Run executes extract, infer, synthesize, score and augment, then
// assembles and truncates the dataset. Failures in infer, synthesize or
// score abort the run; augmentation failures only drop the variant.
func (p *Pipeline) Run(ctx context.Context, corpus model.Corpus) (*Result, error) {
	start := time.Now()
	log := zap.L().With(zap.Int("target_dataset_size", p.cfg.TargetDatasetSize))
	var stats model.RunStats

	p.status(ctx, model.RunStatusExtracting)
	intents := ExtractIntents(corpus, p.cfg.TargetDatasetSize, p.cfg.MaxSamplesPerIntent)
	stats.Intents = len(intents)
	log.Info("pipeline: extracted intents", zap.Int("intents", len(intents)))

	p.status(ctx, model.RunStatusInferring)
	inferencer := NewPolicyInferencer(p.llm, p.cfg.Policy)
	policies := make([]model.Policy, 0, len(intents))
	for _, in := range intents {
		pol, err := retryStage(ctx, p, stagePolicy, func(ctx context.Context) (model.Policy, error) {
			return inferencer.Infer(ctx, in)
		})
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: infer policy for %q", in.Name)
		}
		policies = append(policies, pol)
	}
	stats.Policies = len(policies)
	log.Info("pipeline: inferred policies", zap.Int("policies", len(policies)))

	p.status(ctx, model.RunStatusSynthesizing)
	synth := NewSynthesizer(p.llm, p.cfg.Conversation, p.cfg.MinConversationTurns, p.cfg.MaxConversationTurns, p.rng)
	convs := make([]model.Conversation, 0, len(policies))
	for _, pol := range policies {
		conv, err := retryStage(ctx, p, stageSynthesize, func(ctx context.Context) (model.Conversation, error) {
			return synth.Synthesize(ctx, pol)
		})
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: synthesize %s/%s", pol.Domain, pol.Action)
		}
		convs = append(convs, conv)
	}
	stats.Conversations = len(convs)
	log.Info("pipeline: synthesized conversations", zap.Int("conversations", len(convs)))

	p.status(ctx, model.RunStatusScoring)
	scorer := NewAlignmentScorer(p.llm, p.cfg.Alignment, p.cfg.AlignmentThreshold)
	aligned := make([]model.Conversation, 0, len(convs))
	for _, conv := range convs {
		score, err := retryStage(ctx, p, stageAlign, func(ctx context.Context) (model.AlignmentScore, error) {
			return scorer.Score(ctx, conv)
		})
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: score %s/%s", conv.Domain, conv.Action)
		}
		p.metrics.ObserveAlignment(score)
		if score.Degraded() {
			stats.ScoredDefaults++
		}
		if !score.IsAligned {
			stats.Rejected++
			log.Debug("pipeline: conversation rejected",
				zap.String("domain", conv.Domain),
				zap.String("action", conv.Action),
				zap.Float64("score", score.Score),
				zap.String("reasoning", score.Reasoning),
			)
			continue
		}
		aligned = append(aligned, conv)
	}
	stats.Aligned = len(aligned)
	log.Info("pipeline: scored conversations",
		zap.Int("aligned", stats.Aligned),
		zap.Int("rejected", stats.Rejected),
	)

	p.status(ctx, model.RunStatusAugmenting)
	aug := NewAugmenter(p.llm, p.cfg.Augmentation, p.rng, p.cfg.UseDomainMixing, p.metrics)
	variants, failures := aug.AugmentAll(ctx, aligned)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: augment")
	}
	if len(failures) > 0 {
		stats.BranchFailures = make(map[model.AugmentationType]int)
		for _, f := range failures {
			stats.BranchFailures[f.Branch]++
		}
	}

	summary := SummarizeVariants(variants)
	stats.Variants = summary.Total
	stats.VariantsByType = summary.ByType
	stats.MeanLabelScore = summary.MeanLabelScore

	records := Assemble(variants)
	stats.Truncated = len(records) > p.cfg.TargetDatasetSize
	records = Truncate(records, p.cfg.TargetDatasetSize)
	stats.Records = len(records)
	stats.DurationMillis = time.Since(start).Milliseconds()
	p.metrics.SetRecords(len(records))

	log.Info("pipeline: dataset assembled",
		zap.Int("variants", stats.Variants),
		zap.Int("records", stats.Records),
		zap.Bool("truncated", stats.Truncated),
	)

	return &Result{Records: records, Variants: variants, Stats: stats}, nil
}

func (p *Pipeline) status(ctx context.Context, s model.RunStatus) {
	if p.onStatus != nil {
		p.onStatus(ctx, s)
	}
}

// retryStage regenerates a stage result while the failure is a parse,
// format or validation error or a transient backend error.
func retryStage[T any](ctx context.Context, p *Pipeline, stage string, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg := resilience.FromAttempts(p.cfg.MaxRegenerationAttempts, p.cfg.RetryInitialBackoffMs, p.cfg.RetryMaxBackoffMs)
	cfg.ShouldRetry = Regenerable
	logRetry := resilience.RetryLogger(stage)
	cfg.OnRetry = func(attempt int, err error) {
		logRetry(attempt, err)
		p.metrics.ObserveRetry(stage)
	}
	return resilience.DoVal(ctx, cfg, fn)
}
